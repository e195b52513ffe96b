// Package ingest orchestrates the streaming create_video/get_video
// operations (spec §4.E): validating the inbound header, resolving a
// placement decision, and bridging the HTTP byte stream to a storage
// backend's Writer/Reader a fixed-size chunk at a time.
package ingest

import (
	"errors"
	"fmt"
)

// ErrMissingField is returned when a required header field is absent.
var ErrMissingField = errors.New("ingest: missing required field")

// ErrInvalidOffset is returned when an inbound datagram's offset does
// not match the number of bytes already written (duplicate or
// out-of-order chunk, spec §4.E step 5).
var ErrInvalidOffset = errors.New("ingest: datagram offset does not match bytes written so far")

// CreateVideoHeader is the first frame's JSON payload on a create_video
// stream.
type CreateVideoHeader struct {
	ProgramID   string `json:"program_id"`
	ProviderID  string `json:"provider_id"`
	FileName    string `json:"file_name"`
	MimeType    string `json:"mime_type"`
	TotalLength uint64 `json:"total_length"`
}

// validate checks the header's required fields are present, per spec
// §4.E step 1. TotalLength of zero is legal (an empty file).
func (h CreateVideoHeader) validate() error {
	switch {
	case h.ProgramID == "":
		return fmt.Errorf("%w: program_id", ErrMissingField)
	case h.ProviderID == "":
		return fmt.Errorf("%w: provider_id", ErrMissingField)
	case h.FileName == "":
		return fmt.Errorf("%w: file_name", ErrMissingField)
	case h.MimeType == "":
		return fmt.Errorf("%w: mime_type", ErrMissingField)
	}
	return nil
}

// VideoView is the exchangeable representation of a Video returned to
// callers (spec §4.E step 8, §6).
type VideoView struct {
	ID            string `json:"id"`
	ProgramID     string `json:"program_id"`
	ProviderID    string `json:"provider_id"`
	FileName      string `json:"file_name"`
	MimeType      string `json:"mime_type"`
	TotalLength   uint64 `json:"total_length"`
	StorageID     string `json:"storage_id"`
	StoragePrefix string `json:"storage_prefix"`
}
