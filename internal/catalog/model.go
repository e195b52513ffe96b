// Package catalog implements the program/video catalog store: an
// in-memory indexed store with single-writer discipline and atomic
// snapshot persistence, grounded on the copy-on-write mutation pattern
// used by the teacher's internal/pipeline/store.MemoryStore (clone the
// target record, mutate the clone, replace the reference under the
// catalog lock).
package catalog

import "time"

// ChannelType enumerates the broadcast network kinds a Service's Channel
// can belong to.
type ChannelType string

const (
	ChannelGR  ChannelType = "GR"
	ChannelBS  ChannelType = "BS"
	ChannelCS  ChannelType = "CS"
	ChannelSky ChannelType = "Sky"
)

// Channel identifies a broadcast channel within a network.
type Channel struct {
	Type        ChannelType
	ChannelCode string
	Name        string
}

// Service is a broadcaster on a given network, optionally tied to a
// Channel.
type Service struct {
	NetworkID uint16
	ServiceID uint16
	Name      string
	Channel   *Channel
}

// ExtendedField is one element of a Program's ordered extended
// (key,value) pairs (distinct from the catalog Metadata map: extended
// fields preserve collector-supplied ordering and are never mutated
// after creation).
type ExtendedField struct {
	Key   string
	Value string
}

// Program is a recorded broadcast's catalog record. See spec §3 for the
// field-level invariants (ProgramKey uniqueness, metadata size caps).
type Program struct {
	ID          string // generated stable UUID
	NetworkID   uint16
	ServiceID   uint16
	EventID     uint16
	StartAt     time.Time // absolute UTC instant
	Duration    time.Duration
	Name        string
	Description string
	Extended    []ExtendedField
	Service     *Service
	Metadata    map[string]string // opaque strings; value <= 1 MiB, key <= 255 bytes
	VideoIDs    []string          // ordered, owned video UUIDs
}

// Key returns this program's natural composite key.
func (p *Program) Key() ProgramKey {
	return ProgramKey{
		StartAt:   p.StartAt,
		NetworkID: p.NetworkID,
		ServiceID: p.ServiceID,
		EventID:   p.EventID,
	}
}

// clone returns a deep-enough copy of p suitable for copy-on-write
// mutation: nested slices/maps are duplicated so the original remains
// safe for concurrent readers to keep observing.
func (p *Program) clone() *Program {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Extended != nil {
		cp.Extended = append([]ExtendedField(nil), p.Extended...)
	}
	if p.Service != nil {
		svc := *p.Service
		if p.Service.Channel != nil {
			ch := *p.Service.Channel
			svc.Channel = &ch
		}
		cp.Service = &svc
	}
	if p.Metadata != nil {
		cp.Metadata = make(map[string]string, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	if p.VideoIDs != nil {
		cp.VideoIDs = append([]string(nil), p.VideoIDs...)
	}
	return &cp
}

// Video is a single recorded media file owned by a Program.
type Video struct {
	ID                string
	ProviderID        string // opaque, unique within ProgramID
	ProgramID         string
	TotalLength       uint64
	FileName          string
	OriginalFileName  string
	MimeType          string
	StorageID         string // backend UUID this video's bytes live in
	StoragePrefix     string // routing key chosen by the placement engine
	ThumbnailBytes    []byte
	ThumbnailMimeType string
}

func (v *Video) clone() *Video {
	if v == nil {
		return nil
	}
	cp := *v
	if v.ThumbnailBytes != nil {
		cp.ThumbnailBytes = append([]byte(nil), v.ThumbnailBytes...)
	}
	return &cp
}
