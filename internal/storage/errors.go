// Package storage implements the pluggable video-storage layer (spec
// §4.B): a uniform backend contract with filesystem and in-memory
// implementations, each identified by a stable UUID, offering streamed
// writes with rollback on failure.
package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the backend cannot currently serve requests
	// (unmounted, sentinel lock contention, storage_id mismatch on read).
	ErrUnavailable = errors.New("storage: backend unavailable")

	// ErrNotFound means the requested video has no artifact in this
	// backend.
	ErrNotFound = errors.New("storage: video not found")

	// ErrCantCreateDir means the backend could not create the output
	// directory for a new video.
	ErrCantCreateDir = errors.New("storage: cannot create output directory")

	// ErrIO wraps an underlying read/write failure not otherwise
	// classified.
	ErrIO = errors.New("storage: I/O error")

	// ErrAborted is returned by a Writer after Abort has been called;
	// further Write calls are rejected.
	ErrAborted = errors.New("storage: writer aborted")

	// ErrAlreadyFinished is returned when Finish or Abort is called more
	// than once.
	ErrAlreadyFinished = errors.New("storage: writer already finished or aborted")
)

// MetadataBackupError wraps a failure writing one of the filesystem
// backend's informational JSON sidecar files (program.json,
// metadata.json, video.json). The primary video artifact may still be
// intact; callers decide whether this is fatal.
type MetadataBackupError struct {
	Msg string
	Err error
}

func (e *MetadataBackupError) Error() string {
	return fmt.Sprintf("storage: metadata backup failed: %s: %v", e.Msg, e.Err)
}

func (e *MetadataBackupError) Unwrap() error { return e.Err }
