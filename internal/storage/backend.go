package storage

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/shibafu528/dtvault-central/internal/catalog"
)

// Reader streams a video's bytes back to a caller, bounded by
// TotalLength.
type Reader interface {
	io.ReadCloser
	TotalLength() uint64
}

// Writer accepts sequential bytes for a new video artifact. Exactly one
// of Finish or Abort must be called to end the write; Close is a safety
// net that aborts if neither ran, mirroring the "dropping a writer
// without finish MUST abort" rule from spec §4.B using Go's io.Closer
// idiom in place of Rust's Drop.
type Writer interface {
	io.Writer
	// Finish commits the artifact, making it visible to Find.
	Finish(ctx context.Context) error
	// Abort discards the partial artifact.
	Abort(ctx context.Context) error
	// Close aborts the write if it was not already finished or aborted.
	io.Closer
}

// Backend is the uniform contract every storage implementation
// presents: is_available, storage_id, find, create (spec §4.B).
type Backend interface {
	// IsAvailable reports whether the backend can currently serve
	// requests.
	IsAvailable() bool

	// StorageID returns this backend's stable UUID, or ErrUnavailable if
	// it cannot currently be determined (e.g. sentinel lock contention).
	StorageID() (uuid.UUID, error)

	// Label returns the backend's configured human-readable name, used
	// by placement rules' storage_label selector.
	Label() string

	// Find opens a reader for video's bytes. Returns ErrNotFound if no
	// artifact exists, ErrUnavailable if the backend cannot currently
	// serve reads (including a storage_id mismatch against this mounted
	// backend), or ErrIO on a lower-level failure.
	Find(ctx context.Context, program *catalog.Program, video *catalog.Video) (Reader, error)

	// Create opens a writer for a new video's bytes. Returns
	// ErrUnavailable, ErrCantCreateDir, or a *MetadataBackupError.
	Create(ctx context.Context, program *catalog.Program, metadata map[string]string, video *catalog.Video) (Writer, error)
}
