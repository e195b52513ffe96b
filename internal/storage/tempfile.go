package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	xglog "github.com/shibafu528/dtvault-central/internal/log"
)

// EphemeralBackend keeps video bytes in a process-local badger.DB, either
// in-memory or backed by a scratch directory on disk (spec §4.B: a
// backend suitable for short-lived or throwaway storage, e.g. tests and
// development). It is identified by a UUID generated once at
// construction and held only for the process lifetime.
type EphemeralBackend struct {
	db    *badger.DB
	id    uuid.UUID
	label string
	log   zerolog.Logger
}

// NewEphemeralBackend opens an in-memory badger.DB when dir is empty, or
// a badger.DB rooted at dir otherwise.
func NewEphemeralBackend(dir, label string) (*EphemeralBackend, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger store: %v", ErrUnavailable, err)
	}
	return &EphemeralBackend{
		db:    db,
		id:    uuid.New(),
		label: label,
		log:   xglog.WithComponent("storage.ephemeral"),
	}, nil
}

func (b *EphemeralBackend) Close() error { return b.db.Close() }

func (b *EphemeralBackend) IsAvailable() bool { return true }

func (b *EphemeralBackend) StorageID() (uuid.UUID, error) { return b.id, nil }

func (b *EphemeralBackend) Label() string { return b.label }

func (b *EphemeralBackend) blobKey(videoID string) []byte {
	return []byte("blob:" + videoID)
}

func (b *EphemeralBackend) Find(ctx context.Context, program *catalog.Program, video *catalog.Video) (Reader, error) {
	if video.StorageID != b.id.String() {
		return nil, fmt.Errorf("%w: video storage_id %s does not match mounted backend %s", ErrUnavailable, video.StorageID, b.id)
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.blobKey(video.ID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, fmt.Errorf("%w: video %s", ErrNotFound, video.ID)
		}
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	return &bufferReader{Reader: bytes.NewReader(data), total: uint64(len(data))}, nil
}

func (b *EphemeralBackend) Create(ctx context.Context, program *catalog.Program, metadata map[string]string, video *catalog.Video) (Writer, error) {
	return &bufferWriter{backend: b, videoID: video.ID, log: b.log.With().Str("video_id", video.ID).Logger()}, nil
}

type bufferReader struct {
	*bytes.Reader
	total uint64
}

func (r *bufferReader) Close() error          { return nil }
func (r *bufferReader) TotalLength() uint64   { return r.total }

type bufferWriter struct {
	backend *EphemeralBackend
	videoID string
	buf     bytes.Buffer
	done    bool
	log     zerolog.Logger
}

func (w *bufferWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrAborted
	}
	return w.buf.Write(p)
}

func (w *bufferWriter) Finish(ctx context.Context) error {
	if w.done {
		return ErrAlreadyFinished
	}
	w.done = true
	data := w.buf.Bytes()
	err := w.backend.db.Update(func(txn *badger.Txn) error {
		return txn.Set(w.backend.blobKey(w.videoID), data)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

func (w *bufferWriter) Abort(ctx context.Context) error {
	if w.done {
		return ErrAlreadyFinished
	}
	w.done = true
	w.buf.Reset()
	return nil
}

func (w *bufferWriter) Close() error {
	if w.done {
		return nil
	}
	return w.Abort(context.Background())
}

var _ io.Writer = (*bufferWriter)(nil)
