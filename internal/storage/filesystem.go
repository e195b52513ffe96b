package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/fslock"
	xglog "github.com/shibafu528/dtvault-central/internal/log"
)

const sentinelFileName = ".dtvault_storage"

type sentinel struct {
	ID uuid.UUID `json:"id"`
}

// FilesystemBackend stores video bytes under a configured root
// directory, using a sentinel file to persist the backend's UUID. An
// advisory lock on that sentinel is held only while the UUID is first
// written (exclusive) or read back (shared, by StorageID and at the start
// of Find); Create takes no lock, and reads and writes of video files run
// without holding it (spec §4.B, §5).
type FilesystemBackend struct {
	root  string
	label string

	mu  sync.Mutex // serializes sentinel bootstrap only
	log zerolog.Logger
}

// NewFilesystemBackend mounts root, creating and locking the sentinel
// file on first use if it does not already exist.
func NewFilesystemBackend(root, label string) (*FilesystemBackend, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create root %s: %v", ErrUnavailable, root, err)
	}
	b := &FilesystemBackend{
		root:  root,
		label: label,
		log:   xglog.WithComponent("storage.filesystem").With().Str("root", root).Logger(),
	}
	if err := b.ensureSentinel(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *FilesystemBackend) sentinelPath() string {
	return filepath.Join(b.root, sentinelFileName)
}

// ensureSentinel bootstraps a new UUID under an exclusive lock the first
// time this root is mounted.
func (b *FilesystemBackend) ensureSentinel() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.sentinelPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat sentinel: %v", ErrUnavailable, err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o640)
	if err != nil {
		return fmt.Errorf("%w: create sentinel: %v", ErrUnavailable, err)
	}
	defer f.Close()

	lock, err := fslock.Exclusive(f)
	if err != nil {
		return fmt.Errorf("%w: lock sentinel: %v", ErrUnavailable, err)
	}
	defer lock.Unlock()

	// Re-check after acquiring the lock: another process may have raced
	// us to creation.
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat sentinel: %v", ErrUnavailable, err)
	}
	if info.Size() > 0 {
		return nil
	}

	id := uuid.New()
	enc := json.NewEncoder(f)
	if err := enc.Encode(sentinel{ID: id}); err != nil {
		return fmt.Errorf("%w: write sentinel: %v", ErrUnavailable, err)
	}
	b.log.Info().Str("storage_id", id.String()).Msg("initialized filesystem storage backend")
	return nil
}

// readSentinel acquires a shared lock on the sentinel for the duration
// of the read, per spec §5.
func (b *FilesystemBackend) readSentinel() (uuid.UUID, error) {
	f, err := os.Open(b.sentinelPath())
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: open sentinel: %v", ErrUnavailable, err)
	}
	defer f.Close()

	lock, err := fslock.Shared(f)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: lock sentinel: %v", ErrUnavailable, err)
	}
	defer lock.Unlock()

	var s sentinel
	if err := json.NewDecoder(f).Decode(&s); err != nil {
		return uuid.Nil, fmt.Errorf("%w: decode sentinel: %v", ErrUnavailable, err)
	}
	return s.ID, nil
}

func (b *FilesystemBackend) IsAvailable() bool {
	info, err := os.Stat(b.root)
	return err == nil && info.IsDir()
}

func (b *FilesystemBackend) StorageID() (uuid.UUID, error) {
	return b.readSentinel()
}

func (b *FilesystemBackend) Label() string { return b.label }

func (b *FilesystemBackend) videoDir(prefix, videoID string) string {
	if prefix == "" {
		return filepath.Join(b.root, videoID)
	}
	return filepath.Join(b.root, prefix, videoID)
}

// Find opens the stored artifact for reading. It verifies video's
// storage_id matches this mounted backend's UUID before touching the
// filesystem, per spec §4.B.
func (b *FilesystemBackend) Find(ctx context.Context, program *catalog.Program, video *catalog.Video) (Reader, error) {
	myID, err := b.readSentinel()
	if err != nil {
		return nil, err
	}
	if video.StorageID != myID.String() {
		return nil, fmt.Errorf("%w: video storage_id %s does not match mounted backend %s", ErrUnavailable, video.StorageID, myID)
	}

	dir := b.videoDir(video.StoragePrefix, video.ID)
	path := filepath.Join(dir, video.FileName)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}
	return &fileReader{f: f, total: video.TotalLength}, nil
}

// Create opens a writer for a new video. The directory, primary file,
// and informational JSON sidecars are all written beneath
// <root>/<prefix>/<video-uuid>/.
func (b *FilesystemBackend) Create(ctx context.Context, program *catalog.Program, metadata map[string]string, video *catalog.Video) (Writer, error) {
	if !b.IsAvailable() {
		return nil, ErrUnavailable
	}
	dir := b.videoDir(video.StoragePrefix, video.ID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCantCreateDir, dir, err)
	}

	path := filepath.Join(dir, video.FileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("%w: create %s: %v", ErrIO, path, err)
	}

	w := &fileWriter{f: f, dir: dir, log: b.log.With().Str("video_id", video.ID).Logger()}

	if err := writeSidecars(dir, program, metadata, video); err != nil {
		w.log.Warn().Err(err).Msg("failed to write informational backup sidecars")
		return w, &MetadataBackupError{Msg: "sidecar write", Err: err}
	}
	return w, nil
}

func writeSidecars(dir string, program *catalog.Program, metadata map[string]string, video *catalog.Video) error {
	if err := writeJSON(filepath.Join(dir, "program.json"), program); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "metadata.json"), metadata); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "video.json"), video); err != nil {
		return err
	}
	return nil
}

func writeJSON(path string, v any) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return err
	}
	defer pending.Cleanup()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return pending.CloseAtomicallyReplace()
}

type fileReader struct {
	f     *os.File
	total uint64
}

func (r *fileReader) Read(p []byte) (int, error) { return r.f.Read(p) }
func (r *fileReader) Close() error               { return r.f.Close() }
func (r *fileReader) TotalLength() uint64         { return r.total }

type fileWriter struct {
	f      *os.File
	dir    string
	log    zerolog.Logger
	done   bool
	closed bool
}

func (w *fileWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, ErrAborted
	}
	return w.f.Write(p)
}

func (w *fileWriter) Finish(ctx context.Context) error {
	if w.done {
		return ErrAlreadyFinished
	}
	w.done = true
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrIO, err)
	}
	return nil
}

func (w *fileWriter) Abort(ctx context.Context) error {
	if w.done {
		return ErrAlreadyFinished
	}
	w.done = true
	_ = w.f.Close()
	if err := os.RemoveAll(w.dir); err != nil {
		w.log.Warn().Err(err).Str("dir", w.dir).Msg("failed to remove partial video directory on abort")
		return fmt.Errorf("%w: remove %s: %v", ErrIO, w.dir, err)
	}
	return nil
}

func (w *fileWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.done {
		return nil
	}
	return w.Abort(context.Background())
}

var _ io.Writer = (*fileWriter)(nil)
