package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/encoderclient"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

func TestVideoCreatedHandler_WritesThumbnailBackToCatalog(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.bin"))
	require.NoError(t, err)

	startAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	key := catalog.ProgramKey{StartAt: startAt, NetworkID: 1, ServiceID: 2, EventID: 3}
	program, _, err := store.FindOrCreate(key, func() (*catalog.Program, error) {
		return &catalog.Program{StartAt: startAt, NetworkID: 1, ServiceID: 2, EventID: 3, Name: "Show"}, nil
	})
	require.NoError(t, err)

	backend, err := storage.NewEphemeralBackend("", "primary")
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	reg, err := storage.NewRegistry(backend)
	require.NoError(t, err)
	storageID, err := backend.StorageID()
	require.NoError(t, err)

	video, err := store.CreateVideo(program.Key(), &catalog.Video{
		ProviderID: "p1", FileName: "a.ts", StorageID: storageID.String(),
	})
	require.NoError(t, err)

	encoderSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("fake-jpeg-bytes"))
	}))
	t.Cleanup(encoderSrv.Close)

	client := encoderclient.New(encoderSrv.URL, nil)
	handler := NewVideoCreatedHandler(store, reg, client, "http://self.invalid")

	require.NoError(t, handler(context.Background(), VideoCreated{ProgramID: program.ID, VideoID: video.ID}))

	updated, err := store.FindVideo(video.ID)
	require.NoError(t, err)
	require.Equal(t, []byte("fake-jpeg-bytes"), updated.ThumbnailBytes)
	require.Equal(t, "image/jpeg", updated.ThumbnailMimeType)
}

func TestVideoCreatedHandler_NilEncoderIsNoop(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.bin"))
	require.NoError(t, err)
	reg, err := storage.NewRegistry()
	require.NoError(t, err)

	handler := NewVideoCreatedHandler(store, reg, nil, "")
	require.NoError(t, handler(context.Background(), VideoCreated{VideoID: "missing"}))
}

func TestVideoCreatedHandler_EncoderFailureIsReported(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.bin"))
	require.NoError(t, err)

	startAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	key := catalog.ProgramKey{StartAt: startAt, NetworkID: 4, ServiceID: 5, EventID: 6}
	program, _, err := store.FindOrCreate(key, func() (*catalog.Program, error) {
		return &catalog.Program{StartAt: startAt, NetworkID: 4, ServiceID: 5, EventID: 6, Name: "Show"}, nil
	})
	require.NoError(t, err)

	backend, err := storage.NewEphemeralBackend("", "primary")
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	reg, err := storage.NewRegistry(backend)
	require.NoError(t, err)
	storageID, err := backend.StorageID()
	require.NoError(t, err)

	video, err := store.CreateVideo(program.Key(), &catalog.Video{
		ProviderID: "p2", FileName: "b.ts", StorageID: storageID.String(),
	})
	require.NoError(t, err)

	encoderSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(encoderSrv.Close)

	client := encoderclient.New(encoderSrv.URL, nil, encoderclient.WithRetries(0))
	handler := NewVideoCreatedHandler(store, reg, client, "http://self.invalid")

	err = handler(context.Background(), VideoCreated{ProgramID: program.ID, VideoID: video.ID})
	require.Error(t, err)
}
