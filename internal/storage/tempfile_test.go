package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEphemeralBackend_CreateAndFind(t *testing.T) {
	b, err := NewEphemeralBackend("", "scratch")
	require.NoError(t, err)
	defer b.Close()

	require.True(t, b.IsAvailable())
	id, err := b.StorageID()
	require.NoError(t, err)

	prog, vid := testVideo(t)
	vid.StorageID = id.String()

	w, err := b.Create(context.Background(), prog, nil, vid)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Finish(context.Background()))

	r, err := b.Find(context.Background(), prog, vid)
	require.NoError(t, err)
	defer r.Close()
	require.EqualValues(t, 5, r.TotalLength())
}

func TestEphemeralBackend_FindMissingIsNotFound(t *testing.T) {
	b, err := NewEphemeralBackend("", "scratch")
	require.NoError(t, err)
	defer b.Close()
	id, _ := b.StorageID()

	_, vid := testVideo(t)
	vid.StorageID = id.String()

	_, err = b.Find(context.Background(), nil, vid)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEphemeralBackend_AbortDiscardsData(t *testing.T) {
	b, err := NewEphemeralBackend("", "scratch")
	require.NoError(t, err)
	defer b.Close()
	id, _ := b.StorageID()

	prog, vid := testVideo(t)
	vid.StorageID = id.String()

	w, err := b.Create(context.Background(), prog, nil, vid)
	require.NoError(t, err)
	_, _ = w.Write([]byte("discard me"))
	require.NoError(t, w.Abort(context.Background()))

	_, err = b.Find(context.Background(), prog, vid)
	require.ErrorIs(t, err, ErrNotFound)
}
