package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_ByLabelAndByID(t *testing.T) {
	b1, err := NewEphemeralBackend("", "a")
	require.NoError(t, err)
	defer b1.Close()
	b2, err := NewEphemeralBackend("", "b")
	require.NoError(t, err)
	defer b2.Close()

	reg, err := NewRegistry(b1, b2)
	require.NoError(t, err)

	got, ok := reg.ByLabel("a")
	require.True(t, ok)
	require.Same(t, b1, got)

	id1, _ := b1.StorageID()
	got, ok = reg.ByID(id1)
	require.True(t, ok)
	require.Same(t, b1, got)

	require.Len(t, reg.All(), 2)
	require.Len(t, reg.Available(), 2)
}

func TestRegistry_RejectsDuplicateLabel(t *testing.T) {
	b1, _ := NewEphemeralBackend("", "dup")
	defer b1.Close()
	b2, _ := NewEphemeralBackend("", "dup")
	defer b2.Close()

	_, err := NewRegistry(b1, b2)
	require.Error(t, err)
}
