package api

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/placement"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.bin"))
	require.NoError(t, err)

	backend, err := storage.NewEphemeralBackend("", "primary")
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	reg, err := storage.NewRegistry(backend)
	require.NoError(t, err)

	return &Server{
		Catalog:   store,
		Registry:  reg,
		Placement: placement.Config{DefaultStorage: "primary"},
	}
}
