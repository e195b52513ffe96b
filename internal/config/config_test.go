package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8443", cfg.Server.Listen)
	require.Equal(t, "catalog.bin", cfg.Catalog.SnapshotPath)
	require.Equal(t, 50.0, cfg.Ingest.MaxWritesPerSecond)
	require.Equal(t, 10, cfg.Ingest.Burst)
}

func TestLoad_RejectsNonPositiveIngestRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[ingest]
max_writes_per_second = 0
burst = 10
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[server]
listen = ":9000"

[catalog]
snapshot_path = "/var/lib/dtvault/catalog.bin"

[[storage]]
label = "primary"
kind = "filesystem"
root = "/var/lib/dtvault/storage"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Listen)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Len(t, cfg.Storages, 1)
	require.Equal(t, "primary", cfg.Storages[0].Label)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
listen = ":9000"
`), 0o644))

	t.Setenv("DTVAULT_LISTEN", ":9999")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Server.Listen)
}

func TestLoad_RejectsDuplicateStorageLabel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[storage]]
label = "a"
kind = "ephemeral"

[[storage]]
label = "a"
kind = "ephemeral"
`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestBuildPlacement(t *testing.T) {
	cfg := PlacementConfig{
		DefaultStorage: "scratch",
		StorageRules: []RuleConfig{
			{Match: map[string]string{"channel_type": "Sky"}, Storage: "archival"},
		},
	}
	built, err := BuildPlacement(cfg)
	require.NoError(t, err)
	require.Len(t, built.StorageRules, 1)
	require.Equal(t, "archival", built.StorageRules[0].StorageLabel)
}

func TestBuildPlacement_RejectsBadCondition(t *testing.T) {
	cfg := PlacementConfig{
		StorageRules: []RuleConfig{
			{Match: map[string]string{"no_such_key": "x"}, Storage: "a"},
		},
	}
	_, err := BuildPlacement(cfg)
	require.Error(t, err)
}

func TestBuildBackends(t *testing.T) {
	backends, err := BuildBackends([]StorageConfig{
		{Label: "scratch", Kind: "ephemeral"},
		{Label: "primary", Kind: "filesystem", Root: t.TempDir()},
	})
	require.NoError(t, err)
	require.Len(t, backends, 2)
}

func TestBuildWriteLimiter_AllowsBurstThenThrottles(t *testing.T) {
	limiter := BuildWriteLimiter(IngestConfig{MaxWritesPerSecond: 1, Burst: 2})
	require.True(t, limiter.Allow())
	require.True(t, limiter.Allow())
	require.False(t, limiter.Allow())
}
