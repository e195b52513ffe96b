// Package config loads dtvault-central's TOML configuration file,
// applying defaults first and environment overrides last, the same
// precedence order the teacher's config.Loader documents as "ENV >
// File > Defaults" even though the file format and schema are entirely
// different here.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ServerConfig configures the HTTP listener the ingest/egress API
// binds to (spec §4.G).
type ServerConfig struct {
	Listen string `toml:"listen"`
}

// CatalogConfig configures the program/video catalog store (spec §3).
type CatalogConfig struct {
	SnapshotPath string `toml:"snapshot_path"`
}

// StorageConfig declares one mounted storage backend.
type StorageConfig struct {
	Label string `toml:"label"`
	Kind  string `toml:"kind"` // "filesystem" or "ephemeral"
	Root  string `toml:"root"` // filesystem root, or badger dir for a persistent ephemeral backend
}

// OutletConfig configures the outbound client used to reach the
// external encoder process (spec §4.F).
type OutletConfig struct {
	EncoderURL string `toml:"encoder_url"`
	// SelfBaseURL is this process's own externally-reachable base URL,
	// used to build the get_video source URL handed to the encoder.
	SelfBaseURL string `toml:"self_base_url"`
}

// IngestConfig bounds the rate at which create_video may open new
// backend writers, independent of the per-client rate limiting the RPC
// frontend applies at the HTTP layer.
type IngestConfig struct {
	MaxWritesPerSecond float64 `toml:"max_writes_per_second"`
	Burst              int     `toml:"burst"`
}

// RuleConfig is the TOML representation of one placement rule: a flat
// map of condition keys to raw string expressions, plus the label or
// prefix it selects.
type RuleConfig struct {
	Match   map[string]string `toml:"match"`
	Storage string            `toml:"storage,omitempty"`
	Prefix  string            `toml:"prefix,omitempty"`
}

// PlacementConfig configures the placement engine's rule set and
// defaults (spec §4.D).
type PlacementConfig struct {
	DefaultStorage string       `toml:"default_storage"`
	DefaultPrefix  string       `toml:"default_prefix"`
	StorageRules   []RuleConfig `toml:"storage_rule"`
	PrefixRules    []RuleConfig `toml:"prefix_rule"`
}

// AppConfig is the fully-resolved configuration for one
// dtvault-central process.
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Catalog   CatalogConfig   `toml:"catalog"`
	Storages  []StorageConfig `toml:"storage"`
	Outlet    OutletConfig    `toml:"outlet"`
	Placement PlacementConfig `toml:"placement"`
	Ingest    IngestConfig    `toml:"ingest"`
	LogLevel  string          `toml:"log_level"`
}

func defaults() AppConfig {
	return AppConfig{
		Server:   ServerConfig{Listen: ":8443"},
		Catalog:  CatalogConfig{SnapshotPath: "catalog.bin"},
		Ingest:   IngestConfig{MaxWritesPerSecond: 50, Burst: 10},
		LogLevel: "info",
	}
}

// Load applies defaults first, then the file at path (skipped when path
// is empty), then the optional DTVAULT_LISTEN and DTVAULT_LOG_LEVEL
// environment overrides, mirroring the teacher's
// defaults-then-file-then-env precedence order.
func Load(path string) (AppConfig, error) {
	cfg := defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	if listen, ok := os.LookupEnv("DTVAULT_LISTEN"); ok {
		cfg.Server.Listen = listen
	}
	if level, ok := os.LookupEnv("DTVAULT_LOG_LEVEL"); ok {
		cfg.LogLevel = level
	}

	if err := validate(cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func validate(cfg AppConfig) error {
	if cfg.Server.Listen == "" {
		return fmt.Errorf("config: server.listen must not be empty")
	}
	if cfg.Catalog.SnapshotPath == "" {
		return fmt.Errorf("config: catalog.snapshot_path must not be empty")
	}
	if cfg.Ingest.MaxWritesPerSecond <= 0 {
		return fmt.Errorf("config: ingest.max_writes_per_second must be positive")
	}
	if cfg.Ingest.Burst <= 0 {
		return fmt.Errorf("config: ingest.burst must be positive")
	}
	labels := make(map[string]struct{}, len(cfg.Storages))
	for _, s := range cfg.Storages {
		if s.Label == "" {
			return fmt.Errorf("config: storage entry missing label")
		}
		if _, dup := labels[s.Label]; dup {
			return fmt.Errorf("config: duplicate storage label %q", s.Label)
		}
		labels[s.Label] = struct{}{}
		switch s.Kind {
		case "filesystem":
			if s.Root == "" {
				return fmt.Errorf("config: storage %q: filesystem backend requires root", s.Label)
			}
		case "ephemeral":
		default:
			return fmt.Errorf("config: storage %q: unknown kind %q", s.Label, s.Kind)
		}
	}
	return nil
}
