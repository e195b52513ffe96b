package config

import (
	"fmt"

	"golang.org/x/time/rate"

	"github.com/shibafu528/dtvault-central/internal/condition"
	"github.com/shibafu528/dtvault-central/internal/placement"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

// BuildBackends mounts one storage.Backend per configured entry.
func BuildBackends(cfgs []StorageConfig) ([]storage.Backend, error) {
	backends := make([]storage.Backend, 0, len(cfgs))
	for _, c := range cfgs {
		switch c.Kind {
		case "filesystem":
			b, err := storage.NewFilesystemBackend(c.Root, c.Label)
			if err != nil {
				return nil, fmt.Errorf("config: mount storage %q: %w", c.Label, err)
			}
			backends = append(backends, b)
		case "ephemeral":
			b, err := storage.NewEphemeralBackend(c.Root, c.Label)
			if err != nil {
				return nil, fmt.Errorf("config: mount storage %q: %w", c.Label, err)
			}
			backends = append(backends, b)
		default:
			return nil, fmt.Errorf("config: storage %q: unknown kind %q", c.Label, c.Kind)
		}
	}
	return backends, nil
}

// BuildPlacement translates the TOML rule config into a placement.Config,
// compiling every condition.Condition up front so a malformed rule fails
// at startup rather than at first use.
func BuildPlacement(cfg PlacementConfig) (placement.Config, error) {
	out := placement.Config{
		DefaultStorage: cfg.DefaultStorage,
		DefaultPrefix:  cfg.DefaultPrefix,
	}
	for i, r := range cfg.StorageRules {
		cond, err := condition.New(r.Match)
		if err != nil {
			return placement.Config{}, fmt.Errorf("config: placement.storage_rule[%d]: %w", i, err)
		}
		if r.Storage == "" {
			return placement.Config{}, fmt.Errorf("config: placement.storage_rule[%d]: storage must not be empty", i)
		}
		out.StorageRules = append(out.StorageRules, placement.StorageRule{Condition: cond, StorageLabel: r.Storage})
	}
	for i, r := range cfg.PrefixRules {
		cond, err := condition.New(r.Match)
		if err != nil {
			return placement.Config{}, fmt.Errorf("config: placement.prefix_rule[%d]: %w", i, err)
		}
		out.PrefixRules = append(out.PrefixRules, placement.PrefixRule{Condition: cond, Prefix: r.Prefix})
	}
	return out, nil
}

// BuildWriteLimiter builds the token-bucket limiter create_video waits
// on before opening a backend writer, bounding how fast new writers can
// be acquired independent of the per-client HTTP rate limit.
func BuildWriteLimiter(cfg IngestConfig) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(cfg.MaxWritesPerSecond), cfg.Burst)
}
