package placement

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/condition"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

func mustCondition(t *testing.T, raw map[string]string) *condition.Condition {
	t.Helper()
	c, err := condition.New(raw)
	require.NoError(t, err)
	return c
}

func TestDecide_FirstMatchingRuleWins(t *testing.T) {
	archival, err := storage.NewEphemeralBackend("", "archival")
	require.NoError(t, err)
	defer archival.Close()
	scratch, err := storage.NewEphemeralBackend("", "scratch")
	require.NoError(t, err)
	defer scratch.Close()

	reg, err := storage.NewRegistry(archival, scratch)
	require.NoError(t, err)

	cfg := Config{
		StorageRules: []StorageRule{
			{Condition: mustCondition(t, map[string]string{"channel_type": "Sky"}), StorageLabel: "archival"},
			{Condition: mustCondition(t, map[string]string{"channel_type": "Sky"}), StorageLabel: "scratch"},
		},
		DefaultStorage: "scratch",
		PrefixRules: []PrefixRule{
			{Condition: mustCondition(t, map[string]string{"channel_type": "Sky"}), Prefix: "sky"},
			{Condition: mustCondition(t, map[string]string{"channel_type": "Sky"}), Prefix: "sky-late"},
		},
		DefaultPrefix: "misc",
	}

	program := &catalog.Program{
		Service: &catalog.Service{Channel: &catalog.Channel{Type: catalog.ChannelSky}},
	}
	decision, err := Decide(cfg, reg, program, &catalog.Video{})
	require.NoError(t, err)
	require.Equal(t, "archival", decision.Backend.Label())
	require.Equal(t, "sky", decision.Prefix)
}

func TestDecide_FallsBackToDefault(t *testing.T) {
	scratch, err := storage.NewEphemeralBackend("", "scratch")
	require.NoError(t, err)
	defer scratch.Close()
	reg, err := storage.NewRegistry(scratch)
	require.NoError(t, err)

	cfg := Config{DefaultStorage: "scratch", DefaultPrefix: "misc"}
	decision, err := Decide(cfg, reg, &catalog.Program{}, &catalog.Video{})
	require.NoError(t, err)
	require.Equal(t, "scratch", decision.Backend.Label())
	require.Equal(t, "misc", decision.Prefix)
}

func TestDecide_NoMatchAndNoDefault(t *testing.T) {
	reg, err := storage.NewRegistry()
	require.NoError(t, err)
	_, err = Decide(Config{}, reg, &catalog.Program{}, &catalog.Video{})
	require.ErrorIs(t, err, ErrNoMatch)
}

func TestDecide_UnknownLabelIsError(t *testing.T) {
	reg, err := storage.NewRegistry()
	require.NoError(t, err)
	cfg := Config{DefaultStorage: "does-not-exist"}
	_, err = Decide(cfg, reg, &catalog.Program{}, &catalog.Video{})
	require.Error(t, err)
}

func TestDecide_ResolvesFilesystemBackend(t *testing.T) {
	root := t.TempDir()
	fs, err := storage.NewFilesystemBackend(root, "primary")
	require.NoError(t, err)
	reg, err := storage.NewRegistry(fs)
	require.NoError(t, err)

	cfg := Config{DefaultStorage: "primary"}
	decision, err := Decide(cfg, reg, &catalog.Program{}, &catalog.Video{})
	require.NoError(t, err)
	require.Equal(t, "primary", decision.Backend.Label())
}
