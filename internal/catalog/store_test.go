package catalog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testKey() ProgramKey {
	return ProgramKey{
		StartAt:   time.Date(2026, 7, 31, 21, 0, 0, 0, time.UTC),
		NetworkID: 1,
		ServiceID: 2,
		EventID:   3,
	}
}

func TestStore_FindOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bin")
	s, err := Open(path)
	require.NoError(t, err)

	key := testKey()
	built := false
	p1, outcome, err := s.FindOrCreate(key, func() (*Program, error) {
		built = true
		return &Program{Name: "news"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, Created, outcome)
	require.True(t, built)
	require.NotEmpty(t, p1.ID)

	built = false
	p2, outcome, err := s.FindOrCreate(key, func() (*Program, error) {
		built = true
		return &Program{Name: "should not be used"}, nil
	})
	require.NoError(t, err)
	require.Equal(t, AlreadyExists, outcome)
	require.False(t, built)
	require.Equal(t, p1.ID, p2.ID)
}

func TestStore_CreateVideoEnforcesProviderUniqueness(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bin")
	s, err := Open(path)
	require.NoError(t, err)

	key := testKey()
	_, _, err = s.FindOrCreate(key, func() (*Program, error) {
		return &Program{Name: "news"}, nil
	})
	require.NoError(t, err)

	v1, err := s.CreateVideo(key, &Video{ProviderID: "p-1", FileName: "a.ts"})
	require.NoError(t, err)
	require.NotEmpty(t, v1.ID)

	_, err = s.CreateVideo(key, &Video{ProviderID: "p-1", FileName: "b.ts"})
	require.ErrorIs(t, err, ErrVideoAlreadyExists)

	prog, err := s.Find(key)
	require.NoError(t, err)
	require.Equal(t, []string{v1.ID}, prog.VideoIDs)
}

func TestStore_CreateVideoRejectsMissingProgram(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bin")
	s, err := Open(path)
	require.NoError(t, err)

	_, err = s.CreateVideo(testKey(), &Video{FileName: "a.ts"})
	require.ErrorIs(t, err, ErrProgramNotFound)
}

func TestStore_UpdateProgramMetadataPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bin")
	s, err := Open(path)
	require.NoError(t, err)
	key := testKey()
	_, _, err = s.FindOrCreate(key, func() (*Program, error) { return &Program{Name: "news"}, nil })
	require.NoError(t, err)

	require.NoError(t, s.UpdateProgramMetadata(key, "genre", "documentary"))

	reopened, err := Open(path)
	require.NoError(t, err)
	p, err := reopened.Find(key)
	require.NoError(t, err)
	require.Equal(t, "documentary", p.Metadata["genre"])
}

func TestStore_UpdateVideoThumbnail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bin")
	s, err := Open(path)
	require.NoError(t, err)
	key := testKey()
	_, _, err = s.FindOrCreate(key, func() (*Program, error) { return &Program{Name: "news"}, nil })
	require.NoError(t, err)
	v, err := s.CreateVideo(key, &Video{FileName: "a.ts"})
	require.NoError(t, err)

	require.NoError(t, s.UpdateVideoThumbnail(v.ID, []byte{0xFF, 0xD8}, "image/jpeg"))

	got, err := s.FindVideo(v.ID)
	require.NoError(t, err)
	require.Equal(t, []byte{0xFF, 0xD8}, got.ThumbnailBytes)
	require.Equal(t, "image/jpeg", got.ThumbnailMimeType)
}

func TestStore_AllIsSortedByKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bin")
	s, err := Open(path)
	require.NoError(t, err)

	later := testKey()
	earlier := testKey()
	earlier.StartAt = earlier.StartAt.Add(-time.Hour)

	_, _, err = s.FindOrCreate(later, func() (*Program, error) { return &Program{Name: "later"}, nil })
	require.NoError(t, err)
	_, _, err = s.FindOrCreate(earlier, func() (*Program, error) { return &Program{Name: "earlier"}, nil })
	require.NoError(t, err)

	all, err := s.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "earlier", all[0].Name)
	require.Equal(t, "later", all[1].Name)
}

func TestStore_FindVideosFailsOnAnyMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.bin")
	s, err := Open(path)
	require.NoError(t, err)
	key := testKey()
	_, _, err = s.FindOrCreate(key, func() (*Program, error) { return &Program{Name: "news"}, nil })
	require.NoError(t, err)
	v, err := s.CreateVideo(key, &Video{FileName: "a.ts"})
	require.NoError(t, err)

	_, err = s.FindVideos([]string{v.ID, "missing"})
	require.ErrorIs(t, err, ErrVideoNotFound)
}
