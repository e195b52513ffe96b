package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	xglog "github.com/shibafu528/dtvault-central/internal/log"
)

// Store is the in-memory, indexed program/video catalog. It enforces a
// single-writer discipline (every mutation holds the full write lock)
// and persists a full snapshot synchronously after every committed
// mutation, so a successful call has already reached durable storage
// before it returns (spec §3, §4.C).
//
// Mutations clone the record(s) they touch, apply the change to the
// clone, and only swap the clone into the live indexes after the
// snapshot write to path has succeeded -- a failed persist leaves the
// catalog exactly as it was.
type Store struct {
	mu sync.RWMutex

	path string

	programs map[string]*Program // by Program.ID
	index    map[string]string   // ProgramKey.String() -> Program.ID

	videos          map[string]*Video // by Video.ID
	videoByProvider map[string]string // ProgramID + "\x00" + ProviderID -> Video.ID

	poisoned bool
	log      zerolog.Logger
}

// Open loads path (if it exists) and returns a ready Store. A missing
// file yields an empty catalog.
func Open(path string) (*Store, error) {
	snap, err := loadSnapshot(path)
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:            path,
		programs:        make(map[string]*Program, len(snap.programs)),
		index:           make(map[string]string, len(snap.programs)),
		videos:          make(map[string]*Video, len(snap.videos)),
		videoByProvider: make(map[string]string, len(snap.videos)),
		log:             xglog.WithComponent("catalog.store"),
	}
	for _, p := range snap.programs {
		s.programs[p.ID] = p
		s.index[p.Key().String()] = p.ID
	}
	for _, v := range snap.videos {
		s.videos[v.ID] = v
		if v.ProviderID != "" {
			s.videoByProvider[providerKey(v.ProgramID, v.ProviderID)] = v.ID
		}
	}
	return s, nil
}

func providerKey(programID, providerID string) string {
	return programID + "\x00" + providerID
}

// All returns every program currently in the catalog, ordered by
// ProgramKey (spec §3: start_at then the broadcast identifier triple).
func (s *Store) All() ([]*Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return nil, ErrPoisoned
	}

	out := make([]*Program, 0, len(s.programs))
	for _, p := range s.programs {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key().Less(out[j].Key())
	})
	return out, nil
}

// Find returns the program with the given composite key.
func (s *Store) Find(key ProgramKey) (*Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return nil, ErrPoisoned
	}
	id, ok := s.index[key.String()]
	if !ok {
		return nil, ErrProgramNotFound
	}
	return s.programs[id].clone(), nil
}

// FindByID returns the program with the given ID.
func (s *Store) FindByID(id string) (*Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return nil, ErrPoisoned
	}
	p, ok := s.programs[id]
	if !ok {
		return nil, ErrProgramNotFound
	}
	return p.clone(), nil
}

// FindVideo returns the video with the given ID.
func (s *Store) FindVideo(id string) (*Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return nil, ErrPoisoned
	}
	v, ok := s.videos[id]
	if !ok {
		return nil, ErrVideoNotFound
	}
	return v.clone(), nil
}

// FindVideos resolves a list of video IDs in the order given. A single
// unresolvable ID fails the whole call, mirroring the all-or-nothing
// semantics a caller building a playlist needs.
func (s *Store) FindVideos(ids []string) ([]*Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return nil, ErrPoisoned
	}
	out := make([]*Video, 0, len(ids))
	for _, id := range ids {
		v, ok := s.videos[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrVideoNotFound, id)
		}
		out = append(out, v.clone())
	}
	return out, nil
}

// withWriteLock runs fn under the write lock, poisoning the store if fn
// panics (spec §3: the store becomes unusable after an observed panic
// rather than risking a half-applied mutation).
func (s *Store) withWriteLock(fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poisoned {
		return ErrPoisoned
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			s.log.Error().Interface("panic", r).Msg("catalog store panicked while holding write lock, poisoning store")
			err = fmt.Errorf("%w: %v", ErrPoisoned, r)
		}
	}()

	return fn()
}

// snapshotLocked builds a full snapshot of the current catalog state.
// Caller must hold s.mu (read or write).
func (s *Store) snapshotLocked() snapshot {
	snap := snapshot{
		programs: make([]*Program, 0, len(s.programs)),
		videos:   make([]*Video, 0, len(s.videos)),
	}
	for _, p := range s.programs {
		snap.programs = append(snap.programs, p)
	}
	for _, v := range s.videos {
		snap.videos = append(snap.videos, v)
	}
	return snap
}

// FindOrCreate returns the existing program for key, or builds and
// persists a new one via build if none exists yet. build is only
// invoked when a new program must be created, so callers can defer
// expensive validation/ID assignment to the case that actually needs
// it.
func (s *Store) FindOrCreate(key ProgramKey, build func() (*Program, error)) (*Program, CreateOutcome, error) {
	var result *Program
	outcome := AlreadyExists

	err := s.withWriteLock(func() error {
		if id, ok := s.index[key.String()]; ok {
			result = s.programs[id].clone()
			return nil
		}

		p, err := build()
		if err != nil {
			return err
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		p.NetworkID, p.ServiceID, p.EventID = key.NetworkID, key.ServiceID, key.EventID
		p.StartAt = key.StartAt

		newPrograms := cloneProgramMap(s.programs)
		newPrograms[p.ID] = p
		newIndex := cloneStringMap(s.index)
		newIndex[key.String()] = p.ID

		snap := s.snapshotLocked()
		snap.programs = append(snap.programs, p)

		if err := saveSnapshot(s.path, snap); err != nil {
			return err
		}

		s.programs = newPrograms
		s.index = newIndex
		outcome = Created
		result = p.clone()
		return nil
	})
	if err != nil {
		return nil, AlreadyExists, err
	}
	return result, outcome, nil
}

// CreateVideo adds a new video owned by the program identified by key.
// providerID uniqueness is enforced per program (ErrVideoAlreadyExists).
func (s *Store) CreateVideo(key ProgramKey, candidate *Video) (*Video, error) {
	var result *Video

	err := s.withWriteLock(func() error {
		programID, ok := s.index[key.String()]
		if !ok {
			return ErrProgramNotFound
		}
		program := s.programs[programID]

		if candidate.ProviderID != "" {
			if _, exists := s.videoByProvider[providerKey(programID, candidate.ProviderID)]; exists {
				return ErrVideoAlreadyExists
			}
		}

		v := candidate.clone()
		if v.ID == "" {
			v.ID = uuid.NewString()
		}
		v.ProgramID = programID

		newProgram := program.clone()
		newProgram.VideoIDs = append(newProgram.VideoIDs, v.ID)

		newPrograms := cloneProgramMap(s.programs)
		newPrograms[programID] = newProgram

		newVideos := cloneVideoMap(s.videos)
		newVideos[v.ID] = v

		newVideoByProvider := cloneStringMap(s.videoByProvider)
		if v.ProviderID != "" {
			newVideoByProvider[providerKey(programID, v.ProviderID)] = v.ID
		}

		snap := s.snapshotLocked()
		for i, p := range snap.programs {
			if p.ID == programID {
				snap.programs[i] = newProgram
				break
			}
		}
		snap.videos = append(snap.videos, v)

		if err := saveSnapshot(s.path, snap); err != nil {
			return err
		}

		s.programs = newPrograms
		s.videos = newVideos
		s.videoByProvider = newVideoByProvider
		result = v.clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateProgramMetadata sets a single metadata entry on the program
// identified by key, validating the entry's size caps first.
func (s *Store) UpdateProgramMetadata(key ProgramKey, mkey, mvalue string) error {
	if err := ValidateMetadataEntry(mkey, mvalue); err != nil {
		return err
	}

	return s.withWriteLock(func() error {
		programID, ok := s.index[key.String()]
		if !ok {
			return ErrProgramNotFound
		}
		program := s.programs[programID]

		newProgram := program.clone()
		if newProgram.Metadata == nil {
			newProgram.Metadata = make(map[string]string, 1)
		}
		newProgram.Metadata[mkey] = mvalue

		newPrograms := cloneProgramMap(s.programs)
		newPrograms[programID] = newProgram

		snap := s.snapshotLocked()
		for i, p := range snap.programs {
			if p.ID == programID {
				snap.programs[i] = newProgram
				break
			}
		}

		if err := saveSnapshot(s.path, snap); err != nil {
			return err
		}
		s.programs = newPrograms
		return nil
	})
}

// UpdateVideoThumbnail sets the thumbnail bytes and MIME type produced
// by the encoder pipeline for videoID (spec §4.F).
func (s *Store) UpdateVideoThumbnail(videoID string, thumb []byte, mimeType string) error {
	return s.withWriteLock(func() error {
		video, ok := s.videos[videoID]
		if !ok {
			return ErrVideoNotFound
		}

		newVideo := video.clone()
		newVideo.ThumbnailBytes = append([]byte(nil), thumb...)
		newVideo.ThumbnailMimeType = mimeType

		newVideos := cloneVideoMap(s.videos)
		newVideos[videoID] = newVideo

		snap := s.snapshotLocked()
		for i, v := range snap.videos {
			if v.ID == videoID {
				snap.videos[i] = newVideo
				break
			}
		}

		if err := saveSnapshot(s.path, snap); err != nil {
			return err
		}
		s.videos = newVideos
		return nil
	})
}

func cloneProgramMap(m map[string]*Program) map[string]*Program {
	out := make(map[string]*Program, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneVideoMap(m map[string]*Video) map[string]*Video {
	out := make(map[string]*Video, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
