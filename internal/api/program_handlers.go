package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shibafu528/dtvault-central/internal/catalog"
)

// handleCreateProgram implements create_program: find_or_create by the
// request's broadcast identifier triple, validating identity and
// service fields before the catalog ever sees them.
func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var req CreateProgramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := catalog.ValidateProgramIdentity(req.NetworkID, req.ServiceID, req.EventID, !req.StartAt.IsZero()); err != nil {
		writeError(w, r, err)
		return
	}

	var service *catalog.Service
	if req.Service != nil {
		service = &catalog.Service{NetworkID: req.Service.NetworkID, ServiceID: req.Service.ServiceID, Name: req.Service.Name}
		if req.Service.Channel != nil {
			service.Channel = &catalog.Channel{
				Type:        catalog.ChannelType(req.Service.Channel.Type),
				ChannelCode: req.Service.Channel.ChannelCode,
				Name:        req.Service.Channel.Name,
			}
		}
	}
	if err := catalog.ValidateService(service); err != nil {
		writeError(w, r, err)
		return
	}

	key := catalog.ProgramKey{StartAt: req.StartAt, NetworkID: req.NetworkID, ServiceID: req.ServiceID, EventID: req.EventID}
	program, outcome, err := s.Catalog.FindOrCreate(key, func() (*catalog.Program, error) {
		p := &catalog.Program{
			Name:        req.Name,
			Description: req.Description,
			Duration:    time.Duration(req.DurationSec * float64(time.Second)),
			Service:     service,
		}
		for _, e := range req.Extended {
			p.Extended = append(p.Extended, catalog.ExtendedField{Key: e.Key, Value: e.Value})
		}
		return p, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if outcome == catalog.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, toProgramView(program))
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	key, err := parseProgramKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	program, err := s.Catalog.Find(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProgramView(program))
}

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.Catalog.All()
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]ProgramView, 0, len(programs))
	for _, p := range programs {
		views = append(views, toProgramView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetProgramMetadata(w http.ResponseWriter, r *http.Request) {
	key, err := parseProgramKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	program, err := s.Catalog.Find(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	mkey := chi.URLParam(r, "key")
	value, ok := program.Metadata[mkey]
	if !ok {
		writeError(w, r, ErrMetadataKeyNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": mkey, "value": value})
}

func (s *Server) handleUpdateProgramMetadata(w http.ResponseWriter, r *http.Request) {
	key, err := parseProgramKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	mkey := chi.URLParam(r, "key")

	var req UpdateProgramMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.Catalog.UpdateProgramMetadata(key, mkey, req.Value); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": mkey, "value": req.Value})
}

func (s *Server) handleListVideosByProgram(w http.ResponseWriter, r *http.Request) {
	key, err := parseProgramKey(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	program, err := s.Catalog.Find(key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	videos, err := s.Catalog.FindVideos(program.VideoIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	views := make([]VideoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, toVideoView(v))
	}
	writeJSON(w, http.StatusOK, views)
}
