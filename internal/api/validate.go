package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shibafu528/dtvault-central/internal/catalog"
)

// ErrInvalidProgramKey is returned when a request's path/query
// parameters do not describe a well-formed ProgramKey.
var ErrInvalidProgramKey = fmt.Errorf("%w: malformed program key", catalog.ErrInvalidProgram)

// parseProgramKey extracts the {network_id}/{service_id}/{event_id}
// path parameters plus the ?start_at= query parameter (RFC3339) into a
// catalog.ProgramKey.
func parseProgramKey(r *http.Request) (catalog.ProgramKey, error) {
	networkID, err := parseUint16(chi.URLParam(r, "network_id"))
	if err != nil {
		return catalog.ProgramKey{}, fmt.Errorf("%w: network_id: %v", ErrInvalidProgramKey, err)
	}
	serviceID, err := parseUint16(chi.URLParam(r, "service_id"))
	if err != nil {
		return catalog.ProgramKey{}, fmt.Errorf("%w: service_id: %v", ErrInvalidProgramKey, err)
	}
	eventID, err := parseUint16(chi.URLParam(r, "event_id"))
	if err != nil {
		return catalog.ProgramKey{}, fmt.Errorf("%w: event_id: %v", ErrInvalidProgramKey, err)
	}

	raw := r.URL.Query().Get("start_at")
	if raw == "" {
		return catalog.ProgramKey{}, fmt.Errorf("%w: start_at query parameter is required", ErrInvalidProgramKey)
	}
	startAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return catalog.ProgramKey{}, fmt.Errorf("%w: start_at: %v", ErrInvalidProgramKey, err)
	}

	return catalog.ProgramKey{
		StartAt:   startAt,
		NetworkID: networkID,
		ServiceID: serviceID,
		EventID:   eventID,
	}, nil
}

func parseUint16(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(n), nil
}
