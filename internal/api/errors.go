package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shibafu528/dtvault-central/internal/apierr"
	"github.com/shibafu528/dtvault-central/internal/log"
)

// ErrMetadataKeyNotFound is returned by get_program_metadata when the
// requested key is absent from the program's metadata map.
var ErrMetadataKeyNotFound = errors.New("api: metadata key not found")

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := log.RequestIDFromContext(r.Context())

	var kind apierr.Kind
	switch {
	case errors.Is(err, ErrMetadataKeyNotFound):
		kind = apierr.KindNotFound
	default:
		kind = apierr.Classify(err)
	}

	apiErr := apierr.APIError{
		Code:      string(kind),
		Message:   err.Error(),
		RequestID: reqID,
	}

	log.FromContext(r.Context()).Warn().Err(err).Str("code", apiErr.Code).Msg("request failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(kind.HTTPStatus())
	_ = json.NewEncoder(w).Encode(apiErr)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
