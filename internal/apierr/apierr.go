// Package apierr classifies internal package errors (catalog, storage,
// placement, ingest) into a small set of API-facing kinds, the way the
// teacher's internal/api classifies ffmpeg/recordings errors into
// structured APIError codes before responding over HTTP.
package apierr

import (
	"errors"
	"net/http"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/ingest"
	"github.com/shibafu528/dtvault-central/internal/placement"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

// Kind is a transport-agnostic classification of a failure, modeled
// after the gRPC-style status kinds the original system used even
// though this transport speaks plain HTTP.
type Kind string

const (
	KindInvalidArgument   Kind = "INVALID_ARGUMENT"
	KindNotFound          Kind = "NOT_FOUND"
	KindAlreadyExists     Kind = "ALREADY_EXISTS"
	KindFailedPrecondition Kind = "FAILED_PRECONDITION"
	KindUnavailable       Kind = "UNAVAILABLE"
	KindAborted           Kind = "ABORTED"
	KindInternal          Kind = "INTERNAL"
)

// Classify maps a package-level sentinel error to a Kind. Unrecognized
// errors classify as KindInternal.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindInternal

	case errors.Is(err, catalog.ErrInvalidProgram),
		errors.Is(err, catalog.ErrInvalidVideo),
		errors.Is(err, storage.ErrInvalidFileName),
		errors.Is(err, ingest.ErrMissingField),
		errors.Is(err, ingest.ErrInvalidOffset):
		return KindInvalidArgument

	case errors.Is(err, catalog.ErrProgramNotFound),
		errors.Is(err, catalog.ErrVideoNotFound),
		errors.Is(err, storage.ErrNotFound):
		return KindNotFound

	case errors.Is(err, catalog.ErrVideoAlreadyExists):
		return KindAlreadyExists

	case errors.Is(err, catalog.ErrPoisoned):
		return KindFailedPrecondition

	case errors.Is(err, storage.ErrUnavailable),
		errors.Is(err, placement.ErrNoMatch):
		return KindUnavailable

	case errors.Is(err, storage.ErrAborted),
		errors.Is(err, storage.ErrAlreadyFinished):
		return KindAborted

	default:
		return KindInternal
	}
}

// HTTPStatus maps a Kind to the status code the API layer responds
// with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidArgument:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindFailedPrecondition:
		return http.StatusPreconditionFailed
	case KindUnavailable:
		return http.StatusServiceUnavailable
	case KindAborted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// APIError is the structured error response body the API layer sends,
// grounded on the teacher's api.APIError shape.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// New builds an APIError from err, classifying it and using err's own
// message as the human-readable text.
func New(err error, requestID string) (*APIError, int) {
	kind := Classify(err)
	return &APIError{
		Code:      string(kind),
		Message:   err.Error(),
		RequestID: requestID,
	}, kind.HTTPStatus()
}
