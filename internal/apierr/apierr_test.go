package apierr

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{catalog.ErrProgramNotFound, KindNotFound},
		{catalog.ErrVideoAlreadyExists, KindAlreadyExists},
		{catalog.ErrPoisoned, KindFailedPrecondition},
		{catalog.ErrInvalidProgram, KindInvalidArgument},
		{storage.ErrUnavailable, KindUnavailable},
		{storage.ErrNotFound, KindNotFound},
		{storage.ErrAborted, KindAborted},
		{nil, KindInternal},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Classify(tc.err))
	}
}

func TestKindHTTPStatus(t *testing.T) {
	require.Equal(t, http.StatusNotFound, KindNotFound.HTTPStatus())
	require.Equal(t, http.StatusConflict, KindAlreadyExists.HTTPStatus())
	require.Equal(t, http.StatusInternalServerError, Kind("unknown").HTTPStatus())
}

func TestNew(t *testing.T) {
	apiErr, status := New(catalog.ErrProgramNotFound, "req-1")
	require.Equal(t, "NOT_FOUND", apiErr.Code)
	require.Equal(t, "req-1", apiErr.RequestID)
	require.Equal(t, http.StatusNotFound, status)
}
