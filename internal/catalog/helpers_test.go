package catalog

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
)

func discardLogger(t *testing.T) zerolog.Logger {
	t.Helper()
	return zerolog.New(io.Discard)
}
