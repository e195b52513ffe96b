package encoderclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateThumbnail_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte{0xFF, 0xD8, 0xFF})
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	result, err := c.GenerateThumbnail(context.Background(), ThumbnailRequest{VideoID: "v1", SourceURL: "http://example/v1"})
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", result.MimeType)
	require.Equal(t, []byte{0xFF, 0xD8, 0xFF}, result.JPEGBytes)
}

func TestGenerateThumbnail_RetriesOnceThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte{1, 2, 3})
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	result, err := c.GenerateThumbnail(context.Background(), ThumbnailRequest{VideoID: "v1"})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, result.JPEGBytes)
	require.EqualValues(t, 2, attempts.Load())
}

func TestGenerateThumbnail_ExhaustsBoundedRetry(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	_, err := c.GenerateThumbnail(context.Background(), ThumbnailRequest{VideoID: "v1"})
	require.Error(t, err)
	require.EqualValues(t, 2, attempts.Load()) // defaultRetries=1 => 2 attempts total
}

func TestGenerateThumbnail_RejectsClientError(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, srv.Client())
	_, err := c.GenerateThumbnail(context.Background(), ThumbnailRequest{VideoID: "v1"})
	require.Error(t, err)
	require.EqualValues(t, 1, attempts.Load()) // 4xx is not retried
}

func TestGenerateThumbnail_RespectsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	c := New(srv.URL, srv.Client(), WithRetries(5))
	_, err := c.GenerateThumbnail(ctx, ThumbnailRequest{VideoID: "v1"})
	require.Error(t, err)
}
