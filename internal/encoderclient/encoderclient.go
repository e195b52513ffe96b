// Package encoderclient is the outbound client dtvault-central uses to
// ask the external encoder process to produce a thumbnail for a newly
// ingested video. The retry/backoff shape is grounded on the teacher's
// Enigma2 client (internal/pipeline/exec/enigma2): a small bounded
// retry count with exponential backoff plus jitter, rather than a
// library-managed retry policy.
package encoderclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/shibafu528/dtvault-central/internal/log"
)

const (
	defaultRetries   = 1 // one bounded retry, per the single-retry rule supplemented from the original implementation
	defaultBackoff   = 500 * time.Millisecond
	thumbnailWidth   = 854
	thumbnailHeight  = 480
	thumbnailSeekPos = 30 * time.Second
)

// ThumbnailRequest describes the source video the encoder should pull a
// frame from.
type ThumbnailRequest struct {
	VideoID  string
	SourceURL string // where the encoder can stream the source bytes from
}

// ThumbnailResult is the encoder's JPEG output.
type ThumbnailResult struct {
	JPEGBytes []byte
	MimeType  string
}

// Client calls the external encoder's thumbnail endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int
	backoff    time.Duration
	rnd        *rand.Rand
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRetries overrides the default bounded retry count.
func WithRetries(n int) Option {
	return func(c *Client) { c.retries = n }
}

// New builds a Client targeting baseURL (the encoder's outlet
// endpoint, spec §4.F).
func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		retries:    defaultRetries,
		backoff:    defaultBackoff,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // jitter only
		log:        xglog.WithComponent("encoderclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateThumbnail asks the encoder for a JPEG thumbnail at 854x480,
// seeking 30s into the source, retrying once on a transport or 5xx
// failure.
func (c *Client) GenerateThumbnail(ctx context.Context, req ThumbnailRequest) (*ThumbnailResult, error) {
	var lastErr error
	maxAttempts := c.retries + 1

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := c.doRequest(ctx, req)
		if err == nil {
			return result, nil
		}
		lastErr = err

		var nonRetryable *nonRetryableError
		if errors.As(err, &nonRetryable) {
			return nil, err
		}

		if attempt < maxAttempts {
			c.log.Warn().Err(err).Int("attempt", attempt).Str("video_id", req.VideoID).Msg("encoder thumbnail request failed, retrying")
			wait := c.backoffFor(attempt)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("encoderclient: thumbnail request failed after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) backoffFor(attempt int) time.Duration {
	wait := c.backoff * time.Duration(1<<uint(attempt-1))
	jitter := time.Duration(c.rnd.Int63n(int64(wait/5 + 1)))
	return wait + jitter
}

func (c *Client) doRequest(ctx context.Context, req ThumbnailRequest) (*ThumbnailResult, error) {
	body := thumbnailRequestBody{
		VideoID:   req.VideoID,
		SourceURL: req.SourceURL,
		Width:     thumbnailWidth,
		Height:    thumbnailHeight,
		SeekSecs:  int(thumbnailSeekPos.Seconds()),
	}
	payload, err := encodeThumbnailRequest(body)
	if err != nil {
		return nil, fmt.Errorf("encode thumbnail request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/thumbnails", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("encoder request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("encoder returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &nonRetryableError{msg: fmt.Sprintf("encoder rejected request: status %d: %s", resp.StatusCode, string(data))}
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}

	limit := int64(16 << 20) // 16 MiB
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil && n < limit {
			limit = n
		}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read thumbnail body: %w", err)
	}

	return &ThumbnailResult{JPEGBytes: data, MimeType: mime}, nil
}

// nonRetryableError marks a failure the client's attempt loop must not
// retry -- a 4xx response means the request itself was malformed, and
// retrying an identical request would just fail identically.
type nonRetryableError struct{ msg string }

func (e *nonRetryableError) Error() string { return e.msg }
