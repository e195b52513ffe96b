package api

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shibafu528/dtvault-central/internal/events"
	"github.com/shibafu528/dtvault-central/internal/ingest"
	"github.com/shibafu528/dtvault-central/internal/log"
	"github.com/shibafu528/dtvault-central/internal/rpcproto"
)

// handleCreateVideo implements create_video (spec §4.E): the request
// body is a chunked rpcproto stream whose first frame is the header and
// whose remaining frames are datagrams. The response is a single JSON
// document describing the committed video -- unary, not streamed.
func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	body := bufio.NewReader(r.Body)

	frame, err := rpcproto.ReadFrame(body)
	if err != nil {
		writeError(w, r, fmt.Errorf("api: read create_video header: %w", err))
		return
	}
	if frame.Type != rpcproto.FrameHeader {
		writeError(w, r, fmt.Errorf("api: create_video stream must open with a header frame"))
		return
	}

	var header ingest.CreateVideoHeader
	if err := json.Unmarshal(frame.Header, &header); err != nil {
		writeError(w, r, fmt.Errorf("api: decode create_video header: %w", err))
		return
	}

	view, err := ingest.CreateVideo(r.Context(), s.ingestDeps(), header, body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if s.Events != nil {
		if err := s.Events.Publish(r.Context(), events.VideoCreated{ProgramID: view.ProgramID, VideoID: view.ID}); err != nil {
			log.FromContext(r.Context()).Warn().Err(err).Str("video_id", view.ID).Msg("failed to enqueue video_created event")
		}
	}

	writeJSON(w, http.StatusCreated, view)
}

// handleGetVideo implements get_video (spec §4.E): responds with a
// chunked rpcproto stream, one header frame followed by datagram
// frames up to rpcproto.MaxDatagramBytes each.
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "video_id")

	w.Header().Set("Content-Type", "application/vnd.dtvault.rpcproto")
	fw := &flushWriter{w: w}

	if err := ingest.GetVideo(r.Context(), s.ingestDeps(), videoID, fw); err != nil {
		if !fw.wrote {
			writeError(w, r, err)
			return
		}
		log.FromContext(r.Context()).Error().Err(err).Str("video_id", videoID).Msg("get_video stream aborted mid-transfer")
		return
	}
}

// flushWriter flushes after every write so the streamed datagrams reach
// the client promptly instead of waiting on Go's default output
// buffering, the same reasoning the teacher's direct-playback handler
// applies when serving a live remux.
type flushWriter struct {
	w     http.ResponseWriter
	wrote bool
}

func (f *flushWriter) Write(p []byte) (int, error) {
	f.wrote = true
	n, err := f.w.Write(p)
	if flusher, ok := f.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return n, err
}
