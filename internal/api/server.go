// Package api is the thin, mechanical RPC frontend (spec §4.G): it
// unpacks requests, runs field-level validators, delegates to the
// catalog/ingest packages, and maps domain errors to the wire error
// taxonomy via internal/apierr. Grounded on the teacher's
// internal/api chi server, generalized from HTTP-serving a playlist to
// HTTP-serving the program/video-storage RPC surface described in
// spec §6.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/shibafu528/dtvault-central/internal/catalog"
	"github.com/shibafu528/dtvault-central/internal/events"
	"github.com/shibafu528/dtvault-central/internal/ingest"
	"github.com/shibafu528/dtvault-central/internal/log"
	"github.com/shibafu528/dtvault-central/internal/placement"
	"github.com/shibafu528/dtvault-central/internal/storage"
)

// Server holds every dependency the RPC handlers need.
type Server struct {
	Catalog      *catalog.Store
	Registry     *storage.Registry
	Placement    placement.Config
	Events       *events.Pipeline
	WriteLimiter *rate.Limiter
}

func (s *Server) ingestDeps() ingest.Deps {
	return ingest.Deps{
		Catalog:      s.Catalog,
		Registry:     s.Registry,
		Placement:    s.Placement,
		WriteLimiter: s.WriteLimiter,
	}
}

// Routes builds the full router: /healthz, /metrics, and the program and
// video-storage services' HTTP surface. Every route is wrapped in an otelhttp span,
// the same instrumentation the teacher wraps its own chi router in; event
// deliveries run on the pipeline's own context and are not part of the
// request's trace.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(log.Middleware())

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1/programs", func(r chi.Router) {
		r.Post("/", s.handleCreateProgram)
		r.Get("/", s.handleListPrograms)
		r.Route("/{network_id}/{service_id}/{event_id}", func(r chi.Router) {
			r.Get("/", s.handleGetProgram)
			r.Get("/videos", s.handleListVideosByProgram)
			r.Get("/metadata/{key}", s.handleGetProgramMetadata)
			r.Put("/metadata/{key}", s.handleUpdateProgramMetadata)
		})
	})

	r.Route("/v1/videos", func(r chi.Router) {
		videoRate := httprate.Limit(
			60, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
		)
		r.With(videoRate).Post("/", s.handleCreateVideo)
		r.With(videoRate).Get("/{video_id}", s.handleGetVideo)
	})

	return otelhttp.NewHandler(r, "dtvault-central")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
