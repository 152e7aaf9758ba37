// Package httpapi implements the REST surface (spec.md §6.1) over
// go-chi/chi/v5, the same mux-not-framework choice the teacher's
// dependency pack uses for internal HTTP routing.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/anyvario/anyvar/internal/anyvar"
	"github.com/anyvario/anyvar/internal/jobqueue"
)

// Server wires the AnyVar façade and, optionally, an async job broker
// into an HTTP handler.
type Server struct {
	av     *anyvar.AnyVar
	broker jobqueue.Broker
	logger *zap.SugaredLogger
	workDir string
	vcfWorkers int
	failureStatus int
}

// Option configures a Server.
type Option func(*Server)

// WithBroker enables the async /vcf?enable_async=true path.
func WithBroker(b jobqueue.Broker) Option {
	return func(s *Server) { s.broker = b }
}

// WithLogger sets the request/lifecycle logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Server) { s.logger = l }
}

// WithWorkDir sets the shared directory uploaded VCFs and outputs live
// in (spec.md §6.4's persisted state layout).
func WithWorkDir(dir string) Option {
	return func(s *Server) { s.workDir = dir }
}

// WithVCFWorkers sets the per-request translate/register concurrency
// used by the synchronous (non-async) /vcf path.
func WithVCFWorkers(n int) Option {
	return func(s *Server) { s.vcfWorkers = n }
}

// WithFailedStatusCode sets the HTTP status returned when polling a
// FAILED run (spec.md §6.1: "configured-code failed").
func WithFailedStatusCode(code int) Option {
	return func(s *Server) { s.failureStatus = code }
}

// NewServer returns a Server backed by av.
func NewServer(av *anyvar.AnyVar, opts ...Option) *Server {
	s := &Server{av: av, vcfWorkers: 0, failureStatus: http.StatusInternalServerError}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop().Sugar()
	}
	return s
}

// Router builds the chi router for this server (spec.md §6.1's
// representative HTTP surface).
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/service-info", s.handleServiceInfo)

	r.Put("/variation", s.handleRegisterVariation)
	r.Get("/variation/{id}", s.handleGetVariation)
	r.Put("/variation/{id}/mappings", s.handlePutMapping)
	r.Get("/variation/{id}/mappings/{type}", s.handleListMappings)
	r.Post("/variation/{id}/annotations", s.handlePutAnnotation)
	r.Get("/variation/{id}/annotations", s.handleListAnnotations)
	r.Get("/variation/{id}/annotations/{type}", s.handleListAnnotations)

	r.Get("/search", s.handleSearch)

	r.Put("/vcf", s.handlePutVCF)
	r.Get("/vcf/{run_id}", s.handleGetVCF)

	return r
}
