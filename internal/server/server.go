// Package server exposes advise runs over HTTP.
//
// Routes:
//
//	POST   /v1/advise       run synchronously, store the report, return it
//	GET    /v1/advise/{id}  fetch a stored report
//	DELETE /v1/advise/{id}  drop a stored report
//	GET    /healthz         liveness and build version
//	GET    /metrics         Prometheus exposition
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/stackadvisor/pkg/advise"
	"github.com/matzehuels/stackadvisor/pkg/errors"
	"github.com/matzehuels/stackadvisor/pkg/store"
)

// Defaults for [Options].
const (
	DefaultMaxBodyBytes = 1 << 20
	DefaultMaxTimeLimit = 2 * time.Minute
)

// Options configures a [Server].
type Options struct {
	// MaxBodyBytes bounds request bodies.
	MaxBodyBytes int64
	// MaxTimeLimit caps the per-run time limit clients may ask for; runs
	// without one get this limit.
	MaxTimeLimit time.Duration
	// TTL is how long reports are kept.
	TTL time.Duration
	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
}

func (o Options) withDefaults() Options {
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.MaxTimeLimit <= 0 {
		o.MaxTimeLimit = DefaultMaxTimeLimit
	}
	if o.TTL <= 0 {
		o.TTL = store.DefaultTTL
	}
	if o.MetricsHandler == nil {
		o.MetricsHandler = promhttp.Handler()
	}
	return o
}

// Server handles advise API requests.
type Server struct {
	runner *advise.Runner
	store  store.Store
	logger *log.Logger
	opts   Options
	router chi.Router
}

// New creates a server running advise requests with runner and keeping
// reports in st.
func New(runner *advise.Runner, st store.Store, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  st,
		logger: logger,
		opts:   opts.withDefaults(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(tracing("stackadvisor.http"))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.opts.MetricsHandler)

	r.Route("/v1/advise", func(r chi.Router) {
		r.Post("/", s.handleAdvise)
		r.Get("/{id}", s.handleGetReport)
		r.Delete("/{id}", s.handleDeleteReport)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(err)
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}
