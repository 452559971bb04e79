// Package server provides the HTTP API over the resume pipeline.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/resume-tools/internal/db"
	"github.com/jonathan/resume-tools/internal/pipeline"
	"github.com/jonathan/resume-tools/internal/server/ratelimit"
)

// maxRequestBytes caps request bodies. Resumes and job descriptions are plain text.
const maxRequestBytes = 2 << 20

// RunStore reads recorded runs. *db.DB implements it.
type RunStore interface {
	GetRun(ctx context.Context, runID uuid.UUID) (*db.Run, error)
	ListArtifacts(ctx context.Context, runID uuid.UUID) ([]db.Artifact, error)
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
}

// Config holds server configuration
type Config struct {
	Port           int
	RateLimit      float64
	RateBurst      int
	MaxConcurrent  int64
	AllowedOrigins []string
}

// Server represents the HTTP server
type Server struct {
	httpServer     *http.Server
	pipeline       *pipeline.Pipeline
	runs           RunStore
	rateLimiter    *ratelimit.Limiter
	sem            *semaphore.Weighted
	metrics        *Metrics
	validator      *validator.Validate
	logger         *zap.Logger
	allowedOrigins []string
}

// Option configures a Server.
type Option func(*Server)

// WithRunStore enables the run history endpoints.
func WithRunStore(store RunStore) Option {
	return func(s *Server) { s.runs = store }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics replaces the default metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a new server instance
func New(cfg Config, p *pipeline.Pipeline, opts ...Option) (*Server, error) {
	if p == nil {
		return nil, errors.New("server requires a pipeline")
	}
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}

	s := &Server{
		pipeline:       p,
		rateLimiter:    ratelimit.NewLimiter(ratelimit.DefaultConfig(cfg.RateLimit, cfg.RateBurst)),
		sem:            semaphore.NewWeighted(cfg.MaxConcurrent),
		validator:      newValidator(),
		logger:         zap.NewNop(),
		allowedOrigins: cfg.AllowedOrigins,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /customize-resume", s.handleCustomizeResume)
	mux.HandleFunc("POST /customize-resume/stream", s.handleCustomizeResumeStream)
	mux.HandleFunc("POST /cover-letter", s.handleCoverLetter)
	mux.HandleFunc("POST /job-match", s.handleJobMatch)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())

	if s.runs != nil {
		mux.HandleFunc("GET /runs", s.handleListRuns)
		mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withMetrics(s.withRateLimit(s.withLogging(s.withCORS(mux)))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case slices.Contains(s.allowedOrigins, "*"):
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(s.allowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects clients that exceed their token bucket
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := s.rateLimiter.Allow(s.extractClientID(r), r.URL.Path)
		s.setRateLimitHeaders(w, info)
		if !info.Allowed {
			s.metrics.rejected.WithLabelValues("rate_limited").Inc()
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("client", s.extractClientID(r)),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// withMetrics counts every request by matched route and status
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		s.metrics.requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		s.metrics.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, code, message string) {
	s.jsonResponse(w, status, ErrorBody{Code: code, Error: message})
}

// extractClientID returns the client IP from RemoteAddr.
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response.
func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	retryAfter := int(info.RetryAfter.Seconds())
	if info.RetryAfter%time.Second != 0 {
		retryAfter++
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	s.errorResponse(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later")
}

// statusRecorder captures the response status. It passes Flush through for SSE.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
