package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-tools/internal/db"
	"github.com/jonathan/resume-tools/internal/pipeline"
	"github.com/jonathan/resume-tools/internal/pipeline/steps"
	"github.com/jonathan/resume-tools/internal/types"
)

// Analysis types accepted by POST /analyze
const (
	AnalyzeTypeResume = "resume"
	AnalyzeTypeJob    = "job"
)

// runIDHeader carries the run ID on responses whose body is a bare record.
const runIDHeader = "X-Run-ID"

// AnalyzeRequest is the body of POST /analyze
type AnalyzeRequest struct {
	Type string `json:"type" validate:"required,oneof=resume job"`
	Text string `json:"text" validate:"required"`
}

// PairRequest is the body of POST /customize-resume and POST /job-match
type PairRequest struct {
	ResumeText string `json:"resume_text" validate:"required"`
	JobText    string `json:"job_text" validate:"required"`
}

// CoverLetterRequest is the body of POST /cover-letter
type CoverLetterRequest struct {
	ResumeText string `json:"resume_text" validate:"required"`
	JobText    string `json:"job_text" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Company    string `json:"company" validate:"required"`
}

// CustomizeResponse is returned by POST /customize-resume
type CustomizeResponse struct {
	RunID         uuid.UUID                  `json:"run_id"`
	Text          string                     `json:"text"`
	Customization *types.ResumeCustomization `json:"customization"`
}

// CoverLetterResponse is returned by POST /cover-letter
type CoverLetterResponse struct {
	RunID uuid.UUID `json:"run_id"`
	Text  string    `json:"text"`
}

// RunResponse is returned by GET /runs/{id}
type RunResponse struct {
	Run       *db.Run       `json:"run"`
	Artifacts []db.Artifact `json:"artifacts"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if !s.decode(w, r, &req) {
		return
	}

	op, analyze := steps.OpAnalyzeResume, (*pipeline.Pipeline).AnalyzeResumeText
	if req.Type == AnalyzeTypeJob {
		op, analyze = steps.OpAnalyzeJob, (*pipeline.Pipeline).AnalyzeJobText
	}

	if !s.acquire(w) {
		return
	}
	defer s.release()

	outcome, err := s.execute(r.Context(), op, func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Outcome, error) {
		return analyze(p, ctx, req.Text)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set(runIDHeader, outcome.RunID.String())
	if req.Type == AnalyzeTypeJob {
		s.jsonResponse(w, http.StatusOK, outcome.JobAnalysis)
		return
	}
	s.jsonResponse(w, http.StatusOK, outcome.ResumeAnalysis)
}

func (s *Server) handleCustomizeResume(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.acquire(w) {
		return
	}
	defer s.release()

	outcome, err := s.execute(r.Context(), steps.OpCustomizeResume, func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Outcome, error) {
		return p.CustomizeResumeText(ctx, req.ResumeText, req.JobText)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, customizeResponse(outcome))
}

// handleCustomizeResumeStream runs the customization and reports each step as an SSE event.
func (s *Server) handleCustomizeResumeStream(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.acquire(w) {
		return
	}
	defer s.release()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, CodeInternal, err.Error())
		return
	}

	progress := pipeline.WithProgress(func(event pipeline.Event) {
		if err := sse.WriteEvent(EventStep, event); err != nil {
			s.logger.Debug("failed to write SSE event", zap.Error(err))
		}
	})

	outcome, err := s.execute(r.Context(), steps.OpCustomizeResume, func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Outcome, error) {
		return p.With(progress).CustomizeResumeText(ctx, req.ResumeText, req.JobText)
	})
	if err != nil {
		_, body := classify(err)
		if werr := sse.WriteError(body); werr != nil {
			s.logger.Debug("failed to write SSE error", zap.Error(werr))
		}
		return
	}

	if err := sse.WriteComplete(customizeResponse(outcome)); err != nil {
		s.logger.Debug("failed to write SSE result", zap.Error(err))
	}
}

func (s *Server) handleCoverLetter(w http.ResponseWriter, r *http.Request) {
	var req CoverLetterRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.acquire(w) {
		return
	}
	defer s.release()

	outcome, err := s.execute(r.Context(), steps.OpCoverLetter, func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Outcome, error) {
		return p.GenerateCoverLetterText(ctx, req.ResumeText, req.JobText, req.Name, req.Company)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, CoverLetterResponse{RunID: outcome.RunID, Text: outcome.Text})
}

func (s *Server) handleJobMatch(w http.ResponseWriter, r *http.Request) {
	var req PairRequest
	if !s.decode(w, r, &req) {
		return
	}
	if !s.acquire(w) {
		return
	}
	defer s.release()

	outcome, err := s.execute(r.Context(), steps.OpJobMatch, func(ctx context.Context, p *pipeline.Pipeline) (*pipeline.Outcome, error) {
		return p.MatchJobText(ctx, req.ResumeText, req.JobText)
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set(runIDHeader, outcome.RunID.String())
	s.jsonResponse(w, http.StatusOK, outcome.Match)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, CodeInvalidRequest, "invalid run ID")
		return
	}

	run, err := s.runs.GetRun(r.Context(), runID)
	if err != nil {
		s.logger.Error("failed to get run", zap.String("run_id", runID.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, CodeInternal, "failed to get run")
		return
	}
	if run == nil {
		s.errorResponse(w, http.StatusNotFound, CodeNotFound, "run not found")
		return
	}

	artifacts, err := s.runs.ListArtifacts(r.Context(), runID)
	if err != nil {
		s.logger.Error("failed to list artifacts", zap.String("run_id", runID.String()), zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, CodeInternal, "failed to list artifacts")
		return
	}
	if artifacts == nil {
		artifacts = []db.Artifact{}
	}

	s.jsonResponse(w, http.StatusOK, RunResponse{Run: run, Artifacts: artifacts})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := db.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			s.errorResponse(w, http.StatusBadRequest, CodeInvalidRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list runs", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, CodeInternal, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs})
}

// decode reads and validates a JSON request body. It writes the error response itself.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, &ValidationError{Problems: []string{fmt.Sprintf("invalid request body: %v", err)}})
		return false
	}
	if err := s.validator.Struct(dst); err != nil {
		s.writeError(w, newValidationError(err))
		return false
	}
	return true
}

// acquire reserves a pipeline slot, answering 503 when none is free.
func (s *Server) acquire(w http.ResponseWriter) bool {
	if s.sem.TryAcquire(1) {
		return true
	}
	s.metrics.rejected.WithLabelValues(CodeBusy).Inc()
	w.Header().Set("Retry-After", "5")
	s.errorResponse(w, http.StatusServiceUnavailable, CodeBusy, "server is busy, try again later")
	return false
}

func (s *Server) release() {
	s.sem.Release(1)
}

// execute runs one pipeline operation and records its metrics.
func (s *Server) execute(ctx context.Context, op steps.Operation, fn func(context.Context, *pipeline.Pipeline) (*pipeline.Outcome, error)) (*pipeline.Outcome, error) {
	s.metrics.runsActive.Inc()
	defer s.metrics.runsActive.Dec()

	start := time.Now()
	outcome, err := fn(ctx, s.pipeline)
	s.metrics.observeRun(op, time.Since(start), err)
	if err != nil {
		s.logger.Warn("pipeline run failed",
			zap.String("operation", string(op)),
			zap.Int("status", HTTPStatus(err)),
			zap.Error(err))
	}
	return outcome, err
}

func customizeResponse(outcome *pipeline.Outcome) CustomizeResponse {
	return CustomizeResponse{
		RunID:         outcome.RunID,
		Text:          outcome.Text,
		Customization: outcome.Customization,
	}
}
