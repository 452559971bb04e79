// Package pipeline runs the resume operations end to end: load the inputs,
// render each prompt, call the model, and parse every structured reply.
//
// A run is strictly sequential. Every input is loaded before the first model
// call and the first error aborts the run. Nothing is recorded for a failed run.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-tools/internal/llm"
	"github.com/jonathan/resume-tools/internal/loader"
	"github.com/jonathan/resume-tools/internal/parsing"
	"github.com/jonathan/resume-tools/internal/pipeline/steps"
	"github.com/jonathan/resume-tools/internal/prompts"
	"github.com/jonathan/resume-tools/internal/schemas"
	"github.com/jonathan/resume-tools/internal/types"
)

// InlineSource is the Document.Source of text passed directly to a ...Text operation.
const InlineSource = "inline"

// Source loads documents. *loader.Loader implements it.
type Source interface {
	Load(ctx context.Context, source string) (*loader.Document, error)
}

// Event is a progress update emitted before each step starts.
type Event struct {
	RunID     uuid.UUID       `json:"run_id"`
	Operation steps.Operation `json:"operation"`
	Step      string          `json:"step"`
	Category  string          `json:"category"`
	Index     int             `json:"index"`
	Total     int             `json:"total"`
	Message   string          `json:"message"`
}

// Outcome holds everything a run produced. Fields an operation does not
// produce are left nil or empty.
type Outcome struct {
	RunID          uuid.UUID                  `json:"run_id"`
	ResumeAnalysis *types.ResumeAnalysis      `json:"resume_analysis,omitempty"`
	JobAnalysis    *types.JobAnalysis         `json:"job_analysis,omitempty"`
	Customization  *types.ResumeCustomization `json:"customization,omitempty"`
	Match          *types.JobMatch            `json:"match,omitempty"`
	Text           string                     `json:"text,omitempty"`
}

// Pipeline runs operations against one model client and one document source.
// It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	client   llm.Client
	source   Source
	logger   *zap.Logger
	progress func(Event)
	recorder Recorder
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithProgress sets a callback that receives an Event before every step.
func WithProgress(fn func(Event)) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithRecorder stores every successful run.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// New creates a pipeline.
func New(client llm.Client, source Source, opts ...Option) *Pipeline {
	p := &Pipeline{
		client: client,
		source: source,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// With returns a copy of the pipeline with extra options applied.
func (p *Pipeline) With(opts ...Option) *Pipeline {
	clone := *p
	for _, opt := range opts {
		opt(&clone)
	}
	return &clone
}

// AnalyzeResume extracts a ResumeAnalysis from the resume at source.
func (p *Pipeline) AnalyzeResume(ctx context.Context, source string) (*Outcome, error) {
	r, err := p.begin(steps.OpAnalyzeResume)
	if err != nil {
		return nil, err
	}
	resume, err := r.load(ctx, steps.LoadResume, source, "resume")
	if err != nil {
		return nil, err
	}
	return r.analyzeResumeOnly(ctx, resume)
}

// AnalyzeResumeText is AnalyzeResume for resume text already in memory.
func (p *Pipeline) AnalyzeResumeText(ctx context.Context, text string) (*Outcome, error) {
	r, err := p.begin(steps.OpAnalyzeResume)
	if err != nil {
		return nil, err
	}
	resume, err := r.inline(steps.LoadResume, text, "resume")
	if err != nil {
		return nil, err
	}
	return r.analyzeResumeOnly(ctx, resume)
}

func (r *run) analyzeResumeOnly(ctx context.Context, resume *loader.Document) (*Outcome, error) {
	if err := r.analyzeResume(ctx, resume); err != nil {
		return nil, err
	}
	return r.finish(ctx)
}

// AnalyzeJob extracts a JobAnalysis from the job description at source.
func (p *Pipeline) AnalyzeJob(ctx context.Context, source string) (*Outcome, error) {
	r, err := p.begin(steps.OpAnalyzeJob)
	if err != nil {
		return nil, err
	}
	job, err := r.load(ctx, steps.LoadJob, source, "job description")
	if err != nil {
		return nil, err
	}
	return r.analyzeJobOnly(ctx, job)
}

// AnalyzeJobText is AnalyzeJob for job text already in memory.
func (p *Pipeline) AnalyzeJobText(ctx context.Context, text string) (*Outcome, error) {
	r, err := p.begin(steps.OpAnalyzeJob)
	if err != nil {
		return nil, err
	}
	job, err := r.inline(steps.LoadJob, text, "job description")
	if err != nil {
		return nil, err
	}
	return r.analyzeJobOnly(ctx, job)
}

func (r *run) analyzeJobOnly(ctx context.Context, job *loader.Document) (*Outcome, error) {
	if err := r.analyzeJob(ctx, job); err != nil {
		return nil, err
	}
	return r.finish(ctx)
}

// CustomizeResume rewrites the resume for the job. It makes exactly four model
// calls in order: resume analysis, job analysis, customization suggestions, rewrite.
func (p *Pipeline) CustomizeResume(ctx context.Context, resumeSource, jobSource string) (*Outcome, error) {
	r, resume, job, err := p.loadPair(ctx, steps.OpCustomizeResume, resumeSource, jobSource)
	if err != nil {
		return nil, err
	}
	return r.customize(ctx, resume, job)
}

// CustomizeResumeText is CustomizeResume for text already in memory.
func (p *Pipeline) CustomizeResumeText(ctx context.Context, resumeText, jobText string) (*Outcome, error) {
	r, resume, job, err := p.inlinePair(steps.OpCustomizeResume, resumeText, jobText)
	if err != nil {
		return nil, err
	}
	return r.customize(ctx, resume, job)
}

func (r *run) customize(ctx context.Context, resume, job *loader.Document) (*Outcome, error) {
	if err := r.analyzeBoth(ctx, resume, job); err != nil {
		return nil, err
	}

	if err := r.step(steps.SuggestCustomization, "Generating customization suggestions..."); err != nil {
		return nil, err
	}
	resumeJSON, jobJSON, err := r.serializedAnalyses()
	if err != nil {
		return nil, err
	}
	instructions, err := schemas.FormatInstructions(types.ShapeResumeCustomization)
	if err != nil {
		return nil, err
	}
	raw, err := r.complete(ctx, prompts.TaskSuggestCustomization, map[string]string{
		prompts.KeyResumeAnalysis:     resumeJSON,
		prompts.KeyJobAnalysis:        jobJSON,
		prompts.KeyFormatInstructions: instructions,
	})
	if err != nil {
		return nil, err
	}
	customization, err := parsing.ParseResumeCustomization(raw)
	if err != nil {
		return nil, err
	}
	r.outcome.Customization = customization
	r.done(steps.SuggestCustomization, customization)

	if err := r.step(steps.RewriteResume, "Customizing resume..."); err != nil {
		return nil, err
	}
	customizationJSON, err := json.Marshal(customization)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize customization: %w", err)
	}
	text, err := r.complete(ctx, prompts.TaskRewriteResume, map[string]string{
		prompts.KeyResume:        resume.Text,
		prompts.KeyCustomization: string(customizationJSON),
	})
	if err != nil {
		return nil, err
	}
	r.outcome.Text = text
	r.done(steps.RewriteResume, text)

	return r.finish(ctx)
}

// GenerateCoverLetter writes a cover letter for name applying to company.
func (p *Pipeline) GenerateCoverLetter(ctx context.Context, resumeSource, jobSource, name, company string) (*Outcome, error) {
	r, resume, job, err := p.loadPair(ctx, steps.OpCoverLetter, resumeSource, jobSource)
	if err != nil {
		return nil, err
	}
	return r.coverLetter(ctx, resume, job, name, company)
}

// GenerateCoverLetterText is GenerateCoverLetter for text already in memory.
func (p *Pipeline) GenerateCoverLetterText(ctx context.Context, resumeText, jobText, name, company string) (*Outcome, error) {
	r, resume, job, err := p.inlinePair(steps.OpCoverLetter, resumeText, jobText)
	if err != nil {
		return nil, err
	}
	return r.coverLetter(ctx, resume, job, name, company)
}

func (r *run) coverLetter(ctx context.Context, resume, job *loader.Document, name, company string) (*Outcome, error) {
	r.params["candidate_name"] = name
	r.params["company_name"] = company

	if err := r.analyzeBoth(ctx, resume, job); err != nil {
		return nil, err
	}

	if err := r.step(steps.GenerateCoverLetter, "Generating cover letter..."); err != nil {
		return nil, err
	}
	resumeJSON, jobJSON, err := r.serializedAnalyses()
	if err != nil {
		return nil, err
	}
	text, err := r.complete(ctx, prompts.TaskGenerateCoverLetter, map[string]string{
		prompts.KeyCandidateName:  name,
		prompts.KeyCompanyName:    company,
		prompts.KeyResumeAnalysis: resumeJSON,
		prompts.KeyJobAnalysis:    jobJSON,
	})
	if err != nil {
		return nil, err
	}
	r.outcome.Text = text
	r.done(steps.GenerateCoverLetter, text)

	return r.finish(ctx)
}

// MatchJob scores how well the resume fits the job.
func (p *Pipeline) MatchJob(ctx context.Context, resumeSource, jobSource string) (*Outcome, error) {
	r, resume, job, err := p.loadPair(ctx, steps.OpJobMatch, resumeSource, jobSource)
	if err != nil {
		return nil, err
	}
	return r.match(ctx, resume, job)
}

// MatchJobText is MatchJob for text already in memory.
func (p *Pipeline) MatchJobText(ctx context.Context, resumeText, jobText string) (*Outcome, error) {
	r, resume, job, err := p.inlinePair(steps.OpJobMatch, resumeText, jobText)
	if err != nil {
		return nil, err
	}
	return r.match(ctx, resume, job)
}

func (r *run) match(ctx context.Context, resume, job *loader.Document) (*Outcome, error) {
	if err := r.analyzeBoth(ctx, resume, job); err != nil {
		return nil, err
	}

	if err := r.step(steps.MatchJob, "Analyzing job match..."); err != nil {
		return nil, err
	}
	resumeJSON, jobJSON, err := r.serializedAnalyses()
	if err != nil {
		return nil, err
	}
	instructions, err := schemas.FormatInstructions(types.ShapeJobMatch)
	if err != nil {
		return nil, err
	}
	raw, err := r.complete(ctx, prompts.TaskMatchJob, map[string]string{
		prompts.KeyResumeAnalysis:     resumeJSON,
		prompts.KeyJobAnalysis:        jobJSON,
		prompts.KeyFormatInstructions: instructions,
	})
	if err != nil {
		return nil, err
	}
	match, err := parsing.ParseJobMatch(raw)
	if err != nil {
		return nil, err
	}
	r.outcome.Match = match
	r.done(steps.MatchJob, match)

	return r.finish(ctx)
}

// loadPair starts a two-input run and loads both documents before any model call.
func (p *Pipeline) loadPair(ctx context.Context, op steps.Operation, resumeSource, jobSource string) (*run, *loader.Document, *loader.Document, error) {
	r, err := p.begin(op)
	if err != nil {
		return nil, nil, nil, err
	}
	resume, err := r.load(ctx, steps.LoadResume, resumeSource, "resume")
	if err != nil {
		return nil, nil, nil, err
	}
	job, err := r.load(ctx, steps.LoadJob, jobSource, "job description")
	if err != nil {
		return nil, nil, nil, err
	}
	return r, resume, job, nil
}

func (p *Pipeline) inlinePair(op steps.Operation, resumeText, jobText string) (*run, *loader.Document, *loader.Document, error) {
	r, err := p.begin(op)
	if err != nil {
		return nil, nil, nil, err
	}
	resume, err := r.inline(steps.LoadResume, resumeText, "resume")
	if err != nil {
		return nil, nil, nil, err
	}
	job, err := r.inline(steps.LoadJob, jobText, "job description")
	if err != nil {
		return nil, nil, nil, err
	}
	return r, resume, job, nil
}
