package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-tools/internal/loader"
	"github.com/jonathan/resume-tools/internal/parsing"
	"github.com/jonathan/resume-tools/internal/pipeline/steps"
	"github.com/jonathan/resume-tools/internal/prompts"
	"github.com/jonathan/resume-tools/internal/schemas"
	"github.com/jonathan/resume-tools/internal/types"
)

// run is the state of one operation in flight.
type run struct {
	p       *Pipeline
	op      steps.Operation
	tracker *steps.Tracker
	logger  *zap.Logger
	outcome *Outcome
	record  *Record
	params  map[string]string
}

func (p *Pipeline) begin(op steps.Operation) (*run, error) {
	tracker, err := steps.NewTracker(op)
	if err != nil {
		return nil, err
	}
	id := uuid.New()
	params := make(map[string]string)
	return &run{
		p:       p,
		op:      op,
		tracker: tracker,
		logger:  p.logger.With(zap.String("run_id", id.String()), zap.String("operation", string(op))),
		outcome: &Outcome{RunID: id},
		record: &Record{
			ID:        id,
			Operation: op,
			Model:     p.client.Model(),
			Params:    params,
			StartedAt: p.now(),
		},
		params: params,
	}, nil
}

// step validates ordering, then reports progress for a step about to run.
func (r *run) step(name, message string) error {
	index, total, err := r.tracker.Start(name)
	if err != nil {
		return err
	}

	r.logger.Debug("step started", zap.String("step", name), zap.Int("index", index), zap.Int("total", total))
	if r.p.progress != nil {
		r.p.progress(Event{
			RunID:     r.outcome.RunID,
			Operation: r.op,
			Step:      name,
			Category:  steps.StepRegistry[name].Category,
			Index:     index,
			Total:     total,
			Message:   message,
		})
	}
	return nil
}

// done completes a step and keeps its output as an artifact.
func (r *run) done(name string, content any) {
	r.tracker.Complete(name)

	switch v := content.(type) {
	case nil:
	case string:
		r.record.Artifacts = append(r.record.Artifacts, Artifact{Step: name, ContentType: ContentTypeText, Content: v})
	default:
		data, err := json.Marshal(v)
		if err != nil {
			r.logger.Warn("failed to serialize artifact", zap.String("step", name), zap.Error(err))
			return
		}
		r.record.Artifacts = append(r.record.Artifacts, Artifact{Step: name, ContentType: ContentTypeJSON, Content: string(data)})
	}
}

func (r *run) load(ctx context.Context, step, source, label string) (*loader.Document, error) {
	if err := r.step(step, fmt.Sprintf("Loading %s from %s...", label, source)); err != nil {
		return nil, err
	}
	doc, err := r.p.source.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	r.input(step, doc)
	return doc, nil
}

func (r *run) inline(step, text, label string) (*loader.Document, error) {
	if err := r.step(step, fmt.Sprintf("Reading %s text...", label)); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%s: %w", label, loader.ErrEmptyDocument)
	}
	doc := &loader.Document{Source: InlineSource, Format: loader.FormatText, Text: text}
	r.input(step, doc)
	return doc, nil
}

func (r *run) input(step string, doc *loader.Document) {
	role := RoleResume
	if step == steps.LoadJob {
		role = RoleJob
	}
	r.record.Inputs = append(r.record.Inputs, Input{
		Role:   role,
		Source: doc.Source,
		Format: doc.Format,
		Hash:   doc.Hash(),
		Chars:  len(doc.Text),
	})
	r.tracker.Complete(step)
}

func (r *run) analyzeResume(ctx context.Context, resume *loader.Document) error {
	if err := r.step(steps.AnalyzeResume, "Analyzing resume..."); err != nil {
		return err
	}
	instructions, err := schemas.FormatInstructions(types.ShapeResumeAnalysis)
	if err != nil {
		return err
	}
	raw, err := r.complete(ctx, prompts.TaskAnalyzeResume, map[string]string{
		prompts.KeyResume:             resume.Text,
		prompts.KeyFormatInstructions: instructions,
	})
	if err != nil {
		return err
	}
	analysis, err := parsing.ParseResumeAnalysis(raw)
	if err != nil {
		return err
	}
	r.outcome.ResumeAnalysis = analysis
	r.done(steps.AnalyzeResume, analysis)
	return nil
}

func (r *run) analyzeJob(ctx context.Context, job *loader.Document) error {
	if err := r.step(steps.AnalyzeJob, "Analyzing job description..."); err != nil {
		return err
	}
	instructions, err := schemas.FormatInstructions(types.ShapeJobAnalysis)
	if err != nil {
		return err
	}
	raw, err := r.complete(ctx, prompts.TaskAnalyzeJob, map[string]string{
		prompts.KeyJob:                job.Text,
		prompts.KeyFormatInstructions: instructions,
	})
	if err != nil {
		return err
	}
	analysis, err := parsing.ParseJobAnalysis(raw)
	if err != nil {
		return err
	}
	r.outcome.JobAnalysis = analysis
	r.done(steps.AnalyzeJob, analysis)
	return nil
}

func (r *run) analyzeBoth(ctx context.Context, resume, job *loader.Document) error {
	if err := r.analyzeResume(ctx, resume); err != nil {
		return err
	}
	return r.analyzeJob(ctx, job)
}

// serializedAnalyses returns both analyses as compact JSON for use as prompt values.
func (r *run) serializedAnalyses() (string, string, error) {
	resumeJSON, err := json.Marshal(r.outcome.ResumeAnalysis)
	if err != nil {
		return "", "", fmt.Errorf("failed to serialize resume analysis: %w", err)
	}
	jobJSON, err := json.Marshal(r.outcome.JobAnalysis)
	if err != nil {
		return "", "", fmt.Errorf("failed to serialize job analysis: %w", err)
	}
	return string(resumeJSON), string(jobJSON), nil
}

// complete renders a prompt and sends it to the model.
func (r *run) complete(ctx context.Context, task prompts.Task, values map[string]string) (string, error) {
	prompt, err := prompts.Render(task, values)
	if err != nil {
		return "", err
	}

	start := r.p.now()
	text, err := r.p.client.Complete(ctx, prompt)
	if err != nil {
		r.logger.Debug("completion failed", zap.String("task", string(task)), zap.Error(err))
		return "", err
	}
	r.logger.Debug("completion received",
		zap.String("task", string(task)),
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("reply_chars", len(text)),
		zap.Duration("elapsed", r.p.now().Sub(start)))
	return text, nil
}

// finish records a successful run and returns its outcome.
func (r *run) finish(ctx context.Context) (*Outcome, error) {
	if !r.tracker.Done() {
		return nil, fmt.Errorf("run %s ended before completing its plan", r.op)
	}
	r.record.CompletedAt = r.p.now()

	if r.p.recorder != nil {
		if err := r.p.recorder.RecordRun(ctx, r.record); err != nil {
			r.logger.Warn("failed to record run", zap.Error(err))
		}
	}

	r.logger.Info("run completed", zap.Duration("elapsed", r.record.CompletedAt.Sub(r.record.StartedAt)))
	return r.outcome, nil
}
