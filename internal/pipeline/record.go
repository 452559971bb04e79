package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tools/internal/loader"
	"github.com/jonathan/resume-tools/internal/pipeline/steps"
)

// Input roles
const (
	RoleResume = "resume"
	RoleJob    = "job"
)

// Artifact content types
const (
	ContentTypeJSON = "application/json"
	ContentTypeText = "text/plain"
)

// Recorder persists completed runs.
type Recorder interface {
	RecordRun(ctx context.Context, record *Record) error
}

// Record describes one completed run.
type Record struct {
	ID          uuid.UUID         `json:"id"`
	Operation   steps.Operation   `json:"operation"`
	Model       string            `json:"model"`
	Inputs      []Input           `json:"inputs"`
	Params      map[string]string `json:"params,omitempty"`
	Artifacts   []Artifact        `json:"artifacts"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
}

// Input identifies a document the run read. The text itself is not kept.
type Input struct {
	Role   string        `json:"role"`
	Source string        `json:"source"`
	Format loader.Format `json:"format"`
	Hash   string        `json:"hash"`
	Chars  int           `json:"chars"`
}

// Artifact is the output of one step.
type Artifact struct {
	Step        string `json:"step"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
}
