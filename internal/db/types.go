package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tools/internal/pipeline"
)

// DefaultListLimit is used when ListRuns is called without a positive limit.
const DefaultListLimit = 20

// Run represents a stored pipeline run
type Run struct {
	ID          uuid.UUID         `json:"id"`
	Operation   string            `json:"operation"`
	Model       string            `json:"model"`
	Params      map[string]string `json:"params,omitempty"`
	Inputs      []pipeline.Input  `json:"inputs,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt time.Time         `json:"completed_at"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Artifact represents one stored step output
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Position    int       `json:"position"`
	Step        string    `json:"step"`
	ContentType string    `json:"content_type"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}
