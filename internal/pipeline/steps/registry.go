// Package steps defines the pipeline steps, the order each operation runs them in,
// and the dependency checks that keep a run strictly sequential.
package steps

import (
	"fmt"
)

// Step names
const (
	LoadResume           = "load_resume"
	LoadJob              = "load_job"
	AnalyzeResume        = "analyze_resume"
	AnalyzeJob           = "analyze_job"
	SuggestCustomization = "suggest_customization"
	RewriteResume        = "rewrite_resume"
	GenerateCoverLetter  = "generate_cover_letter"
	MatchJob             = "match_job"
)

// Step categories
const (
	CategoryIngestion  = "ingestion"
	CategoryAnalysis   = "analysis"
	CategoryGeneration = "generation"
)

// Operation names a user-facing pipeline operation.
type Operation string

// Operations
const (
	OpAnalyzeResume   Operation = "analyze_resume"
	OpAnalyzeJob      Operation = "analyze_job"
	OpCustomizeResume Operation = "customize_resume"
	OpCoverLetter     Operation = "cover_letter"
	OpJobMatch        Operation = "job_match"
)

// StepDefinition defines metadata for a pipeline step
type StepDefinition struct {
	Name         string
	Category     string
	Dependencies []string
	// CallsModel is true for steps that make exactly one completion request.
	CallsModel bool
}

// StepRegistry holds all step definitions
var StepRegistry = map[string]StepDefinition{
	LoadResume: {
		Name:     LoadResume,
		Category: CategoryIngestion,
	},
	LoadJob: {
		Name:     LoadJob,
		Category: CategoryIngestion,
	},
	AnalyzeResume: {
		Name:         AnalyzeResume,
		Category:     CategoryAnalysis,
		Dependencies: []string{LoadResume},
		CallsModel:   true,
	},
	AnalyzeJob: {
		Name:         AnalyzeJob,
		Category:     CategoryAnalysis,
		Dependencies: []string{LoadJob},
		CallsModel:   true,
	},
	SuggestCustomization: {
		Name:         SuggestCustomization,
		Category:     CategoryAnalysis,
		Dependencies: []string{AnalyzeResume, AnalyzeJob},
		CallsModel:   true,
	},
	RewriteResume: {
		Name:         RewriteResume,
		Category:     CategoryGeneration,
		Dependencies: []string{LoadResume, SuggestCustomization},
		CallsModel:   true,
	},
	GenerateCoverLetter: {
		Name:         GenerateCoverLetter,
		Category:     CategoryGeneration,
		Dependencies: []string{AnalyzeResume, AnalyzeJob},
		CallsModel:   true,
	},
	MatchJob: {
		Name:         MatchJob,
		Category:     CategoryAnalysis,
		Dependencies: []string{AnalyzeResume, AnalyzeJob},
		CallsModel:   true,
	},
}

// Plans lists the steps of each operation in execution order.
// Every input is loaded before the first model call.
var Plans = map[Operation][]string{
	OpAnalyzeResume:   {LoadResume, AnalyzeResume},
	OpAnalyzeJob:      {LoadJob, AnalyzeJob},
	OpCustomizeResume: {LoadResume, LoadJob, AnalyzeResume, AnalyzeJob, SuggestCustomization, RewriteResume},
	OpCoverLetter:     {LoadResume, LoadJob, AnalyzeResume, AnalyzeJob, GenerateCoverLetter},
	OpJobMatch:        {LoadResume, LoadJob, AnalyzeResume, AnalyzeJob, MatchJob},
}

// ModelCalls returns the number of completion requests an operation makes.
func ModelCalls(op Operation) int {
	n := 0
	for _, step := range Plans[op] {
		if StepRegistry[step].CallsModel {
			n++
		}
	}
	return n
}

// DependencyError represents a dependency validation error
type DependencyError struct {
	Step                string
	MissingDependencies []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step %s: missing dependencies: %v", e.Step, e.MissingDependencies)
}

// Tracker follows one run through its plan and rejects out-of-order steps.
// It is not safe for concurrent use; a run is sequential.
type Tracker struct {
	op        Operation
	plan      []string
	completed map[string]bool
	next      int
}

// NewTracker returns a tracker for op.
func NewTracker(op Operation) (*Tracker, error) {
	plan, ok := Plans[op]
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", op)
	}
	return &Tracker{op: op, plan: plan, completed: make(map[string]bool, len(plan))}, nil
}

// Start checks that step is the next planned step and its dependencies are complete.
// It returns the step's 1-based position and the plan length.
func (t *Tracker) Start(step string) (index, total int, err error) {
	def, ok := StepRegistry[step]
	if !ok {
		return 0, 0, fmt.Errorf("unknown step: %s", step)
	}
	if t.next >= len(t.plan) || t.plan[t.next] != step {
		return 0, 0, fmt.Errorf("step %s is not next in the %s plan", step, t.op)
	}

	var missing []string
	for _, dep := range def.Dependencies {
		if !t.completed[dep] {
			missing = append(missing, dep)
		}
	}
	if len(missing) > 0 {
		return 0, 0, &DependencyError{Step: step, MissingDependencies: missing}
	}

	return t.next + 1, len(t.plan), nil
}

// Complete marks step done and advances the plan.
func (t *Tracker) Complete(step string) {
	t.completed[step] = true
	if t.next < len(t.plan) && t.plan[t.next] == step {
		t.next++
	}
}

// Done reports whether every planned step completed.
func (t *Tracker) Done() bool {
	return t.next == len(t.plan)
}

// Completed returns the completed steps in plan order.
func (t *Tracker) Completed() []string {
	out := make([]string, 0, t.next)
	for _, step := range t.plan[:t.next] {
		if t.completed[step] {
			out = append(out, step)
		}
	}
	return out
}
