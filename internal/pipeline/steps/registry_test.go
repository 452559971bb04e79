package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepRegistry(t *testing.T) {
	for name, def := range StepRegistry {
		assert.Equal(t, name, def.Name)
		assert.NotEmpty(t, def.Category)
		for _, dep := range def.Dependencies {
			_, ok := StepRegistry[dep]
			assert.True(t, ok, "step %s depends on unknown step %s", name, dep)
		}
	}
}

// Every plan satisfies its own dependencies and loads inputs before calling the model.
func TestPlans_AreConsistent(t *testing.T) {
	for op, plan := range Plans {
		t.Run(string(op), func(t *testing.T) {
			tracker, err := NewTracker(op)
			require.NoError(t, err)

			sawModelCall := false
			for _, step := range plan {
				_, _, err := tracker.Start(step)
				require.NoError(t, err)
				if StepRegistry[step].Category == CategoryIngestion {
					assert.False(t, sawModelCall, "%s loads after a model call", step)
				}
				if StepRegistry[step].CallsModel {
					sawModelCall = true
				}
				tracker.Complete(step)
			}
			assert.True(t, tracker.Done())
			assert.Equal(t, plan, tracker.Completed())
		})
	}
}

func TestModelCalls(t *testing.T) {
	assert.Equal(t, 1, ModelCalls(OpAnalyzeResume))
	assert.Equal(t, 1, ModelCalls(OpAnalyzeJob))
	assert.Equal(t, 4, ModelCalls(OpCustomizeResume))
	assert.Equal(t, 3, ModelCalls(OpCoverLetter))
	assert.Equal(t, 3, ModelCalls(OpJobMatch))
}

func TestTracker_RejectsOutOfOrder(t *testing.T) {
	tracker, err := NewTracker(OpCustomizeResume)
	require.NoError(t, err)

	_, _, err = tracker.Start(AnalyzeResume)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not next")

	index, total, err := tracker.Start(LoadResume)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
	assert.Equal(t, 6, total)
}

func TestTracker_MissingDependency(t *testing.T) {
	tracker := &Tracker{op: "custom", plan: []string{RewriteResume}, completed: map[string]bool{LoadResume: true}}

	_, _, err := tracker.Start(RewriteResume)
	var depErr *DependencyError
	require.ErrorAs(t, err, &depErr)
	assert.Equal(t, RewriteResume, depErr.Step)
	assert.Equal(t, []string{SuggestCustomization}, depErr.MissingDependencies)
}

func TestNewTracker_UnknownOperation(t *testing.T) {
	_, err := NewTracker("render_latex")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown operation")
}
