package prompts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	prompt, err := Get("analysis.json", "analyze-resume")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Analyze the following resume")
}

func TestGet_InvalidFile(t *testing.T) {
	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	_, err := Get("analysis.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestTemplate_AllTasksPresent(t *testing.T) {
	for task := range taskFiles {
		t.Run(string(task), func(t *testing.T) {
			template, err := Template(task)
			require.NoError(t, err)
			assert.NotEmpty(t, Placeholders(template))
		})
	}
}

func TestTemplate_UnknownTask(t *testing.T) {
	_, err := Template(Task("write-poem"))
	assert.Error(t, err)
}

func TestPlaceholders(t *testing.T) {
	keys := Placeholders("{{.B}} and {{.A}} then {{.B}} again, not {{ .C }}")
	assert.Equal(t, []string{"A", "B"}, keys)
}

func TestRender(t *testing.T) {
	prompt, err := Render(TaskAnalyzeJob, map[string]string{
		"Job":                "Required: Python, Kubernetes",
		"FormatInstructions": "FORMAT",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"Analyze the following job description and extract key information:\n\nRequired: Python, Kubernetes\n\nFORMAT",
		prompt)
}

func TestRender_MissingValue(t *testing.T) {
	_, err := Render(TaskGenerateCoverLetter, map[string]string{
		"CandidateName":  "Ada",
		"ResumeAnalysis": "{}",
		"JobAnalysis":    "{}",
	})
	require.Error(t, err)

	var missing *MissingValueError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, TaskGenerateCoverLetter, missing.Task)
	assert.Equal(t, "CompanyName", missing.Key)
}

func TestRender_ValuesAreNotRescanned(t *testing.T) {
	prompt, err := Render(TaskRewriteResume, map[string]string{
		"Resume":        "uses {{.Customization}} literally",
		"Customization": "{}",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "uses {{.Customization}} literally")
}

func TestRender_CoverLetterKeepsGuidelines(t *testing.T) {
	prompt, err := Render(TaskGenerateCoverLetter, map[string]string{
		"CandidateName":  "Ada Lovelace",
		"CompanyName":    "Analytical Engines",
		"ResumeAnalysis": `{"skills":["math"]}`,
		"JobAnalysis":    `{"keywords":["engine"]}`,
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "cover letter for Ada Lovelace applying to Analytical Engines")
	assert.Contains(t, prompt, "7. Format as a formal business letter")
	assert.Contains(t, prompt, `{"skills":["math"]}`)
}

func TestCaching(t *testing.T) {
	prompt1, err := Get("analysis.json", "analyze-job")
	require.NoError(t, err)

	prompt2, err := Get("analysis.json", "analyze-job")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}
