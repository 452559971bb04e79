package observability

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-tools/internal/pipeline"
	"github.com/jonathan/resume-tools/internal/pipeline/steps"
	"github.com/jonathan/resume-tools/internal/types"
)

func TestPrintResumeAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintResumeAnalysis(&types.ResumeAnalysis{
		Skills:     []string{"Go", "PostgreSQL", "Kafka", "gRPC", "Terraform", "AWS", "Docker"},
		Experience: []map[string]any{{"title": "Backend Engineer", "company": "Acme", "duration": "2019-2024"}},
		Education:  []map[string]any{{"school": "State University"}},
		Summary:    "Backend engineer with five years of Go.",
	})
	output := buf.String()

	assert.Contains(t, output, "RESUME ANALYSIS")
	assert.Contains(t, output, "Backend engineer with five years of Go.")
	assert.Contains(t, output, "• Terraform")
	assert.NotContains(t, output, "• AWS")
	assert.Contains(t, output, "... and 2 more")
	assert.Contains(t, output, "Backend Engineer, Acme, 2019-2024")
	assert.Contains(t, output, "school=State University")
}

func TestPrintResumeAnalysis_Nil(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResumeAnalysis(nil)
	assert.Empty(t, buf.String())
}

func TestPrintJobAnalysis(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobAnalysis(&types.JobAnalysis{
		RequiredSkills:   []string{"Go", "SQL"},
		PreferredSkills:  []string{"Kubernetes"},
		Responsibilities: []string{"Design services"},
		CompanyValues:    []string{"Ownership"},
	})
	output := buf.String()

	assert.Contains(t, output, "JOB ANALYSIS")
	assert.Contains(t, output, "Required Skills:")
	assert.Contains(t, output, "• Kubernetes")
	assert.Contains(t, output, "• Ownership")
	assert.NotContains(t, output, "Keywords:")
}

func TestPrintCustomization(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCustomization(&types.ResumeCustomization{
		HighlightedSkills:   []string{"Go"},
		ExperienceEmphasize: map[string][]string{"Globex": {"migrations"}, "Acme": {"APIs", "on-call"}},
		SuggestedAdditions:  []string{"Kubernetes exposure"},
	})
	output := buf.String()

	assert.Contains(t, output, "CUSTOMIZATION SUGGESTIONS")
	assert.Contains(t, output, "Acme: APIs; on-call")
	assert.Less(t, strings.Index(output, "Acme:"), strings.Index(output, "Globex:"))
	assert.Contains(t, output, "• Kubernetes exposure")
	assert.NotContains(t, output, "Remove:")
}

func TestPrintJobMatch(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintJobMatch(&types.JobMatch{
		MatchScore:          78,
		MatchingSkills:      []string{"Go"},
		MissingSkills:       []string{"Kubernetes"},
		ExperienceAlignment: "Strong backend fit.",
	})
	output := buf.String()

	assert.Contains(t, output, "JOB MATCH")
	assert.Contains(t, output, "Match Score: 78/100 [███████░░░]")
	assert.Contains(t, output, "Strong backend fit.")
	assert.Contains(t, output, "• Kubernetes")
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintEvent(pipeline.Event{
		Operation: steps.OpCustomizeResume,
		Step:      steps.AnalyzeResume,
		Index:     3,
		Total:     6,
		Message:   "Analyzing resume...",
	})
	assert.Equal(t, "[3/6] Analyzing resume...\n", buf.String())
}

func TestPrintOutcome(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintOutcome(&pipeline.Outcome{
		ResumeAnalysis: &types.ResumeAnalysis{Skills: []string{"Go"}},
		JobAnalysis:    &types.JobAnalysis{RequiredSkills: []string{"Go"}},
	})
	output := buf.String()

	assert.Contains(t, output, "RESUME ANALYSIS")
	assert.Contains(t, output, "JOB ANALYSIS")
	assert.NotContains(t, output, "JOB MATCH")
}

func TestPrintBox_LinesHaveEqualWidth(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", "short\n"+strings.Repeat("é", 100))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), line)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "日本...", truncate("日本語のテキスト", 5))
}

func TestScoreBar(t *testing.T) {
	assert.Equal(t, "[░░░░░░░░░░]", scoreBar(0))
	assert.Equal(t, "[██████████]", scoreBar(100))
	assert.Equal(t, "[████░░░░░░]", scoreBar(45))
}
