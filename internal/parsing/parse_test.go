package parsing

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jonathan/resume-tools/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resumeAnalysisJSON = `{
  "skills": ["Go", "PostgreSQL", "Kubernetes"],
  "experience": [{"title": "Backend Engineer", "company": "Acme", "years": 4}],
  "education": [{"degree": "BSc Computer Science", "school": "State University"}],
  "summary": "Backend engineer focused on distributed systems."
}`

const jobAnalysisJSON = `{
  "required_skills": ["Go", "SQL"],
  "preferred_skills": ["Kubernetes"],
  "responsibilities": ["Build APIs"],
  "company_values": ["Ownership"],
  "keywords": ["backend", "microservices"]
}`

const customizationJSON = `{
  "highlighted_skills": ["Go", "SQL"],
  "experience_emphasize": {"Backend Engineer": ["API design", "on-call ownership"]},
  "suggested_additions": ["Mention Kubernetes operators"],
  "suggested_removals": ["High school awards"]
}`

const jobMatchJSON = `{
  "match_score": 82,
  "matching_skills": ["Go", "SQL"],
  "missing_skills": ["Terraform"],
  "experience_alignment": "Four years of backend work lines up with the role.",
  "recommendations": ["Add infrastructure-as-code examples"],
  "strengths": ["API design"],
  "weaknesses": ["Limited cloud provisioning"]
}`

func TestParseResumeAnalysis(t *testing.T) {
	got, err := ParseResumeAnalysis(resumeAnalysisJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "PostgreSQL", "Kubernetes"}, got.Skills)
	require.Len(t, got.Experience, 1)
	assert.Equal(t, "Acme", got.Experience[0]["company"])
	assert.Equal(t, "Backend engineer focused on distributed systems.", got.Summary)
}

func TestParseJobAnalysis(t *testing.T) {
	got, err := ParseJobAnalysis(jobAnalysisJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "SQL"}, got.RequiredSkills)
	assert.Equal(t, []string{"backend", "microservices"}, got.Keywords)
}

func TestParseResumeCustomization(t *testing.T) {
	got, err := ParseResumeCustomization(customizationJSON)
	require.NoError(t, err)

	assert.Equal(t, []string{"API design", "on-call ownership"}, got.ExperienceEmphasize["Backend Engineer"])
	assert.Equal(t, []string{"High school awards"}, got.SuggestedRemovals)
}

func TestParseJobMatch(t *testing.T) {
	got, err := ParseJobMatch(jobMatchJSON)
	require.NoError(t, err)

	assert.Equal(t, 82, got.MatchScore)
	assert.Equal(t, []string{"Terraform"}, got.MissingSkills)
}

func TestParse_ToleratesFences(t *testing.T) {
	for _, raw := range []string{
		"```json\n" + jobAnalysisJSON + "\n```",
		"```\n" + jobAnalysisJSON + "\n```",
		"\n  " + jobAnalysisJSON + "\n",
	} {
		got, err := ParseJobAnalysis(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, []string{"Build APIs"}, got.Responsibilities)
	}
}

// Re-serializing a parsed record yields a document equal to the input.
func TestParse_RoundTripFidelity(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		parse func(string) (any, error)
	}{
		{"resume analysis", resumeAnalysisJSON, func(s string) (any, error) { return ParseResumeAnalysis(s) }},
		{"job analysis", jobAnalysisJSON, func(s string) (any, error) { return ParseJobAnalysis(s) }},
		{"customization", customizationJSON, func(s string) (any, error) { return ParseResumeCustomization(s) }},
		{"job match", jobMatchJSON, func(s string) (any, error) { return ParseJobMatch(s) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := tt.parse(tt.raw)
			require.NoError(t, err)

			out, err := json.Marshal(record)
			require.NoError(t, err)
			assert.JSONEq(t, tt.raw, string(out))
		})
	}
}

func TestParse_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name  string
		shape types.Shape
		raw   string
		parse func(string) error
	}{
		{
			name:  "missing field",
			shape: types.ShapeJobMatch,
			raw:   `{"match_score": 50, "matching_skills": [], "missing_skills": [], "recommendations": [], "strengths": [], "weaknesses": []}`,
			parse: func(s string) error { _, err := ParseJobMatch(s); return err },
		},
		{
			name:  "wrong type",
			shape: types.ShapeResumeAnalysis,
			raw:   `{"skills": "Go, SQL", "experience": [], "education": [], "summary": ""}`,
			parse: func(s string) error { _, err := ParseResumeAnalysis(s); return err },
		},
		{
			name:  "extra field",
			shape: types.ShapeJobAnalysis,
			raw:   `{"required_skills": [], "preferred_skills": [], "responsibilities": [], "company_values": [], "keywords": [], "salary": "n/a"}`,
			parse: func(s string) error { _, err := ParseJobAnalysis(s); return err },
		},
		{
			name:  "score out of range",
			shape: types.ShapeJobMatch,
			raw:   `{"match_score": 140, "matching_skills": [], "missing_skills": [], "experience_alignment": "", "recommendations": [], "strengths": [], "weaknesses": []}`,
			parse: func(s string) error { _, err := ParseJobMatch(s); return err },
		},
		{
			name:  "prose around json",
			shape: types.ShapeJobAnalysis,
			raw:   "Sure! Here it is: " + jobAnalysisJSON + " Hope that helps.",
			parse: func(s string) error { _, err := ParseJobAnalysis(s); return err },
		},
		{
			name:  "prose around fenced json",
			shape: types.ShapeJobAnalysis,
			raw:   "Here is the analysis you asked for:\n```json\n" + jobAnalysisJSON + "\n```\nLet me know if you need more.",
			parse: func(s string) error { _, err := ParseJobAnalysis(s); return err },
		},
		{
			name:  "two objects",
			shape: types.ShapeJobAnalysis,
			raw:   jobAnalysisJSON + "\n" + `{"required_skills": ["Rust"], "preferred_skills": [], "responsibilities": [], "company_values": [], "keywords": []}`,
			parse: func(s string) error { _, err := ParseJobAnalysis(s); return err },
		},
		{
			name:  "extra tail",
			shape: types.ShapeJobAnalysis,
			raw:   strings.TrimSuffix(strings.TrimSpace(jobAnalysisJSON), "}") + `}, "salary": "n/a"}`,
			parse: func(s string) error { _, err := ParseJobAnalysis(s); return err },
		},
		{
			name:  "not json",
			shape: types.ShapeResumeCustomization,
			raw:   "I could not produce suggestions for this resume.",
			parse: func(s string) error { _, err := ParseResumeCustomization(s); return err },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse(tt.raw)
			require.Error(t, err)

			var mismatch *ShapeMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.shape, mismatch.Shape)
			assert.Equal(t, tt.raw, mismatch.Raw)
		})
	}
}
