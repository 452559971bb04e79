package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tools/internal/config"
	"github.com/jonathan/resume-tools/internal/llm"
	"github.com/jonathan/resume-tools/internal/llm/llmtest"
	"github.com/jonathan/resume-tools/internal/loader"
	"github.com/jonathan/resume-tools/internal/parsing"
	"github.com/jonathan/resume-tools/internal/types"
)

const (
	resumeText = "Jane Doe\nBackend Engineer at Acme (2019-2024)\nSkills: Go, PostgreSQL, Kafka"
	jobText    = "Globex is hiring a Senior Go Engineer.\nRequired: Go, SQL. Preferred: Kubernetes."

	resumeReply        = `{"skills":["Go","PostgreSQL","Kafka"],"experience":[{"title":"Backend Engineer","company":"Acme"}],"education":[],"summary":"Backend engineer."}`
	jobReply           = `{"required_skills":["Go","SQL"],"preferred_skills":["Kubernetes"],"responsibilities":["Design services"],"company_values":["Ownership"],"keywords":["golang"]}`
	customizationReply = `{"highlighted_skills":["Go"],"experience_emphasize":{"Acme":["event streaming"]},"suggested_additions":[],"suggested_removals":[]}`
	matchReply         = `{"match_score":78,"matching_skills":["Go"],"missing_skills":["Kubernetes"],"experience_alignment":"Strong backend fit.","recommendations":[],"strengths":["Go"],"weaknesses":[]}`
)

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// harness runs rootCmd in a scratch directory against a stand-in model.
type harness struct {
	t      *testing.T
	dir    string
	client *llmtest.Client

	gotConfig *llm.Config
	gotKey    string
}

func newHarness(t *testing.T, replies ...string) *harness {
	t.Helper()
	h := &harness{t: t, dir: t.TempDir(), client: llmtest.New(replies...)}
	t.Chdir(h.dir)

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("RESUME_TOOLS_LOGGING_LEVEL", "error")

	original := newLLMClient
	newLLMClient = func(_ context.Context, cfg *llm.Config, apiKey string) (llm.Client, error) {
		h.gotConfig = cfg
		h.gotKey = apiKey
		return h.client, nil
	}
	t.Cleanup(func() { newLLMClient = original })

	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "resume.txt"), []byte(resumeText), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "job.txt"), []byte(jobText), 0o644))
	return h
}

func (h *harness) run(args ...string) cliResult {
	h.t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(bytes.NewReader(nil))

	err := rootCmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// resetFlags restores every flag to its default; cobra keeps flag state between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	configPath = ""
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestMissingCredential(t *testing.T) {
	h := newHarness(t)
	t.Setenv("OPENAI_API_KEY", "")

	res := h.run("analyze", "--type", "resume", "--file", "resume.txt")
	require.Error(t, res.err)

	var credErr *config.MissingCredentialError
	require.True(t, errors.As(res.err, &credErr))

	var out bytes.Buffer
	reportError(&out, res.err)
	assert.Equal(t,
		"Error: OPENAI_API_KEY not found in environment variables.\nPlease add your OpenAI API key to the .env file.\n",
		out.String())
	assert.Equal(t, 0, h.client.Calls())
}

func TestAnalyze_ResumeToStdout(t *testing.T) {
	h := newHarness(t, resumeReply)

	res := h.run("analyze", "--type", "resume", "--file", "resume.txt")
	require.NoError(t, res.err)

	var got types.ResumeAnalysis
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	assert.Equal(t, []string{"Go", "PostgreSQL", "Kafka"}, got.Skills)
	assert.Equal(t, "Backend engineer.", got.Summary)
	assert.Contains(t, res.stdout, "\n  \"skills\"")
	assert.Equal(t, 1, h.client.Calls())
	assert.True(t, h.client.Closed())
}

func TestAnalyze_JobToFile(t *testing.T) {
	h := newHarness(t, jobReply)

	res := h.run("analyze", "--type", "job", "--file", "job.txt", "--output", "job.json")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Document saved to job.json")

	data, err := os.ReadFile(filepath.Join(h.dir, "job.json"))
	require.NoError(t, err)

	var got types.JobAnalysis
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []string{"Go", "SQL"}, got.RequiredSkills)
}

func TestAnalyze_InvalidType(t *testing.T) {
	h := newHarness(t)

	res := h.run("analyze", "--type", "cover", "--file", "resume.txt")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "must be resume or job")
	assert.Nil(t, h.gotConfig)
}

func TestAnalyze_MissingRequiredFlag(t *testing.T) {
	h := newHarness(t)

	res := h.run("analyze", "--type", "resume")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "required")
}

func TestCustomizeResume_DefaultOutput(t *testing.T) {
	h := newHarness(t, resumeReply, jobReply, customizationReply, "Jane Doe\nCustomized")

	res := h.run("customize-resume", "--resume", "resume.txt", "--job", "job.txt")
	require.NoError(t, res.err)
	assert.Equal(t, 4, h.client.Calls())
	assert.Contains(t, res.stdout, "Document saved to customized_resume.txt")

	data, err := os.ReadFile(filepath.Join(h.dir, "customized_resume.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nCustomized", string(data))

	// Without --verbose only the model steps are reported.
	assert.Contains(t, res.stderr, "Analyzing resume")
	assert.NotContains(t, res.stderr, "[1/6]")
}

func TestCustomizeResume_Verbose(t *testing.T) {
	h := newHarness(t, resumeReply, jobReply, customizationReply, "Jane Doe\nCustomized")

	res := h.run("customize-resume", "-v", "--resume", "resume.txt", "--job", "job.txt", "--output", "out.txt")
	require.NoError(t, res.err)

	assert.Contains(t, res.stderr, "[1/6]")
	assert.Contains(t, res.stderr, "[6/6]")
	assert.Contains(t, res.stderr, "CUSTOMIZATION SUGGESTIONS")
	assert.FileExists(t, filepath.Join(h.dir, "out.txt"))
}

func TestCustomizeResume_MissingResume(t *testing.T) {
	h := newHarness(t)

	res := h.run("customize-resume", "--resume", "missing.pdf", "--job", "job.txt")
	require.Error(t, res.err)
	assert.True(t, errors.Is(res.err, loader.ErrNotFound))
	assert.Contains(t, res.err.Error(), "missing.pdf")
	assert.Equal(t, 0, h.client.Calls())
	assert.NoFileExists(t, filepath.Join(h.dir, "customized_resume.txt"))
}

func TestCoverLetter_Stdout(t *testing.T) {
	h := newHarness(t, resumeReply, jobReply, "Dear Globex Hiring Team,")

	res := h.run("cover-letter", "--resume", "resume.txt", "--job", "job.txt", "--name", "Jane Doe", "--company", "Globex")
	require.NoError(t, res.err)
	assert.Equal(t, "Dear Globex Hiring Team,\n", res.stdout)
	assert.Contains(t, h.client.Prompts()[2], "Jane Doe")
	assert.Contains(t, h.client.Prompts()[2], "Globex")
}

func TestCoverLetter_RequiresNameAndCompany(t *testing.T) {
	h := newHarness(t)

	res := h.run("cover-letter", "--resume", "resume.txt", "--job", "job.txt")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "company")
	assert.Contains(t, res.err.Error(), "name")
}

func TestJobMatch(t *testing.T) {
	h := newHarness(t, resumeReply, jobReply, matchReply)

	res := h.run("job-match", "--resume", "resume.txt", "--job", "job.txt")
	require.NoError(t, res.err)

	var got types.JobMatch
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	assert.Equal(t, 78, got.MatchScore)
	assert.Equal(t, []string{"Kubernetes"}, got.MissingSkills)
	assert.Equal(t, 3, h.client.Calls())
}

func TestShapeMismatch_ReportsRawOutput(t *testing.T) {
	h := newHarness(t, "I could not find any skills.")

	res := h.run("analyze", "--type", "resume", "--file", "resume.txt")
	require.Error(t, res.err)

	var shapeErr *parsing.ShapeMismatchError
	require.True(t, errors.As(res.err, &shapeErr))

	var out bytes.Buffer
	reportError(&out, res.err)
	assert.Contains(t, out.String(), "Error: ")
	assert.Contains(t, out.String(), "Raw output: I could not find any skills.\n")
	assert.Empty(t, res.stdout)
}

func TestGeminiProvider(t *testing.T) {
	h := newHarness(t, resumeReply)
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	res := h.run("analyze", "--provider", "gemini", "--type", "resume", "--file", "resume.txt")
	require.NoError(t, res.err)

	require.NotNil(t, h.gotConfig)
	assert.Equal(t, llm.ProviderGemini, h.gotConfig.Provider)
	assert.Equal(t, llm.DefaultModel(llm.ProviderGemini), h.gotConfig.Model)
	assert.Equal(t, "gemini-key", h.gotKey)
}

func TestFlagsOverrideConfigFile(t *testing.T) {
	h := newHarness(t, resumeReply)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "resume_tools.yaml"),
		[]byte("llm:\n  model: from-file\n  temperature: 0.2\n"), 0o644))

	res := h.run("analyze", "--model", "from-flag", "--type", "resume", "--file", "resume.txt")
	require.NoError(t, res.err)

	require.NotNil(t, h.gotConfig)
	assert.Equal(t, "from-flag", h.gotConfig.Model)
	assert.InDelta(t, 0.2, h.gotConfig.Temperature, 1e-6)
	assert.Equal(t, "test-key", h.gotKey)
}

func TestReportError_Plain(t *testing.T) {
	var out bytes.Buffer
	reportError(&out, errors.New("boom"))
	assert.Equal(t, "Error: boom\n", out.String())
}
