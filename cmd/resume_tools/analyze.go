package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tools/internal/pipeline"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Extract a structured analysis from a resume or a job description",
	Long: "Send a resume or job description to the model and print the structured analysis as JSON. " +
		"The input may be a local file (.txt, .md, .pdf, .docx), an s3:// URI, a job posting URL, or - for stdin.",
	RunE: runAnalyze,
}

var (
	analyzeType   string
	analyzeFile   string
	analyzeOutput string
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeType, "type", "", "What to analyze: resume or job (required)")
	analyzeCmd.Flags().StringVarP(&analyzeFile, "file", "f", "", "Input document (required)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "Write the JSON here instead of stdout")

	_ = analyzeCmd.MarkFlagRequired("type")
	_ = analyzeCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(analyzeCmd)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runAnalyze(cmd *cobra.Command, _ []string) error {
	if analyzeType != "resume" && analyzeType != "job" {
		return fmt.Errorf("invalid --type %q: must be resume or job", analyzeType)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	var (
		outcome *pipeline.Outcome
		record  any
	)
	if analyzeType == "resume" {
		if outcome, err = a.pipeline.AnalyzeResume(ctx, analyzeFile); err != nil {
			return err
		}
		record = outcome.ResumeAnalysis
	} else {
		if outcome, err = a.pipeline.AnalyzeJob(ctx, analyzeFile); err != nil {
			return err
		}
		record = outcome.JobAnalysis
	}
	a.summarize(outcome)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	if analyzeOutput != "" {
		return a.save(ctx, analyzeOutput, data, "application/json")
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}
