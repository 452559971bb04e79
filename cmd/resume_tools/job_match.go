package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var jobMatchCmd = &cobra.Command{
	Use:   "job-match",
	Short: "Score how well a resume fits a job",
	Long:  "Analyze the resume and the job description, then ask the model for a 0-100 match score with strengths, gaps and recommendations.",
	RunE:  runJobMatch,
}

var (
	matchResumeFile string
	matchJobFile    string
	matchOutput     string
)

func init() {
	jobMatchCmd.Flags().StringVarP(&matchResumeFile, "resume", "r", "", "Resume document (required)")
	jobMatchCmd.Flags().StringVarP(&matchJobFile, "job", "j", "", "Job description document or URL (required)")
	jobMatchCmd.Flags().StringVarP(&matchOutput, "output", "o", "", "Write the JSON here instead of stdout")

	_ = jobMatchCmd.MarkFlagRequired("resume")
	_ = jobMatchCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(jobMatchCmd)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runJobMatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	outcome, err := a.pipeline.MatchJob(ctx, matchResumeFile, matchJobFile)
	if err != nil {
		return err
	}
	a.summarize(outcome)

	data, err := json.MarshalIndent(outcome.Match, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job match: %w", err)
	}

	if matchOutput != "" {
		return a.save(ctx, matchOutput, data, "application/json")
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}
