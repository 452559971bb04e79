package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var coverLetterCmd = &cobra.Command{
	Use:   "cover-letter",
	Short: "Write a cover letter for a job",
	RunE:  runCoverLetter,
}

var (
	coverResumeFile string
	coverJobFile    string
	coverName       string
	coverCompany    string
	coverOutput     string
)

func init() {
	coverLetterCmd.Flags().StringVarP(&coverResumeFile, "resume", "r", "", "Resume document (required)")
	coverLetterCmd.Flags().StringVarP(&coverJobFile, "job", "j", "", "Job description document or URL (required)")
	coverLetterCmd.Flags().StringVar(&coverName, "name", "", "Applicant name (required)")
	coverLetterCmd.Flags().StringVar(&coverCompany, "company", "", "Company name (required)")
	coverLetterCmd.Flags().StringVarP(&coverOutput, "output", "o", "", "Write the letter here instead of stdout")

	for _, name := range []string{"resume", "job", "name", "company"} {
		_ = coverLetterCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(coverLetterCmd)
}

//nolint:errcheck // writing to stdout; errors are not recoverable
func runCoverLetter(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	outcome, err := a.pipeline.GenerateCoverLetter(ctx, coverResumeFile, coverJobFile, coverName, coverCompany)
	if err != nil {
		return err
	}
	a.summarize(outcome)

	if coverOutput != "" {
		return a.save(ctx, coverOutput, []byte(outcome.Text), "text/plain; charset=utf-8")
	}
	fmt.Fprintln(a.stdout, outcome.Text)
	return nil
}
