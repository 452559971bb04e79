package main

import (
	"github.com/spf13/cobra"
)

var customizeResumeCmd = &cobra.Command{
	Use:   "customize-resume",
	Short: "Rewrite a resume for a specific job",
	Long: "Analyze the resume and the job description, ask the model for customization suggestions, " +
		"then rewrite the resume with them applied.",
	RunE: runCustomizeResume,
}

var (
	customizeResumeFile string
	customizeJobFile    string
	customizeOutput     string
)

func init() {
	customizeResumeCmd.Flags().StringVarP(&customizeResumeFile, "resume", "r", "", "Resume document (required)")
	customizeResumeCmd.Flags().StringVarP(&customizeJobFile, "job", "j", "", "Job description document or URL (required)")
	customizeResumeCmd.Flags().StringVarP(&customizeOutput, "output", "o", "customized_resume.txt", "Where to write the customized resume")

	_ = customizeResumeCmd.MarkFlagRequired("resume")
	_ = customizeResumeCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(customizeResumeCmd)
}

func runCustomizeResume(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	outcome, err := a.pipeline.CustomizeResume(ctx, customizeResumeFile, customizeJobFile)
	if err != nil {
		return err
	}
	a.summarize(outcome)

	return a.save(ctx, customizeOutput, []byte(outcome.Text), "text/plain; charset=utf-8")
}
