// Package main provides the resume_tools command-line interface.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tools/internal/config"
	"github.com/jonathan/resume-tools/internal/parsing"
)

var rootCmd = &cobra.Command{
	Use:   "resume_tools",
	Short: "Analyze resumes and job descriptions, then tailor application documents",
	Long: "resume_tools sends a resume and a job description to a language model to extract structured " +
		"analyses, suggest and apply resume customizations, write cover letters, and score job fit.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err for the user. A missing credential adds the remediation
// line and a shape mismatch adds the model's raw output.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func reportError(w io.Writer, err error) {
	var credErr *config.MissingCredentialError
	if errors.As(err, &credErr) {
		fmt.Fprintf(w, "Error: %s\n%s\n", credErr.Error(), credErr.Remediation())
		return
	}

	fmt.Fprintf(w, "Error: %v\n", err)

	var shapeErr *parsing.ShapeMismatchError
	if errors.As(err, &shapeErr) {
		fmt.Fprintf(w, "Raw output: %s\n", shapeErr.Raw)
	}
}
