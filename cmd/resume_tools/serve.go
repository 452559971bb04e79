package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-tools/internal/pipeline"
	"github.com/jonathan/resume-tools/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the resume operations as JSON endpoints.
When --db-url is set, completed runs are recorded and served under /runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.cfg.ValidateServer().Err(a.cfg); err != nil {
		return err
	}

	opts := []server.Option{server.WithLogger(a.logger)}
	if a.history != nil {
		opts = append(opts, server.WithRunStore(a.history))
	}

	srv, err := server.New(server.Config{
		Port:           a.cfg.Server.Port,
		RateLimit:      a.cfg.Server.RateLimit,
		RateBurst:      a.cfg.Server.RateBurst,
		MaxConcurrent:  a.cfg.Server.MaxConcurrent,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
	}, a.pipeline.With(pipeline.WithProgress(nil)), opts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(cmd.Context())
}
