package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jonathan/resume-tools/internal/config"
	"github.com/jonathan/resume-tools/internal/db"
	"github.com/jonathan/resume-tools/internal/fetch"
	"github.com/jonathan/resume-tools/internal/llm"
	"github.com/jonathan/resume-tools/internal/loader"
	"github.com/jonathan/resume-tools/internal/logging"
	"github.com/jonathan/resume-tools/internal/observability"
	"github.com/jonathan/resume-tools/internal/pipeline"
	"github.com/jonathan/resume-tools/internal/pipeline/steps"
	"github.com/jonathan/resume-tools/internal/storage"
)

var configPath string

// flagBindings maps config keys to persistent flag names.
var flagBindings = map[string]string{
	"llm.provider":      "provider",
	"llm.model":         "model",
	"llm.temperature":   "temperature",
	"llm.api_key":       "api-key",
	"logging.level":     "log-level",
	"logging.format":    "log-format",
	"database.url":      "db-url",
	"verbose":           "verbose",
	"fetch.use_browser": "use-browser",
}

// newLLMClient is replaced in tests.
var newLLMClient = llm.NewClient

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to config file (default: ./resume_tools.yaml if present)")
	pf.String("provider", "", "LLM provider: openai or gemini (default openai)")
	pf.String("model", "", "Model name (default depends on provider)")
	pf.Float64("temperature", 0, "Sampling temperature (default 0.7)")
	pf.String("api-key", "", "API key (overrides OPENAI_API_KEY / GEMINI_API_KEY)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("log-format", "", "Log format: console or json")
	pf.String("db-url", "", "PostgreSQL URL; when set, completed runs are recorded")
	pf.BoolP("verbose", "v", false, "Print step progress and record summaries to stderr")
	pf.Bool("use-browser", false, "Render job pages in headless Chrome when a plain fetch returns little text")
}

// loadConfig resolves configuration for cmd from defaults, file, environment and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	if err := bindFlags(v, cmd); err != nil {
		return nil, err
	}
	return config.Load(v, configPath)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()
	for key, name := range flagBindings {
		if err := v.BindPFlag(key, pf.Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	if port := cmd.Flags().Lookup("port"); port != nil {
		if err := v.BindPFlag("server.port", port); err != nil {
			return fmt.Errorf("failed to bind --port: %w", err)
		}
	}
	return nil
}

// app holds everything a command needs to run the pipeline.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *storage.Store
	client   llm.Client
	history  *db.DB
	pipeline *pipeline.Pipeline
	printer  *observability.Printer
	stdout   io.Writer
	stderr   io.Writer
}

// newApp validates configuration and wires the pipeline. Callers must call close.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate().Err(cfg); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   storage.New(storage.WithRegion(cfg.Storage.Region), storage.WithLogger(logger)),
		printer: observability.NewPrinter(cmd.ErrOrStderr()),
		stdout:  cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
	}

	a.client, err = newLLMClient(ctx, cfg.LLMClientConfig(), cfg.LLM.APIKey)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	fetchOpts := fetch.DefaultOptions()
	fetchOpts.Timeout = cfg.Fetch.Timeout
	source := loader.New(
		loader.WithStore(a.store),
		loader.WithStdin(cmd.InOrStdin()),
		loader.WithFetchOptions(fetchOpts),
		loader.WithBrowser(cfg.Fetch.UseBrowser),
		loader.WithLogger(logger),
	)

	opts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithProgress(a.progress),
	}
	if cfg.HistoryEnabled() {
		if a.history, err = openHistory(ctx, cfg.Database.URL); err != nil {
			a.close()
			return nil, err
		}
		opts = append(opts, pipeline.WithRecorder(a.history))
	}

	a.pipeline = pipeline.New(a.client, source, opts...)
	return a, nil
}

func openHistory(ctx context.Context, url string) (*db.DB, error) {
	database, err := db.Connect(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// progress reports each step on stderr. Without --verbose only model calls are shown.
//
//nolint:errcheck // writing to stderr; errors are not recoverable
func (a *app) progress(event pipeline.Event) {
	if a.cfg.Verbose {
		a.printer.PrintEvent(event)
		return
	}
	if steps.StepRegistry[event.Step].CallsModel {
		fmt.Fprintln(a.stderr, event.Message)
	}
}

// summarize prints the outcome's records in verbose mode.
func (a *app) summarize(outcome *pipeline.Outcome) {
	if a.cfg.Verbose {
		a.printer.PrintOutcome(outcome)
	}
}

// save writes data to a local path or s3:// URI and reports where it went.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (a *app) save(ctx context.Context, dst string, data []byte, contentType string) error {
	if err := a.store.Write(ctx, dst, data, contentType); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Document saved to %s\n", dst)
	return nil
}

func (a *app) close() {
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			a.logger.Debug("failed to close LLM client", zap.Error(err))
		}
	}
	if a.history != nil {
		a.history.Close()
	}
	_ = a.logger.Sync()
}
