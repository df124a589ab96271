package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	api "github.com/uccuyo/valorador/internal/api/http"
	auth "github.com/uccuyo/valorador/internal/auth/middleware"
	"github.com/uccuyo/valorador/internal/config"
	"github.com/uccuyo/valorador/internal/evaluation"
	"github.com/uccuyo/valorador/internal/extract"
	"github.com/uccuyo/valorador/internal/grading"
	"github.com/uccuyo/valorador/internal/metrics"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "valorador",
		Short: "Final report scoring tool for research projects",
		Long: `valorador serves the evaluator form for final reports of research
projects: upload a PDF or DOCX report, score the 11 rubric criteria from
0 to 4, and download the result as an Excel sheet or a Word verdict.

Configuration comes from the environment (and an optional .env file).`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	rubric, err := loadRubric(cfg.RubricPath)
	if err != nil {
		return err
	}
	logger.Info("rubric loaded", "title", rubric.Title, "criteria", len(rubric.Criteria),
		"unit", rubric.Unit, "source", rubricSource(cfg.RubricPath))

	creds, generated, err := auth.NewCredentials(cfg.EvaluatorUser, cfg.EvaluatorPassHash)
	if err != nil {
		return err
	}
	if generated != "" {
		logger.Warn("EVALUATOR_PASS_HASH not set; using a one-time password for this process",
			"user", cfg.EvaluatorUser, "password", generated)
	}

	m := metrics.New()
	extractor := extract.NewRegistry(extract.WithMaxBytes(cfg.MaxUploadBytes), extract.WithTimeout(cfg.ExtractTimeout))
	svc := evaluation.NewService(rubric, extractor, evaluation.NewStore(cfg.SessionTTL), m, logger,
		evaluation.Options{Institution: cfg.Institution, ExcerptChars: cfg.ExcerptChars})

	router := api.NewRouter(api.Deps{
		Service:        svc,
		Auth:           auth.NewAuthService(cfg.AuthSecret, cfg.SessionTTL),
		Credentials:    creds,
		Metrics:        m,
		Logger:         logger,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
		SecureCookies:  strings.HasPrefix(cfg.PublicURL, "https://"),
		RequestTimeout: cfg.ExtractTimeout + 30*time.Second,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr, "public_url", cfg.PublicURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("shutdown complete")
	return nil
}

func loadRubric(path string) (*grading.Rubric, error) {
	if path == "" {
		return grading.DefaultRubric(), nil
	}
	r, err := grading.LoadRubric(path)
	if err != nil {
		return nil, fmt.Errorf("load rubric: %w", err)
	}
	return r, nil
}

func rubricSource(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func newLogger(level, format string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
