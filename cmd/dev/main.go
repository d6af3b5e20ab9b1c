package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dataops/internal/config"
	"dataops/internal/logging"
	"dataops/internal/testkit"
	"dataops/models"
	"dataops/ui/middleware"
	"dataops/ui/widgets"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dataops-dev",
		Short: "DataOps development tools",
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newSampleCmd(),
		newRenderCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type serveOptions struct {
	addr       string
	delay      time.Duration
	fixture    string
	failStatus int
	failBody   string
	logLevel   string
}

func newServeCmd() *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a stand-in analysis API for local development",
		Long: `Serve the analysis API endpoints from canned data so the dashboard and
CLI can be exercised without the real service.

Example: dataops-dev serve --delay 3s --fail-status 400 --fail-body '{"detail":"File type .txt not supported"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", ":8000", "Listen address")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "Artificial latency added to every upload")
	cmd.Flags().StringVar(&opts.fixture, "fixture", "", "Profiling result JSON to serve instead of the built-in sample")
	cmd.Flags().IntVar(&opts.failStatus, "fail-status", 0, "Answer every upload with this status")
	cmd.Flags().StringVar(&opts.failBody, "fail-body", "", "Body sent with --fail-status")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level")
	return cmd
}

func runServe(ctx context.Context, opts serveOptions) error {
	logger := logging.New(config.LogConfig{Level: opts.logLevel, Format: "text"})

	fake := testkit.NewFakeAPI()
	fake.Delay = opts.delay
	fake.UploadStatus = opts.failStatus
	fake.UploadBody = opts.failBody
	if opts.fixture != "" {
		result, err := loadFixture(opts.fixture)
		if err != nil {
			return err
		}
		fake.Result = result
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.Logger(logging.Component(logger, "fake-api")), gin.Recovery())
	router.NoRoute(gin.WrapH(fake))

	srv := &http.Server{Addr: opts.addr, Handler: router}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{"addr": opts.addr, "delay": opts.delay}).Info("fake analysis API listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down fake analysis API")
	return srv.Shutdown(shutdownCtx)
}

func newSampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Print the built-in sample profiling result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(testkit.SampleResult())
		},
	}
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render [fixture.json]",
		Short: "Validate a profiling result file and print its text report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := loadFixture(args[0])
			if err != nil {
				return err
			}
			fmt.Print(widgets.RenderText(result))
			return nil
		},
	}
}

func loadFixture(path string) (*models.ProfilingResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	var result models.ProfilingResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("fixture %s is not a valid profiling result: %w", path, err)
	}
	return &result, nil
}
