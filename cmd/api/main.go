package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learnwise/internal/api"
	"learnwise/internal/config"
	"learnwise/internal/providers"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	addr      string
	uploadDir string
)

func main() {
	_ = godotenv.Load(".env")
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "learnwise",
		Short:         "LearnWise study assistant API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if addr != "" {
				cfg.APIAddr = addr
			}
			if uploadDir != "" {
				cfg.UploadDir = uploadDir
			}
			logger := newLogger(cfg)
			if err := serve(cmd.Context(), cfg, logger); err != nil {
				logger.Error("server stopped", "err", err)
				return err
			}
			return nil
		},
	}
	root.Flags().StringVar(&addr, "addr", "", "listen address (overrides PORT and LEARNWISE_API_ADDR)")
	root.Flags().StringVar(&uploadDir, "upload-dir", "", "directory for uploaded files (overrides UPLOAD_DIR)")
	root.AddCommand(checkConfigCmd())
	return root
}

func newLogger(cfg config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "learnwise",
	})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.Production() {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}

func newGateway(cfg config.Config, logger *log.Logger) *providers.Gateway {
	return providers.NewGateway(providers.Options{
		Provider:   cfg.AIProvider,
		Timeout:    cfg.AITimeout(),
		MaxRetries: cfg.AIMaxRetries,
		Logger:     logger,
	})
}

func serve(ctx context.Context, cfg config.Config, logger *log.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	gw := newGateway(cfg, logger)
	srv, err := api.NewServer(cfg, gw, logger)
	if err != nil {
		return err
	}

	ai := gw.ResolveConfig()
	if !ai.HasAPIKey && !ai.Keyless {
		logger.Warn("AI provider has no API key; AI endpoints will fail until it is set", "provider", ai.Provider, "env", ai.KeyEnv)
	}

	httpSrv := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("learnwise api listening", "addr", cfg.APIAddr, "provider", ai.Provider, "model", ai.Model, "upload_dir", cfg.UploadDir)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
