package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stevemurr/cafe-server/config"
	"github.com/stevemurr/cafe-server/handler"
	"github.com/stevemurr/cafe-server/logging"
	"github.com/stevemurr/cafe-server/metrics"
	"github.com/stevemurr/cafe-server/store"
)

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	m := metrics.New()
	s, err := store.New(ctx, cfg.Backend, cfg.DataDir, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create store", zap.String("backend", cfg.Backend), zap.Error(err))
		return err
	}
	defer s.Close()

	h := handler.New(store.WithObserver(s, cfg.Backend, m), handler.Options{
		FrontendDir:    cfg.FrontendDir,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
		Metrics:        m,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("store", cfg.Backend),
			zap.String("data", cfg.DataDir),
			zap.String("frontend", cfg.FrontendDir))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
