package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	httpapp "github.com/alphabot-ai/discuss/internal/http"
	"github.com/alphabot-ai/discuss/internal/rate"
	"github.com/alphabot-ai/discuss/internal/store/sqlite"
)

func (a *app) serve(c *cli.Context) error {
	cfg := a.cfg.Server
	if addr := c.String("addr"); addr != "" {
		cfg.Addr = addr
	}
	if db := c.String("db"); db != "" {
		cfg.DBPath = db
	}

	logger := setupLogger(a.cfg.Env, a.out)
	slog.SetDefault(logger)
	logger.Info("starting discuss", slog.String("env", a.cfg.Env), slog.String("version", version))

	st, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer st.Close()

	server, err := httpapp.NewServer(st, rate.NewMemory(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("discuss listening", slog.String("addr", cfg.Addr), slog.String("db", cfg.DBPath))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
