package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alphabot-ai/discuss/internal/config"
	"github.com/alphabot-ai/discuss/internal/pkg/log"
	"github.com/alphabot-ai/discuss/internal/seed"
	"github.com/alphabot-ai/discuss/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to config file (overrides CONFIG_PATH env)")
	file := flag.String("file", "comments.json", "fixture to import")
	dbPath := flag.String("db", "", "database path (overrides server.db_path)")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	if *dbPath != "" {
		cfg.Server.DBPath = *dbPath
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(cfg.Server.DBPath, *file, logger); err != nil {
		logger.Error("seed failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(dbPath, file string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Into(ctx, logger)

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()

	st, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer st.Close()

	logger.Info("seeding", slog.String("db", dbPath), slog.String("file", file))
	res, err := seed.Load(ctx, f, st)
	if err != nil {
		return fmt.Errorf("load %s (created %d before failing): %w", file, res.Created, err)
	}
	logger.Info("✓ Data loaded successfully", slog.Int("created", res.Created), slog.Int("skipped", res.Skipped))
	return nil
}
