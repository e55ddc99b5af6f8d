package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakecdahm/exporter/internal/api"
	"github.com/jakecdahm/exporter/internal/config"
	"github.com/jakecdahm/exporter/internal/db"
	"github.com/jakecdahm/exporter/internal/host"
	"github.com/jakecdahm/exporter/internal/logging"
	"github.com/jakecdahm/exporter/internal/queue"
)

const lastProjectKey = "last_project_key"

var (
	flagFake     bool
	flagCutSheet bool
)

func main() {
	root := &cobra.Command{
		Use:          "exporterd",
		Short:        "Export queue engine for timeline-based editors",
		SilenceUsage: true,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the export queue daemon",
		RunE: func(_ *cobra.Command, _ []string) error {
			return serve()
		},
	}
	serveCmd.Flags().BoolVar(&flagFake, "fake", false, "Use the in-memory fake host instead of the editor bridge")
	serveCmd.Flags().BoolVar(&flagCutSheet, "cut-sheet", false, "Write a companion cut-sheet CSV for ranged exports")

	root.AddCommand(serveCmd)
	root.AddCommand(newClientCommands()...)

	if err := root.Execute(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func serve() error {
	startTime := time.Now()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.RunLogDir(), 0755); err != nil {
		return fmt.Errorf("failed to create run log dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting exporterd", "version", config.Version, "data_dir", logging.SanitizePath(cfg.DataDir()))

	database, err := db.New(cfg.DBPath(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	store := queue.NewStore(database.Conn())

	adapter, err := newAdapter(cfg, flagFake, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	projectKey, err := resolveProjectKey(ctx, adapter, store, logger)
	if err != nil {
		return err
	}

	engine := queue.NewEngine(adapter, store, projectKey, queue.Options{
		Template:     cfg.FilenameTemplate(),
		MarkerBefore: cfg.MarkerBefore(),
		MarkerAfter:  cfg.MarkerAfter(),
		PruneDelay:   cfg.PruneDelay(),
		RunLogDir:    cfg.RunLogDir(),
		CutSheet:     flagCutSheet,
	}, logger)

	if err := engine.Restore(ctx); err != nil {
		return err
	}

	apiServer := api.NewServer(api.ServerConfig{
		Port:      cfg.Port(),
		Engine:    engine,
		Store:     store,
		Logger:    logger,
		StartTime: startTime,
		Version:   config.Version,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	engine.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("exporterd stopped")
	return nil
}

// newAdapter selects the host backend. The bridge URL must be configured
// unless the in-memory fake was explicitly requested; an empty base URL
// would only surface later as confusing request errors.
func newAdapter(cfg config.Config, useFake bool, logger *slog.Logger) (host.Adapter, error) {
	if useFake {
		logger.Warn("using in-memory fake host, no real exports will happen")
		return host.NewFake("Fake Project"), nil
	}
	if cfg.BridgeURL() == "" {
		return nil, fmt.Errorf("%s must be set when not running with --fake", config.EnvBridgeURL)
	}
	return host.NewBridgeClient(cfg.BridgeURL(), cfg.BridgeTimeout(), logger), nil
}

// resolveProjectKey asks the host which project is open. When the host is
// unreachable at startup the last known key is reused so the persisted
// queue still loads.
func resolveProjectKey(ctx context.Context, adapter host.Adapter, store queue.Store, logger *slog.Logger) (string, error) {
	nameCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	name, err := adapter.ProjectName(nameCtx)
	if err == nil && name != "" {
		if setErr := store.SetConfig(ctx, lastProjectKey, name); setErr != nil {
			logger.Warn("failed to remember project key", "error", setErr)
		}
		return name, nil
	}

	logger.Warn("host unreachable, falling back to last known project", "error", err)
	last, getErr := store.GetConfig(ctx, lastProjectKey)
	if getErr != nil || last == "" {
		return "", fmt.Errorf("cannot determine project: host unreachable and no prior project recorded")
	}
	return last, nil
}
