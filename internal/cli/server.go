package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/docqa/internal/job"
	"github.com/hyperjump/docqa/internal/schedule"
	"github.com/hyperjump/docqa/internal/server"
	"github.com/hyperjump/docqa/pkg/utils"
)

func newServerCmd(opts *globalOptions) *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(opts, debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

func runServer(opts *globalOptions, debug bool) error {
	cfg, resolvedPath, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(debug || cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("config loaded", zap.String("path", resolvedPath))

	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	scheduler := schedule.NewCronScheduler(logger)
	if cfg.Retention.Enabled {
		retention := job.NewRetentionJob(components.Store, components.History, cfg.Retention.MaxAge, logger)
		if err := scheduler.AddJob(retention, cfg.Retention.Schedule); err != nil {
			return fmt.Errorf("failed to schedule retention: %w", err)
		}
	}
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	scheduler.Start(schedCtx)
	defer scheduler.Stop()

	srv := server.NewServer(components.Service, &cfg.Server, server.HealthInfo{
		EmbeddingProvider:  cfg.Embedding.Provider,
		GenerationProvider: cfg.Generation.Provider,
		DiskPaths:          []string{cfg.Storage.DatabasePath, cfg.Storage.HistoryIndexPath},
	}, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigChan:
	}

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
	return nil
}
