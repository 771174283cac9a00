package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/haivivi/mtreecluster/internal/config"
	"github.com/haivivi/mtreecluster/internal/workersvc"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the worker HTTP server",
	Long: `serve starts the worker's HTTP surface and blocks until SIGINT or
SIGTERM.

Environment variables:
  WORKER_NODE_ID          worker identity reported in status responses (default: worker-<pid>)
  M_TREE_MAX_CHILDREN     max entries per m-tree node (default 4)
  M_TREE_MIN_CHILDREN     min entries per non-root m-tree node (default 2)
  M_TREE_DISTANCE_METRIC  euclidean or cosine (default euclidean)
  ORCHESTRATOR_HOST       bind host (default 0.0.0.0)
  WORKER_BASE_PORT        bind port (default 5001)
  LOG_LEVEL               DEBUG, INFO, WARN, or ERROR (default INFO)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWorker()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	svc, err := workersvc.New(workersvc.Config{
		NodeID:         cfg.NodeID,
		MaxChildren:    cfg.MaxChildren,
		MinChildren:    cfg.MinChildren,
		DistanceMetric: cfg.DistanceMetric,
	})
	if err != nil {
		return fmt.Errorf("construct service: %w", err)
	}

	server := workersvc.NewServer(svc)
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{Addr: addr, Handler: server}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("worker listening", "addr", addr, "node_id", cfg.NodeID, "metric", cfg.DistanceMetric)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	logger.Info("worker stopped")
	return nil
}
