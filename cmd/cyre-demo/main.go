// Command cyre-demo runs a small HTTP service around a single Cyre
// instance: an admin API to call/inspect channels, a
// Prometheus /metrics endpoint, and a websocket stream of every
// sensor event the engine emits. It exists to exercise the public
// cyre package end to end, the way cmd/server composes the main
// service's collaborators into one running process.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyreio/cyre-go/pkg/logger"
)

const serviceName = "cyre-demo"

var configPath string

func main() {
	root := &cobra.Command{
		Use:   serviceName,
		Short: "Run a demo HTTP service around a Cyre instance",
		RunE:  runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(serviceName, "dev")
		},
	}
	root.AddCommand(versionCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	a, err := newApp(cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.inst.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.refreshMetricsLoop(ctx, time.Second)
	go a.runPersistLoop(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      a.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown error", "error", err)
	}

	if a.store != nil {
		snap, err := captureSnapshot(a)
		if err != nil {
			log.Error("final snapshot capture failed", "error", err)
		} else if err := a.store.Save(shutdownCtx, snap); err != nil {
			log.Error("final snapshot save failed", "error", err)
		}
	}

	cancel()
	return nil
}
