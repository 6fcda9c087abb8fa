// cmd/orchestrator/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"droid-orchestrator/internal/common/config"
	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/common/observability"
	"droid-orchestrator/internal/device"
	"droid-orchestrator/internal/server"
	"droid-orchestrator/internal/session"
	"droid-orchestrator/internal/workflow"
	"droid-orchestrator/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting orchestrator...")

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	if !cfg.LLM.HasLLMCredential() {
		// Missing credential is deliberately not fatal: the portal reports
		// the failure per session if it actually needs the key.
		zapLog.Warn("No LLM API key configured; device sessions may fail",
			zap.String("provider", cfg.LLM.Provider),
		)
	}

	// --- Init device portal with reachability probe ---
	portal := device.NewPortalClient(cfg.Portal, log)
	err = retryWithBackoff(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return portal.Ping(ctx)
	}, cfg.Portal.ConnectRetries, 2*time.Second, zapLog, "Device portal connection")

	if err != nil {
		zapLog.Fatal("device portal unreachable after retries", zap.Error(err))
	}
	zapLog.Info("Device portal connected successfully")

	// --- Load platform registry ---
	var reg *registry.PlatformRegistry
	if cfg.Platforms.RegistryPath != "" {
		reg, err = registry.Load(cfg.Platforms.RegistryPath)
		if err != nil {
			zapLog.Warn("Platform registry load failed, using built-in defaults",
				zap.String("path", cfg.Platforms.RegistryPath),
				zap.Error(err),
			)
			reg = registry.Default()
		}
	} else {
		reg = registry.Default()
	}
	zapLog.Info("Platform registry ready", zap.Strings("kinds", reg.Kinds()))

	// --- Wire workflows and server ---
	gate := device.NewGate()
	runner := session.NewRunner(portal, gate, obs, log)
	orch := workflow.NewOrchestrator(runner, reg, workflow.StaticPreferenceSource{}, cfg.Workflow, log)

	hub := server.NewHub(log)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	srv := server.New(cfg.Server, cfg.App.Name, hub, orch, log)
	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	hubCancel()

	zapLog.Info("Orchestrator stopped gracefully")
}
