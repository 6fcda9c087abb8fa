// cmd/compare/main.go

// compare runs a single two-platform comparison from the command line and
// prints the verdict as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"droid-orchestrator/internal/common/config"
	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/device"
	"droid-orchestrator/internal/session"
	"droid-orchestrator/internal/workflow"
	"droid-orchestrator/pkg/registry"
)

// stderrNotifier prints progress lines so the JSON on stdout stays clean.
type stderrNotifier struct{}

func (stderrNotifier) Publish(message string) {
	fmt.Fprintln(os.Stderr, message)
}

func main() {
	task := flag.String("task", "shopping", "comparison kind: shopping, food, ride, or pharmacy")
	query := flag.String("query", "", "what to search for (required)")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: compare --task shopping --query 'wireless earbuds'")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	portal := device.NewPortalClient(cfg.Portal, log)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := portal.Ping(pingCtx); err != nil {
		zapLog.Error("device portal unreachable", zap.Error(err))
		os.Exit(1)
	}

	var reg *registry.PlatformRegistry
	if cfg.Platforms.RegistryPath != "" {
		reg, err = registry.Load(cfg.Platforms.RegistryPath)
		if err != nil {
			zapLog.Warn("Platform registry load failed, using built-in defaults", zap.Error(err))
			reg = registry.Default()
		}
	} else {
		reg = registry.Default()
	}

	runner := session.NewRunner(portal, device.NewGate(), nil, log)
	orch := workflow.NewOrchestrator(runner, reg, workflow.StaticPreferenceSource{}, cfg.Workflow, log)

	verdict, err := orch.RunComparisonKind(context.Background(), *task, *query, stderrNotifier{})
	if err != nil {
		zapLog.Error("comparison failed", zap.Error(err))
		os.Exit(1)
	}

	out, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		zapLog.Error("failed to render verdict", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(string(out))
}
