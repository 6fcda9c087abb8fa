// internal/workflow/comparison.go

// Package workflow composes automation sessions into multi-stage workflows.
package workflow

import (
	"context"
	"fmt"

	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/compare"
	"droid-orchestrator/internal/models"
	"droid-orchestrator/internal/session"
	"droid-orchestrator/pkg/registry"
)

// Notifier receives human-readable progress lines from a running workflow.
type Notifier interface {
	Publish(message string)
}

// NopNotifier discards all progress lines.
type NopNotifier struct{}

func (NopNotifier) Publish(string) {}

// ComparisonState tracks where a comparison workflow currently is. The
// workflow always advances to StateDone, whatever the sessions returned.
type ComparisonState string

const (
	StatePendingPlatformA ComparisonState = "pending_platform_a"
	StatePendingPlatformB ComparisonState = "pending_platform_b"
	StateDeciding         ComparisonState = "deciding"
	StateDone             ComparisonState = "done"
)

// Comparison runs the same search on two platforms sequentially and decides
// a winner.
type Comparison struct {
	runner    *session.Runner
	platforms registry.TaskPlatforms
	notifier  Notifier
	logger    logger.Logger

	state ComparisonState
}

// NewComparison creates a comparison workflow for one platform pair.
func NewComparison(runner *session.Runner, platforms registry.TaskPlatforms, notifier Notifier, log logger.Logger) *Comparison {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Comparison{
		runner:    runner,
		platforms: platforms,
		notifier:  notifier,
		logger:    log,
		state:     StatePendingPlatformA,
	}
}

// State returns the workflow's current state.
func (c *Comparison) State() ComparisonState {
	return c.state
}

// Run executes the comparison end to end. Platform sessions run one after
// the other because both need the single device. Session failures never
// abort the workflow; they show up as failed details in the verdict.
func (c *Comparison) Run(ctx context.Context, query string) *models.Verdict {
	platformA := c.platforms.Platforms[0]
	platformB := c.platforms.Platforms[1]

	c.state = StatePendingPlatformA
	c.notifier.Publish(fmt.Sprintf("Checking %s for '%s'...", platformA, query))
	resultA := c.runner.RunSearch(ctx, platformA, c.platforms.ItemType, query)

	c.state = StatePendingPlatformB
	c.notifier.Publish(fmt.Sprintf("Checking %s for '%s'...", platformB, query))
	resultB := c.runner.RunSearch(ctx, platformB, c.platforms.ItemType, query)

	c.state = StateDeciding
	winner, recommendation := compare.ChooseWinner(resultA, resultB, platformA, platformB)

	c.state = StateDone
	c.logger.Info("Comparison decided", map[string]interface{}{
		"kind":   c.platforms.Kind,
		"query":  query,
		"winner": winner,
	})

	return &models.Verdict{
		Query:          query,
		Category:       c.platforms.Kind,
		WinnerPlatform: winner,
		Recommendation: recommendation,
		Details: map[string]*models.SessionResult{
			platformA: resultA,
			platformB: resultB,
		},
	}
}
