// internal/workflow/orchestrator.go
package workflow

import (
	"context"
	"fmt"

	"droid-orchestrator/internal/common/config"
	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/models"
	"droid-orchestrator/internal/session"
	"droid-orchestrator/pkg/registry"
)

// Orchestrator dispatches typed task requests to their workflows.
type Orchestrator struct {
	runner   *session.Runner
	registry *registry.PlatformRegistry
	prefs    PreferenceSource
	cfg      config.WorkflowConfig
	logger   logger.Logger
}

// NewOrchestrator creates the top-level workflow dispatcher.
func NewOrchestrator(
	runner *session.Runner,
	reg *registry.PlatformRegistry,
	prefs PreferenceSource,
	cfg config.WorkflowConfig,
	log logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		runner:   runner,
		registry: reg,
		prefs:    prefs,
		cfg:      cfg,
		logger:   log,
	}
}

// Execute runs the workflow for a typed task request. Comparison personas
// return a *models.Verdict; the coordinator persona returns a
// *models.EventSummary.
func (o *Orchestrator) Execute(ctx context.Context, req models.TaskRequest, notifier Notifier) (interface{}, error) {
	switch r := req.(type) {
	case models.ShopperRequest:
		return o.runComparison(ctx, registry.KindShopping, r.Product, notifier)

	case models.RiderRequest:
		query := fmt.Sprintf("ride from %s to %s", r.Pickup, r.Drop)
		return o.runComparison(ctx, registry.KindRide, query, notifier)

	case models.PatientRequest:
		return o.runComparison(ctx, registry.KindPharmacy, r.Medicine, notifier)

	case models.CoordinatorRequest:
		prefs := o.prefs
		if len(r.Menu) > 0 {
			prefs = StaticPreferenceSource{Items: r.Menu}
		}
		coordinator := NewEventCoordinator(
			o.runner,
			o.registry,
			prefs,
			notifier,
			o.logger,
			config.GetDuration(o.cfg.InviteCooldown),
			config.GetDuration(o.cfg.StageDelay),
		)
		return coordinator.Run(ctx, r), nil

	default:
		return nil, fmt.Errorf("no workflow for persona %q", req.Persona())
	}
}

// RunComparisonKind runs a comparison for an arbitrary registered kind. Used
// by the CLI, which addresses kinds directly instead of going through
// personas.
func (o *Orchestrator) RunComparisonKind(ctx context.Context, kind, query string, notifier Notifier) (*models.Verdict, error) {
	return o.runComparison(ctx, kind, query, notifier)
}

func (o *Orchestrator) runComparison(ctx context.Context, kind, query string, notifier Notifier) (*models.Verdict, error) {
	platforms, err := o.registry.Lookup(kind)
	if err != nil {
		return nil, err
	}
	comparison := NewComparison(o.runner, platforms, notifier, o.logger)
	return comparison.Run(ctx, query), nil
}
