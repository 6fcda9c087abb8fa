// internal/workflow/event.go
package workflow

import (
	"context"
	"fmt"
	"time"

	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/common/metrics"
	"droid-orchestrator/internal/models"
	"droid-orchestrator/internal/session"
	"droid-orchestrator/pkg/registry"
)

// PreferenceSource supplies the catering menu for an event. The default
// implementation is static; a real one would read guest preferences from a
// messaging thread or a form.
type PreferenceSource interface {
	Menu(ctx context.Context, eventName string) ([]string, error)
}

// StaticPreferenceSource returns a fixed menu for every event.
type StaticPreferenceSource struct {
	Items []string
}

// DefaultMenu is the fallback catering menu.
var DefaultMenu = []string{"Butter Chicken", "Garlic Naan", "Paneer Tikka", "Coke"}

func (s StaticPreferenceSource) Menu(ctx context.Context, eventName string) ([]string, error) {
	if len(s.Items) == 0 {
		return DefaultMenu, nil
	}
	return s.Items, nil
}

// EventCoordinator runs the three-stage event workflow: invite guests over
// WhatsApp, order catering, then book guest rides. Each stage runs every
// iteration to completion; individual failures are recorded and skipped.
type EventCoordinator struct {
	runner         *session.Runner
	registry       *registry.PlatformRegistry
	prefs          PreferenceSource
	notifier       Notifier
	logger         logger.Logger
	inviteCooldown time.Duration
	stageDelay     time.Duration
}

// NewEventCoordinator creates an event workflow.
func NewEventCoordinator(
	runner *session.Runner,
	reg *registry.PlatformRegistry,
	prefs PreferenceSource,
	notifier Notifier,
	log logger.Logger,
	inviteCooldown time.Duration,
	stageDelay time.Duration,
) *EventCoordinator {
	if prefs == nil {
		prefs = StaticPreferenceSource{}
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &EventCoordinator{
		runner:         runner,
		registry:       reg,
		prefs:          prefs,
		notifier:       notifier,
		logger:         log,
		inviteCooldown: inviteCooldown,
		stageDelay:     stageDelay,
	}
}

// Run executes the full event workflow and returns a summary covering every
// iteration of every stage.
func (e *EventCoordinator) Run(ctx context.Context, req models.CoordinatorRequest) *models.EventSummary {
	summary := &models.EventSummary{EventName: req.EventName}

	e.runInvites(ctx, req, summary)
	e.pause(ctx, e.stageDelay)
	e.runOrders(ctx, req, summary)
	e.pause(ctx, e.stageDelay)
	e.runRides(ctx, req, summary)

	e.logger.Info("Event workflow complete", map[string]interface{}{
		"event":   req.EventName,
		"invites": len(summary.Invites),
		"orders":  len(summary.Orders),
		"rides":   len(summary.Rides),
	})
	return summary
}

func (e *EventCoordinator) runInvites(ctx context.Context, req models.CoordinatorRequest, summary *models.EventSummary) {
	message := fmt.Sprintf(
		"Hi! You are invited to %s. Please reply YES to confirm. See you there!",
		req.EventName,
	)

	for i, guest := range req.GuestList {
		if i > 0 {
			// Cooldown between messaging sessions so consecutive chats do
			// not race the app's UI transitions.
			e.pause(ctx, e.inviteCooldown)
		}

		e.notifier.Publish(fmt.Sprintf("Inviting %s...", guest.Name))
		result := e.runner.RunMessage(ctx, guest.Name, message)

		outcome := models.InviteOutcome{Guest: guest, Status: result.Status}
		if !result.Succeeded() {
			outcome.Error = result.Error
			metrics.WorkflowStepsFailed.WithLabelValues("event", "invite").Inc()
			e.logger.Warn("Invite failed, continuing with next guest", map[string]interface{}{
				"guest": guest.Name,
				"error": result.Error,
			})
		}
		summary.Invites = append(summary.Invites, outcome)
	}
}

func (e *EventCoordinator) runOrders(ctx context.Context, req models.CoordinatorRequest, summary *models.EventSummary) {
	menu, err := e.prefs.Menu(ctx, req.EventName)
	if err != nil {
		e.logger.Warn("Preference source failed, using default menu", map[string]interface{}{
			"error": err.Error(),
		})
		menu = DefaultMenu
	}

	platform := orderPlatform(e.registry)

	for _, item := range menu {
		e.notifier.Publish(fmt.Sprintf("Ordering %s on %s...", item, platform))
		result := e.runner.RunOrder(ctx, platform, item)

		outcome := models.OrderOutcome{MenuItem: item, Platform: platform, Status: result.Status}
		if !result.Succeeded() {
			outcome.Error = result.Error
			metrics.WorkflowStepsFailed.WithLabelValues("event", "order").Inc()
			e.logger.Warn("Order failed, continuing with next item", map[string]interface{}{
				"item":  item,
				"error": result.Error,
			})
		}
		summary.Orders = append(summary.Orders, outcome)
	}
}

func (e *EventCoordinator) runRides(ctx context.Context, req models.CoordinatorRequest, summary *models.EventSummary) {
	ridePlatforms, err := e.registry.Lookup(registry.KindRide)
	if err != nil {
		e.logger.Error("No ride platforms registered, skipping logistics", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	for _, ride := range req.Logistics {
		e.notifier.Publish(fmt.Sprintf("Comparing rides for %s (%s → %s)...", ride.GuestName, ride.Pickup, ride.Drop))

		comparison := NewComparison(e.runner, ridePlatforms, e.notifier, e.logger)
		verdict := comparison.Run(ctx, fmt.Sprintf("ride from %s to %s", ride.Pickup, ride.Drop))

		outcome := models.RideOutcome{
			GuestName:      ride.GuestName,
			Pickup:         ride.Pickup,
			Drop:           ride.Drop,
			WinnerPlatform: verdict.WinnerPlatform,
			Recommendation: verdict.Recommendation,
			Status:         models.StatusSuccess,
		}
		if verdict.WinnerPlatform == "" {
			outcome.Status = models.StatusFailed
			outcome.Error = verdict.Recommendation
			metrics.WorkflowStepsFailed.WithLabelValues("event", "ride").Inc()
			e.logger.Warn("Ride comparison failed, continuing with next guest", map[string]interface{}{
				"guest": ride.GuestName,
			})
		}
		summary.Rides = append(summary.Rides, outcome)
	}
}

// orderPlatform picks where catering orders go: the second food platform, the
// same slot that wins full-tie comparisons.
func orderPlatform(reg *registry.PlatformRegistry) string {
	if tp, err := reg.Lookup(registry.KindFood); err == nil {
		return tp.Platforms[1]
	}
	return "Swiggy"
}

// pause sleeps unless the context is cancelled first.
func (e *EventCoordinator) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
