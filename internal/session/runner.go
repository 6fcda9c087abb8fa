// internal/session/runner.go

// Package session runs single automation sessions against the device and
// normalizes their outcomes. A session failure is data, not an error: the
// runner always returns a SessionResult.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/common/metrics"
	"droid-orchestrator/internal/common/observability"
	"droid-orchestrator/internal/device"
	"droid-orchestrator/internal/models"
	"droid-orchestrator/internal/parse"
)

// Runner executes goals on the device behind the one-slot gate.
type Runner struct {
	agent  device.Agent
	gate   *device.Gate
	obs    *observability.Observability
	logger logger.Logger
}

// NewRunner creates a session runner.
func NewRunner(agent device.Agent, gate *device.Gate, obs *observability.Observability, log logger.Logger) *Runner {
	return &Runner{
		agent:  agent,
		gate:   gate,
		obs:    obs,
		logger: log,
	}
}

// RunSearch drives one search session on one platform and returns the
// normalized result. Agent failures become failed SessionResults.
func (r *Runner) RunSearch(ctx context.Context, platform, itemType, query string) *models.SessionResult {
	goal := buildSearchGoal(platform, itemType, query)
	sessionID := uuid.New().String()

	log := r.logger.With(map[string]interface{}{
		"session_id": sessionID,
		"platform":   platform,
		"query":      query,
	})
	log.Info("Starting search session", nil)

	raw, err := r.execute(ctx, platform, goal)
	if err != nil {
		log.Warn("Search session failed", map[string]interface{}{"error": err.Error()})
		return r.failed(platform, err)
	}

	result := parse.ParseSessionOutput(platform, raw, log)
	r.record(ctx, platform, result.Status)
	log.Info("Search session finished", map[string]interface{}{
		"status":     result.Status,
		"item_count": len(result.Items),
	})
	return result
}

// RunOrder drives one ordering session. Ordering produces no item list; the
// result carries only the platform, status and raw confirmation text.
func (r *Runner) RunOrder(ctx context.Context, platform, item string) *models.SessionResult {
	goal := buildOrderGoal(platform, item)
	sessionID := uuid.New().String()

	log := r.logger.With(map[string]interface{}{
		"session_id": sessionID,
		"platform":   platform,
		"item":       item,
	})
	log.Info("Starting order session", nil)

	raw, err := r.execute(ctx, platform, goal)
	if err != nil {
		log.Warn("Order session failed", map[string]interface{}{"error": err.Error()})
		return r.failed(platform, err)
	}

	r.record(ctx, platform, models.StatusSuccess)
	return &models.SessionResult{
		Platform:    platform,
		Status:      models.StatusSuccess,
		Items:       []models.Item{},
		RawResponse: raw,
	}
}

// RunMessage drives one messaging session over WhatsApp.
func (r *Runner) RunMessage(ctx context.Context, contact, message string) *models.SessionResult {
	const platform = "WhatsApp"
	goal := buildMessageGoal(contact, message)
	sessionID := uuid.New().String()

	log := r.logger.With(map[string]interface{}{
		"session_id": sessionID,
		"contact":    contact,
	})
	log.Info("Starting message session", nil)

	raw, err := r.execute(ctx, platform, goal)
	if err != nil {
		log.Warn("Message session failed", map[string]interface{}{"error": err.Error()})
		return r.failed(platform, err)
	}

	r.record(ctx, platform, models.StatusSuccess)
	return &models.SessionResult{
		Platform:    platform,
		Status:      models.StatusSuccess,
		Items:       []models.Item{},
		RawResponse: raw,
	}
}

// execute holds the device gate for the full duration of the goal run.
func (r *Runner) execute(ctx context.Context, platform, goal string) (string, error) {
	if err := r.gate.Acquire(ctx); err != nil {
		return "", fmt.Errorf("waiting for device: %w", err)
	}
	defer r.gate.Release()

	start := time.Now()
	raw, err := r.agent.Run(ctx, goal)
	elapsed := time.Since(start)

	metrics.SessionDuration.WithLabelValues(platform).Observe(elapsed.Seconds())
	if r.obs != nil {
		r.obs.RecordSessionDuration(ctx, elapsed, platform)
	}

	return raw, err
}

func (r *Runner) failed(platform string, err error) *models.SessionResult {
	r.record(context.Background(), platform, models.StatusFailed)
	return &models.SessionResult{
		Platform:    platform,
		Status:      models.StatusFailed,
		Items:       []models.Item{},
		RawResponse: err.Error(),
		Error:       err.Error(),
	}
}

func (r *Runner) record(ctx context.Context, platform, status string) {
	metrics.SessionsCompleted.WithLabelValues(platform, status).Inc()
	if r.obs != nil {
		r.obs.RecordSessionProcessed(ctx, platform, status)
	}
}

// buildSearchGoal renders the search instruction handed to the on-device
// agent. The trailing format demand is what makes downstream parsing viable.
func buildSearchGoal(platform, itemType, query string) string {
	return fmt.Sprintf(
		"Open %s. Search for '%s'. Wait for results to load. "+
			"Extract the name, price, and rating of the top 3 %s listings visible on screen. "+
			"Return a JSON list of the top 3 items with keys: title, price, rating. "+
			"The output must be a valid JSON string.",
		platform, query, itemType,
	)
}

func buildOrderGoal(platform, item string) string {
	return fmt.Sprintf(
		"Open %s. Search for '%s'. Add it to the cart and place the order "+
			"using the saved address and default payment method. "+
			"Report the confirmation text shown on screen.",
		platform, item,
	)
}

func buildMessageGoal(contact, message string) string {
	return fmt.Sprintf(
		"Open WhatsApp. Search for the contact '%s'. Open the chat and send "+
			"exactly this message: \"%s\". Confirm the message shows as sent.",
		contact, message,
	)
}
