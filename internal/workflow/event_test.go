// internal/workflow/event_test.go
package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/models"
	"droid-orchestrator/pkg/registry"
)

func newCoordinator(t *testing.T, agent *scriptedAgent, prefs PreferenceSource) *EventCoordinator {
	t.Helper()
	return NewEventCoordinator(
		newWorkflowRunner(t, agent),
		registry.Default(),
		prefs,
		nil,
		logger.NewTestLogger(t),
		0, // no cooldown in tests
		0,
	)
}

func coordinatorRequest() models.CoordinatorRequest {
	return models.CoordinatorRequest{
		EventName: "Diwali Party",
		GuestList: []models.Guest{
			{Name: "Priya", Phone: "+911234567890"},
			{Name: "Rahul", Phone: "+919876543210"},
		},
		Logistics: []models.LogisticsRequest{
			{GuestName: "Priya", Pickup: "Indiranagar", Drop: "Koramangala"},
		},
	}
}

func TestEventWorkflowHappyPath(t *testing.T) {
	agent := &scriptedAgent{scripts: map[string]string{
		"Open WhatsApp.": "sent",
		"Open Swiggy. Search": "Order placed",
		"Open Uber.": `[{"title": "UberGo", "price": "250", "rating": "4.5"}]`,
		"Open Ola.":  `[{"title": "Mini", "price": "230", "rating": "4.1"}]`,
	}}
	e := newCoordinator(t, agent, nil)

	summary := e.Run(context.Background(), coordinatorRequest())

	require.Len(t, summary.Invites, 2)
	for _, inv := range summary.Invites {
		assert.Equal(t, models.StatusSuccess, inv.Status)
	}

	require.Len(t, summary.Orders, len(DefaultMenu))
	for i, order := range summary.Orders {
		assert.Equal(t, DefaultMenu[i], order.MenuItem)
		assert.Equal(t, "Swiggy", order.Platform)
		assert.Equal(t, models.StatusSuccess, order.Status)
	}

	require.Len(t, summary.Rides, 1)
	assert.Equal(t, "Ola", summary.Rides[0].WinnerPlatform)
	assert.Equal(t, models.StatusSuccess, summary.Rides[0].Status)
}

func TestEventWorkflowInviteTextMentionsEvent(t *testing.T) {
	agent := &scriptedAgent{}
	e := newCoordinator(t, agent, nil)
	e.Run(context.Background(), coordinatorRequest())

	var inviteGoal string
	for _, g := range agent.goals {
		if strings.Contains(g, "Open WhatsApp.") {
			inviteGoal = g
			break
		}
	}
	require.NotEmpty(t, inviteGoal)
	assert.Contains(t, inviteGoal, "invited to Diwali Party")
	assert.Contains(t, inviteGoal, "reply YES")
}

func TestEventWorkflowContinuesPastInviteFailure(t *testing.T) {
	agent := &scriptedAgent{
		errors: map[string]error{
			"'Priya'": errors.New("contact not found"),
		},
		scripts: map[string]string{
			"Open WhatsApp.": "sent",
		},
	}
	e := newCoordinator(t, agent, nil)

	summary := e.Run(context.Background(), coordinatorRequest())
	require.Len(t, summary.Invites, 2)
	assert.Equal(t, models.StatusFailed, summary.Invites[0].Status)
	assert.Contains(t, summary.Invites[0].Error, "contact not found")
	assert.Equal(t, models.StatusSuccess, summary.Invites[1].Status, "later guests must still be invited")

	// Orders and rides still run after a failed invite.
	assert.Len(t, summary.Orders, len(DefaultMenu))
	assert.Len(t, summary.Rides, 1)
}

func TestEventWorkflowCustomMenu(t *testing.T) {
	agent := &scriptedAgent{}
	prefs := StaticPreferenceSource{Items: []string{"Samosa", "Chai"}}
	e := newCoordinator(t, agent, prefs)

	summary := e.Run(context.Background(), coordinatorRequest())
	require.Len(t, summary.Orders, 2)
	assert.Equal(t, "Samosa", summary.Orders[0].MenuItem)
	assert.Equal(t, "Chai", summary.Orders[1].MenuItem)
}

type failingPrefs struct{}

func (failingPrefs) Menu(ctx context.Context, eventName string) ([]string, error) {
	return nil, errors.New("preferences unavailable")
}

func TestEventWorkflowFallsBackToDefaultMenu(t *testing.T) {
	agent := &scriptedAgent{}
	e := newCoordinator(t, agent, failingPrefs{})

	summary := e.Run(context.Background(), coordinatorRequest())
	require.Len(t, summary.Orders, len(DefaultMenu))
}

func TestEventWorkflowRideComparisonFailure(t *testing.T) {
	agent := &scriptedAgent{errors: map[string]error{
		"Open Uber.": errors.New("surge check failed"),
		"Open Ola.":  errors.New("surge check failed"),
	}}
	e := newCoordinator(t, agent, nil)

	summary := e.Run(context.Background(), coordinatorRequest())
	require.Len(t, summary.Rides, 1)
	assert.Equal(t, models.StatusFailed, summary.Rides[0].Status)
	assert.Empty(t, summary.Rides[0].WinnerPlatform)
}
