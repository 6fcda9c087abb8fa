// internal/workflow/comparison_test.go
package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"droid-orchestrator/internal/common/logger"
	"droid-orchestrator/internal/device"
	"droid-orchestrator/internal/models"
	"droid-orchestrator/internal/session"
	"droid-orchestrator/pkg/registry"
)

// scriptedAgent matches goals by substring and replays canned outputs.
type scriptedAgent struct {
	mu      sync.Mutex
	scripts map[string]string // goal substring -> output
	errors  map[string]error  // goal substring -> error
	goals   []string
}

func (s *scriptedAgent) Run(ctx context.Context, goal string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, goal)
	for sub, err := range s.errors {
		if strings.Contains(goal, sub) {
			return "", err
		}
	}
	for sub, out := range s.scripts {
		if strings.Contains(goal, sub) {
			return out, nil
		}
	}
	return "[]", nil
}

// collectingNotifier records published progress lines.
type collectingNotifier struct {
	mu    sync.Mutex
	lines []string
}

func (c *collectingNotifier) Publish(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, message)
}

func (c *collectingNotifier) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func newWorkflowRunner(t *testing.T, agent device.Agent) *session.Runner {
	t.Helper()
	return session.NewRunner(agent, device.NewGate(), nil, logger.NewTestLogger(t))
}

func shoppingPlatforms(t *testing.T) registry.TaskPlatforms {
	t.Helper()
	tp, err := registry.Default().Lookup(registry.KindShopping)
	require.NoError(t, err)
	return tp
}

func TestComparisonDecidesCheaperPlatform(t *testing.T) {
	agent := &scriptedAgent{scripts: map[string]string{
		"Open Amazon.":   `[{"title": "Laptop", "price": "50,000", "rating": "4.5"}]`,
		"Open Flipkart.": `[{"title": "Laptop", "price": "48,000", "rating": "4.2"}]`,
	}}
	notifier := &collectingNotifier{}
	c := NewComparison(newWorkflowRunner(t, agent), shoppingPlatforms(t), notifier, logger.NewTestLogger(t))

	verdict := c.Run(context.Background(), "laptop")
	assert.Equal(t, StateDone, c.State())
	assert.Equal(t, "Flipkart", verdict.WinnerPlatform)
	assert.Equal(t, "Flipkart is cheaper.", verdict.Recommendation)
	assert.Equal(t, "shopping", verdict.Category)
	require.Contains(t, verdict.Details, "Amazon")
	require.Contains(t, verdict.Details, "Flipkart")

	lines := notifier.all()
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Amazon")
	assert.Contains(t, lines[1], "Flipkart")
}

func TestComparisonSurvivesOneFailedSession(t *testing.T) {
	agent := &scriptedAgent{
		scripts: map[string]string{
			"Open Flipkart.": `[{"title": "Laptop", "price": "48,000", "rating": "4.2"}]`,
		},
		errors: map[string]error{
			"Open Amazon.": errors.New("app crashed"),
		},
	}
	c := NewComparison(newWorkflowRunner(t, agent), shoppingPlatforms(t), nil, logger.NewTestLogger(t))

	verdict := c.Run(context.Background(), "laptop")
	assert.Equal(t, StateDone, c.State())
	assert.Equal(t, "Flipkart", verdict.WinnerPlatform)
	assert.Equal(t, "Only found on Flipkart.", verdict.Recommendation)
	assert.Equal(t, models.StatusFailed, verdict.Details["Amazon"].Status)
}

func TestComparisonBothSessionsFail(t *testing.T) {
	agent := &scriptedAgent{errors: map[string]error{
		"Open": errors.New("device offline"),
	}}
	c := NewComparison(newWorkflowRunner(t, agent), shoppingPlatforms(t), nil, logger.NewTestLogger(t))

	verdict := c.Run(context.Background(), "laptop")
	assert.Equal(t, StateDone, c.State(), "workflow must finish even when every session fails")
	assert.Empty(t, verdict.WinnerPlatform)
	assert.Equal(t, "Could not find the item on either platform.", verdict.Recommendation)
}

func TestComparisonRunsSessionsSequentially(t *testing.T) {
	agent := &scriptedAgent{}
	c := NewComparison(newWorkflowRunner(t, agent), shoppingPlatforms(t), nil, logger.NewTestLogger(t))
	c.Run(context.Background(), "laptop")

	require.Len(t, agent.goals, 2)
	assert.Contains(t, agent.goals[0], "Open Amazon.")
	assert.Contains(t, agent.goals[1], "Open Flipkart.")
}
