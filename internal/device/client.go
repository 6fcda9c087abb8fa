// internal/device/client.go
package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"droid-orchestrator/internal/common/config"
	apperrors "droid-orchestrator/internal/common/errors"
	"droid-orchestrator/internal/common/logger"
)

// Agent runs a natural-language goal on the device and returns the raw
// textual output of the automation run.
type Agent interface {
	Run(ctx context.Context, goal string) (string, error)
}

// PortalClient talks to the on-device automation portal over HTTP.
type PortalClient struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
	logger     logger.Logger
}

// NewPortalClient creates a portal client from config.
func NewPortalClient(cfg config.PortalConfig, log logger.Logger) *PortalClient {
	return &PortalClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute, // device runs are slow; per-call ctx can tighten this
		},
		maxRetries: cfg.MaxRetries,
		retryDelay: config.GetDuration(cfg.RetryDelay),
		logger:     log,
	}
}

type runRequest struct {
	Goal string `json:"goal"`
}

type runResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// Run submits a goal to the portal and returns its raw output. Transient
// failures (network errors, 5xx) are retried with exponential backoff; 4xx
// responses are returned immediately.
func (c *PortalClient) Run(ctx context.Context, goal string) (string, error) {
	body, err := json.Marshal(runRequest{Goal: goal})
	if err != nil {
		return "", fmt.Errorf("failed to marshal portal request: %w", err)
	}

	var lastErr error
	delay := c.retryDelay

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying portal call", map[string]interface{}{
				"attempt": attempt,
				"delay":   delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			delay *= 2
		}

		output, retryable, err := c.runOnce(ctx, body)
		if err == nil {
			return output, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}

	return "", lastErr
}

func (c *PortalClient) runOnce(ctx context.Context, body []byte) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/agent/run", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to build portal request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", false, apperrors.NewPortalTimeoutError()
		}
		return "", true, fmt.Errorf("portal request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("failed to read portal response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("portal returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("portal rejected request with status %d: %s", resp.StatusCode, string(respBody))
	}

	var rr runResponse
	if err := json.Unmarshal(respBody, &rr); err != nil {
		return "", false, fmt.Errorf("failed to decode portal response: %w", err)
	}
	if rr.Error != "" {
		return "", false, fmt.Errorf("portal reported error: %s", rr.Error)
	}

	return rr.Output, false, nil
}

// Ping checks portal reachability. Used by the startup probe; any non-2xx
// response or network error counts as unavailable.
func (c *PortalClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to build health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewPortalUnavailableError(err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewPortalUnavailableError(fmt.Errorf("health endpoint returned status %d", resp.StatusCode))
	}

	return nil
}
