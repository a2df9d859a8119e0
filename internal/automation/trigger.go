// Package automation delivers score-change notifications to the internal
// automations endpoint. Delivery is best-effort from the scorer's point of
// view: payloads are staged in a durable outbox and a dispatcher retries
// them, but a delivery failure never surfaces to the scoring caller.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gymflow_backend/platform/config"
	"gymflow_backend/platform/logger"

	"github.com/google/uuid"
)

// TriggerKind identifies scoring trigger records in the automation outbox.
const TriggerKind = "scoring_trigger"

// TriggerPayload is the wire body posted to the automations endpoint on a
// score change.
type TriggerPayload struct {
	LeadID             uuid.UUID `json:"leadId"`
	PreviousScore      int       `json:"previousScore"`
	NewScore           int       `json:"newScore"`
	ChangeReason       string    `json:"changeReason,omitempty"`
	TriggerAutomations bool      `json:"triggerAutomations"`
}

// Client posts scoring triggers to the internal automations endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	log      *logger.Logger
}

// NewClient builds the trigger client. Returns nil when APP_URL is not
// configured; callers treat a nil client as "automations disabled".
func NewClient(cfg config.AutomationConfig, log *logger.Logger) *Client {
	baseURL := strings.TrimRight(cfg.GetAppBaseURL(), "/")
	if baseURL == "" {
		return nil
	}

	timeout := cfg.GetAutomationTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Client{
		endpoint: baseURL + "/api/automations/scoring-triggers",
		http:     &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Notify posts one trigger payload. Any failure (network, timeout, non-2xx)
// is returned for the dispatcher's retry bookkeeping; no response body is
// consumed beyond the status.
func (c *Client) Notify(ctx context.Context, payload TriggerPayload) error {
	if c == nil {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal scoring trigger: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("scoring trigger request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("automations endpoint returned %d", resp.StatusCode)
	}

	c.log.Debug("scoring trigger delivered", "leadId", payload.LeadID, "newScore", payload.NewScore)
	return nil
}
