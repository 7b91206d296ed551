package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// Submitter sends a confirmed forward to the mail service.
type Submitter interface {
	Submit(ctx context.Context, req models.ForwardRequest) error
}

// Client submits forwards over HTTP.
type Client struct {
	baseURL string
	logger  *slog.Logger
	client  *http.Client
}

// NewClient creates a mail service forwarding client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		logger:  logger,
		client:  &http.Client{Timeout: timeout},
	}
}

// Submit performs the forward. The request must already have been resolved
// and confirmed by the user.
func (c *Client) Submit(ctx context.Context, fwd models.ForwardRequest) error {
	if fwd.To == "" {
		return fmt.Errorf("destination address is required")
	}

	payload, err := json.Marshal(fwd)
	if err != nil {
		return fmt.Errorf("failed to marshal forward request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/forward", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("forward submission failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("forward submission returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Info("forward submitted", "to", fwd.To, "mode", fwd.Mode)
	return nil
}
