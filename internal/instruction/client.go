package instruction

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// Lookup resolves instruction payloads for linked prospects.
type Lookup interface {
	// Lookup returns the instruction for a linked-prospect reference, or
	// (nil, nil) when no instruction record exists yet.
	Lookup(ctx context.Context, ref string) (*models.Instruction, error)
}

// Client talks to the instruction service over HTTP.
type Client struct {
	baseURL string
	logger  *slog.Logger
	client  *http.Client
}

// NewClient creates an instruction service client.
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

// Lookup fetches the instruction linked to a prospect reference. A 404 from
// the service means the prospect has not instructed yet and is not an error.
func (c *Client) Lookup(ctx context.Context, ref string) (*models.Instruction, error) {
	if ref == "" {
		return nil, fmt.Errorf("instruction ref is required")
	}

	endpoint := fmt.Sprintf("%s/api/instructions/%s", c.baseURL, url.PathEscape(ref))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("instruction lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.logger.Debug("no instruction record", "ref", ref)
		return nil, nil
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("instruction lookup returned status %d: %s", resp.StatusCode, string(body))
	}

	var inst models.Instruction
	if err := json.NewDecoder(resp.Body).Decode(&inst); err != nil {
		return nil, fmt.Errorf("failed to decode instruction: %w", err)
	}
	if inst.Ref == "" {
		inst.Ref = ref
	}

	return &inst, nil
}

// HealthCheck verifies the instruction service is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
