package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// Connector defines the interface each activity source implements.
type Connector interface {
	// Source returns which sync source this connector serves.
	Source() models.SyncSource

	// Fetch retrieves activity for an enquiry and normalizes it into
	// timeline items. Implementations must tolerate missing optional fields
	// in the upstream records.
	Fetch(ctx context.Context, params FetchParams) ([]models.TimelineItem, error)

	// HealthCheck verifies the connector can reach its collaborator.
	HealthCheck(ctx context.Context) error
}

// FetchParams carries the per-fetch parameters. The orchestrator pre-populates
// them from the enquiry record; manual re-syncs may override any of them.
type FetchParams struct {
	EnquiryID string

	// Mailbox search
	MailboxAddress  string // fee-earner mailbox to search in
	ProspectAddress string // counterpart address, also classifies direction

	// Telephony search
	PhoneNumbers []string

	// Result cap for searches, clamped by the orchestrator to [1,100].
	Limit int
}

// DefaultLimit is the search result cap applied when none is supplied.
const DefaultLimit = 25

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

func checkHealth(ctx context.Context, client *http.Client, baseURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
