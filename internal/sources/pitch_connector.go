package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// defaultPitchSubject labels pitches stored without an explicit subject.
const defaultPitchSubject = "Pitch Sent"

// PitchConnector fetches sent pitches for an enquiry from the pitch store.
type PitchConnector struct {
	baseURL string
	logger  *slog.Logger
	client  *http.Client
}

// NewPitchConnector creates a connector against the pitch store.
func NewPitchConnector(baseURL string, timeout time.Duration, logger *slog.Logger) *PitchConnector {
	return &PitchConnector{
		baseURL: baseURL,
		logger:  logger,
		client:  newHTTPClient(timeout),
	}
}

// Source identifies this connector.
func (c *PitchConnector) Source() models.SyncSource {
	return models.SyncSourcePitches
}

// pitchRecord is the pitch store's wire shape.
type pitchRecord struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Subject     string    `json:"subject,omitempty"`
	Body        string    `json:"body,omitempty"`
	BodyHTML    string    `json:"body_html,omitempty"`
	Author      string    `json:"author,omitempty"`
	Amount      float64   `json:"amount,omitempty"`
	ScenarioID  string    `json:"scenario_id,omitempty"`
	ProspectRef string    `json:"prospect_ref,omitempty"` // linked instruction record, when present
}

type pitchSearchResponse struct {
	Pitches []pitchRecord `json:"pitches"`
}

// Fetch retrieves every pitch sent against the enquiry.
func (c *PitchConnector) Fetch(ctx context.Context, params FetchParams) ([]models.TimelineItem, error) {
	if params.EnquiryID == "" {
		return nil, fmt.Errorf("enquiry id is required")
	}

	query := url.Values{}
	query.Set("enquiryId", params.EnquiryID)

	var resp pitchSearchResponse
	endpoint := fmt.Sprintf("%s/api/pitches?%s", c.baseURL, query.Encode())
	if err := getJSON(ctx, c.client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("pitch store fetch failed: %w", err)
	}

	c.logger.Info("fetched pitches", "enquiry_id", params.EnquiryID, "count", len(resp.Pitches))

	items := make([]models.TimelineItem, 0, len(resp.Pitches))
	for _, rec := range resp.Pitches {
		items = append(items, normalizePitch(rec))
	}

	return items, nil
}

// HealthCheck verifies the pitch store is reachable.
func (c *PitchConnector) HealthCheck(ctx context.Context) error {
	return checkHealth(ctx, c.client, c.baseURL)
}

// normalizePitch maps a pitch store record into a timeline item. Missing
// optional fields are omitted rather than rendered empty.
func normalizePitch(rec pitchRecord) models.TimelineItem {
	subject := rec.Subject
	if subject == "" {
		subject = defaultPitchSubject
	}

	return models.TimelineItem{
		ID:          "pitch-" + rec.ID,
		Type:        models.ItemTypePitch,
		Timestamp:   rec.CreatedAt,
		Subject:     subject,
		Content:     rec.Body,
		RichContent: rec.BodyHTML,
		Author:      rec.Author,
		Metadata: models.ItemMetadata{
			Amount:         rec.Amount,
			ScenarioID:     rec.ScenarioID,
			InstructionRef: rec.ProspectRef,
		},
	}
}
