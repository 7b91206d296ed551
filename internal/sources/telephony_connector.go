package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
	"github.com/HelixAutomations/enquiry-timeline/internal/timeline"
)

// callFallbackContent is used when a call record carries no renderable facts.
const callFallbackContent = "Call details unavailable"

// TelephonyConnector searches the telephony log service for calls against
// the phone numbers on file.
type TelephonyConnector struct {
	baseURL string
	logger  *slog.Logger
	client  *http.Client
}

// NewTelephonyConnector creates a connector against the telephony log service.
func NewTelephonyConnector(baseURL string, timeout time.Duration, logger *slog.Logger) *TelephonyConnector {
	return &TelephonyConnector{
		baseURL: baseURL,
		logger:  logger,
		client:  newHTTPClient(timeout),
	}
}

// Source identifies this connector.
func (c *TelephonyConnector) Source() models.SyncSource {
	return models.SyncSourceCalls
}

// callRecord is the telephony log service's wire shape.
type callRecord struct {
	ID              string    `json:"id"`
	StartedAt       time.Time `json:"started_at"`
	Direction       string    `json:"direction,omitempty"`
	DurationSeconds int       `json:"duration_seconds,omitempty"`
	Answered        *bool     `json:"answered,omitempty"`
	CallerName      string    `json:"caller_name,omitempty"`
	CallerNumber    string    `json:"caller_number,omitempty"`
	Source          string    `json:"source,omitempty"` // marketing attribution
	Medium          string    `json:"medium,omitempty"`
	Value           float64   `json:"value,omitempty"`
	Transcription   string    `json:"transcription,omitempty"`
	RecordingURL    string    `json:"recording_url,omitempty"`
}

type callSearchResponse struct {
	Calls []callRecord `json:"calls"`
}

// Fetch searches call logs for each supplied phone number. Results across
// numbers share one id namespace, so the merge dedups any overlap.
func (c *TelephonyConnector) Fetch(ctx context.Context, params FetchParams) ([]models.TimelineItem, error) {
	if len(params.PhoneNumbers) == 0 {
		return nil, fmt.Errorf("at least one phone number is required")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var items []models.TimelineItem
	for _, number := range params.PhoneNumbers {
		query := url.Values{}
		query.Set("number", number)
		query.Set("limit", strconv.Itoa(limit))

		var resp callSearchResponse
		endpoint := fmt.Sprintf("%s/api/calls/search?%s", c.baseURL, query.Encode())
		if err := getJSON(ctx, c.client, endpoint, &resp); err != nil {
			return nil, fmt.Errorf("telephony search for %s failed: %w", number, err)
		}

		c.logger.Info("fetched calls", "number", number, "count", len(resp.Calls))

		for _, rec := range resp.Calls {
			items = append(items, normalizeCall(rec))
		}
	}

	return items, nil
}

// HealthCheck verifies the telephony log service is reachable.
func (c *TelephonyConnector) HealthCheck(ctx context.Context) error {
	return checkHealth(ctx, c.client, c.baseURL)
}

// normalizeCall maps a call log record into a timeline item. The content is
// an ordered list of the facts actually present on the record; absent fields
// are skipped, never rendered as empty placeholders.
func normalizeCall(rec callRecord) models.TimelineItem {
	direction := models.Direction("")
	subject := "Call"
	switch strings.ToLower(rec.Direction) {
	case "inbound":
		direction = models.DirectionInbound
		subject = "Inbound call"
	case "outbound":
		direction = models.DirectionOutbound
		subject = "Outbound call"
	}

	content := strings.Join(callFacts(rec), "\n")
	if content == "" {
		content = callFallbackContent
	}

	return models.TimelineItem{
		ID:        "call-" + rec.ID,
		Type:      models.ItemTypeCall,
		Timestamp: rec.StartedAt,
		Subject:   subject,
		Content:   content,
		Author:    rec.CallerName,
		Metadata: models.ItemMetadata{
			Direction:         direction,
			DurationSeconds:   rec.DurationSeconds,
			Answered:          rec.Answered,
			CallerName:        rec.CallerName,
			CallerNumber:      rec.CallerNumber,
			AttributionSource: rec.Source,
			AttributionMedium: rec.Medium,
			Value:             rec.Value,
			RecordingURL:      rec.RecordingURL,
		},
	}
}

// callFacts assembles the present-only fact list for a call, in display
// order: duration, outcome, caller identity, attribution, value,
// transcription, recording availability.
func callFacts(rec callRecord) []string {
	var facts []string

	if rec.DurationSeconds > 0 {
		elapsed := timeline.FormatBreakdown(rec.StartedAt, rec.StartedAt.Add(time.Duration(rec.DurationSeconds)*time.Second))
		facts = append(facts, "Duration: "+elapsed)
	}

	if rec.Answered != nil {
		if *rec.Answered {
			facts = append(facts, "Answered")
		} else {
			facts = append(facts, "Unanswered")
		}
	}

	switch {
	case rec.CallerName != "" && rec.CallerNumber != "":
		facts = append(facts, fmt.Sprintf("Caller: %s (%s)", rec.CallerName, rec.CallerNumber))
	case rec.CallerName != "":
		facts = append(facts, "Caller: "+rec.CallerName)
	case rec.CallerNumber != "":
		facts = append(facts, "Caller: "+rec.CallerNumber)
	}

	if rec.Source != "" {
		facts = append(facts, "Source: "+rec.Source)
	}
	if rec.Medium != "" {
		facts = append(facts, "Medium: "+rec.Medium)
	}

	if rec.Value > 0 {
		facts = append(facts, fmt.Sprintf("Value: £%.2f", rec.Value))
	}

	if rec.Transcription != "" {
		facts = append(facts, "Notes: "+rec.Transcription)
	}

	if rec.RecordingURL != "" {
		facts = append(facts, "Recording available")
	}

	return facts
}
