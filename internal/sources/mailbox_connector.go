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
)

// MailboxConnector searches the fee earner's mailbox for correspondence with
// the prospect.
type MailboxConnector struct {
	baseURL string
	logger  *slog.Logger
	client  *http.Client
}

// NewMailboxConnector creates a connector against the mailbox search service.
func NewMailboxConnector(baseURL string, timeout time.Duration, logger *slog.Logger) *MailboxConnector {
	return &MailboxConnector{
		baseURL: baseURL,
		logger:  logger,
		client:  newHTTPClient(timeout),
	}
}

// Source identifies this connector.
func (c *MailboxConnector) Source() models.SyncSource {
	return models.SyncSourceEmails
}

// messageRecord is the mailbox search service's wire shape.
type messageRecord struct {
	ID                string    `json:"id"` // source system message identifier
	InternetMessageID string    `json:"internet_message_id,omitempty"`
	ReceivedAt        time.Time `json:"received_at"`
	Subject           string    `json:"subject,omitempty"`
	Preview           string    `json:"preview,omitempty"`
	Sender            string    `json:"sender,omitempty"`
	SenderName        string    `json:"sender_name,omitempty"`
}

type messageSearchResponse struct {
	Messages []messageRecord `json:"messages"`
}

// Fetch searches the mailbox for messages exchanged with the prospect.
func (c *MailboxConnector) Fetch(ctx context.Context, params FetchParams) ([]models.TimelineItem, error) {
	if params.MailboxAddress == "" {
		return nil, fmt.Errorf("mailbox address is required")
	}
	if params.ProspectAddress == "" {
		return nil, fmt.Errorf("prospect address is required")
	}

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := url.Values{}
	query.Set("mailbox", params.MailboxAddress)
	query.Set("counterpart", params.ProspectAddress)
	query.Set("limit", strconv.Itoa(limit))

	var resp messageSearchResponse
	endpoint := fmt.Sprintf("%s/api/messages/search?%s", c.baseURL, query.Encode())
	if err := getJSON(ctx, c.client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("mailbox search failed: %w", err)
	}

	c.logger.Info("fetched messages",
		"mailbox", params.MailboxAddress,
		"counterpart", params.ProspectAddress,
		"count", len(resp.Messages),
	)

	items := make([]models.TimelineItem, 0, len(resp.Messages))
	for _, rec := range resp.Messages {
		items = append(items, normalizeMessage(rec, params.MailboxAddress, params.ProspectAddress))
	}

	return items, nil
}

// HealthCheck verifies the mailbox search service is reachable.
func (c *MailboxConnector) HealthCheck(ctx context.Context) error {
	return checkHealth(ctx, c.client, c.baseURL)
}

// normalizeMessage maps a mailbox search hit into a timeline item. Direction
// is classified by case-insensitive comparison of the sender against the
// known prospect address.
func normalizeMessage(rec messageRecord, mailboxAddress, prospectAddress string) models.TimelineItem {
	direction := models.DirectionOutbound
	if strings.EqualFold(strings.TrimSpace(rec.Sender), strings.TrimSpace(prospectAddress)) {
		direction = models.DirectionInbound
	}

	author := rec.SenderName
	if author == "" {
		author = rec.Sender
	}

	return models.TimelineItem{
		ID:        "email-" + rec.ID,
		Type:      models.ItemTypeEmail,
		Timestamp: rec.ReceivedAt,
		Subject:   rec.Subject,
		Content:   rec.Preview,
		Author:    author,
		Metadata: models.ItemMetadata{
			Direction:         direction,
			MessageID:         rec.ID,
			InternetMessageID: rec.InternetMessageID,
			MailboxAddress:    mailboxAddress,
		},
	}
}
