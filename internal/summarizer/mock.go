package summarizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// MockSummarizer provides a rule-based summary without API calls. Used in
// tests and when no OpenAI key is configured.
type MockSummarizer struct{}

// NewMockSummarizer creates a mock summarizer.
func NewMockSummarizer() *MockSummarizer {
	return &MockSummarizer{}
}

// Summarize builds a count-based recap from the items themselves.
func (m *MockSummarizer) Summarize(ctx context.Context, enquiry models.Enquiry, items []models.TimelineItem) (*Summary, error) {
	if len(items) == 0 {
		return &Summary{
			EnquiryID:   enquiry.ID,
			Text:        "No activity has been recorded for this enquiry yet.",
			GeneratedAt: time.Now(),
		}, nil
	}

	counts := make(map[models.ItemType]int)
	for _, item := range items {
		counts[item.Type]++
	}

	var parts []string
	for _, t := range []models.ItemType{
		models.ItemTypePitch,
		models.ItemTypeEmail,
		models.ItemTypeCall,
		models.ItemTypeInstruction,
		models.ItemTypeNote,
	} {
		if n := counts[t]; n > 0 {
			label := string(t)
			if n != 1 {
				label += "s"
			}
			parts = append(parts, fmt.Sprintf("%d %s", n, label))
		}
	}

	// Items arrive sorted newest first.
	latest := items[0]
	text := fmt.Sprintf("%d activities on record (%s). Most recent: %s on %s.",
		len(items),
		strings.Join(parts, ", "),
		latest.Subject,
		latest.Timestamp.Format("2 Jan 2006"))

	return &Summary{
		EnquiryID:   enquiry.ID,
		Text:        text,
		ItemCount:   len(items),
		GeneratedAt: time.Now(),
	}, nil
}
