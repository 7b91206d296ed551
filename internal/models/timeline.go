package models

import (
	"time"
)

// TimelineItem represents one unit of prospect-facing activity on an enquiry,
// normalized from whichever source system produced it.
type TimelineItem struct {
	ID          string       `json:"id"` // unique within a merged collection; dedup key
	Type        ItemType     `json:"type"`
	Timestamp   time.Time    `json:"timestamp"`
	Subject     string       `json:"subject"`
	Content     string       `json:"content,omitempty"`
	RichContent string       `json:"rich_content,omitempty"`
	Author      string       `json:"author,omitempty"`
	Metadata    ItemMetadata `json:"metadata"`
}

// ItemType categorizes the origin of a timeline item.
type ItemType string

const (
	ItemTypePitch       ItemType = "pitch"
	ItemTypeEmail       ItemType = "email"
	ItemTypeCall        ItemType = "call"
	ItemTypeInstruction ItemType = "instruction"
	ItemTypeNote        ItemType = "note"
)

// Direction indicates whether an email or call was prospect-initiated.
type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

// ItemMetadata holds type-dependent fields for attribution and follow-up
// actions. Fields not applicable to the item's type are left zero and
// omitted from JSON.
type ItemMetadata struct {
	// Email-specific
	Direction         Direction `json:"direction,omitempty"`
	MessageID         string    `json:"message_id,omitempty"`          // source system message identifier
	InternetMessageID string    `json:"internet_message_id,omitempty"` // RFC 5322 cross-system identifier
	MailboxAddress    string    `json:"mailbox_address,omitempty"`     // mailbox the message was found in

	// Call-specific
	DurationSeconds   int     `json:"duration_seconds,omitempty"`
	Answered          *bool   `json:"answered,omitempty"`
	CallerName        string  `json:"caller_name,omitempty"`
	CallerNumber      string  `json:"caller_number,omitempty"`
	AttributionSource string  `json:"attribution_source,omitempty"`
	AttributionMedium string  `json:"attribution_medium,omitempty"`
	Value             float64 `json:"value,omitempty"`
	RecordingURL      string  `json:"recording_url,omitempty"`

	// Pitch-specific
	Amount         float64 `json:"amount,omitempty"`
	ScenarioID     string  `json:"scenario_id,omitempty"`
	InstructionRef string  `json:"instruction_ref,omitempty"` // linked instruction record, when resolved
}

// DisplayLabel returns a human-readable identifier for the item.
func (i *TimelineItem) DisplayLabel() string {
	if i.Subject != "" {
		return i.Subject
	}
	if i.Author != "" {
		return i.Author + " (" + string(i.Type) + ")"
	}
	return string(i.Type) + " activity"
}

// TimelineQuery describes a narrowing of the merged collection. A zero
// query returns everything.
type TimelineQuery struct {
	Type  ItemType `json:"type,omitempty"`
	Limit int      `json:"limit,omitempty"`
}
