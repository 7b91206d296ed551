package models

// ForwardMode identifies how a forward will be carried out.
type ForwardMode string

const (
	// ForwardModeNative preserves the original message's protocol identity.
	ForwardModeNative ForwardMode = "native"
	// ForwardModeComposed sends a new message quoting the original.
	ForwardModeComposed ForwardMode = "composed"
)

// ForwardRequest is a fully resolved forward, ready for user confirmation
// and submission to the mail service.
type ForwardRequest struct {
	Mode              ForwardMode `json:"mode"`
	To                string      `json:"to"`
	CC                string      `json:"cc,omitempty"`
	Subject           string      `json:"subject"`
	Body              string      `json:"body,omitempty"`
	MessageID         string      `json:"message_id,omitempty"`
	InternetMessageID string      `json:"internet_message_id,omitempty"`
	MailboxAddress    string      `json:"mailbox_address,omitempty"`

	// Degraded is set when native-forward identifiers were unavailable and
	// the request fell back to a composed message; Warning explains why.
	Degraded bool   `json:"degraded,omitempty"`
	Warning  string `json:"warning,omitempty"`
}
