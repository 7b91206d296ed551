package forward

import (
	"strings"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// degradedWarning is surfaced so the UI can warn before a composed forward.
const degradedWarning = "Original message identifiers are unavailable; a new message quoting the original will be sent instead."

// Resolve decides whether a native forward is possible for the item and
// assembles the request to put in front of the user. A native forward needs
// either the source message identifier, or the cross-system identifier
// together with a known mailbox owner. Missing identifiers are never an
// error: the resolver degrades to a composed forward and says so.
func Resolve(item models.TimelineItem, actorAddress string) models.ForwardRequest {
	meta := item.Metadata

	if meta.MessageID != "" || (meta.InternetMessageID != "" && meta.MailboxAddress != "") {
		return models.ForwardRequest{
			Mode:              models.ForwardModeNative,
			To:                actorAddress,
			Subject:           forwardSubject(item.Subject),
			MessageID:         meta.MessageID,
			InternetMessageID: meta.InternetMessageID,
			MailboxAddress:    meta.MailboxAddress,
		}
	}

	return models.ForwardRequest{
		Mode:     models.ForwardModeComposed,
		To:       actorAddress,
		Subject:  forwardSubject(item.Subject),
		Body:     composeBody(item),
		Degraded: true,
		Warning:  degradedWarning,
	}
}

func forwardSubject(subject string) string {
	if subject == "" {
		return "FW:"
	}
	lower := strings.ToLower(subject)
	if strings.HasPrefix(lower, "fw:") || strings.HasPrefix(lower, "fwd:") {
		return subject
	}
	return "FW: " + subject
}

// composeBody quotes the original item the way a mail client would,
// including only the header lines that are actually known.
func composeBody(item models.TimelineItem) string {
	var b strings.Builder
	b.WriteString("---------- Forwarded message ----------\n")

	if item.Author != "" {
		b.WriteString("From: " + item.Author + "\n")
	}
	if !item.Timestamp.IsZero() {
		b.WriteString("Date: " + item.Timestamp.Format("Mon, 2 Jan 2006 15:04") + "\n")
	}
	if item.Subject != "" {
		b.WriteString("Subject: " + item.Subject + "\n")
	}

	body := item.RichContent
	if body == "" {
		body = item.Content
	}
	if body != "" {
		b.WriteString("\n")
		b.WriteString(body)
	}

	return b.String()
}
