package forward

import (
	"strings"
	"testing"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

func TestResolve_NativeWithMessageID(t *testing.T) {
	item := models.TimelineItem{
		ID:      "email-1",
		Type:    models.ItemTypeEmail,
		Subject: "Your enquiry",
		Metadata: models.ItemMetadata{
			MessageID: "AAMk123",
		},
	}

	req := Resolve(item, "colleague@helix-law.com")

	if req.Mode != models.ForwardModeNative {
		t.Errorf("mode = %q, want native", req.Mode)
	}
	if req.MessageID != "AAMk123" {
		t.Errorf("message id = %q", req.MessageID)
	}
	if req.Degraded {
		t.Error("native forward should not be degraded")
	}
	if req.Subject != "FW: Your enquiry" {
		t.Errorf("subject = %q", req.Subject)
	}
}

func TestResolve_NativeWithCrossSystemID(t *testing.T) {
	item := models.TimelineItem{
		Type: models.ItemTypeEmail,
		Metadata: models.ItemMetadata{
			InternetMessageID: "<abc@mail.example.com>",
			MailboxAddress:    "fe@helix-law.com",
		},
	}

	req := Resolve(item, "colleague@helix-law.com")

	if req.Mode != models.ForwardModeNative {
		t.Errorf("mode = %q, want native", req.Mode)
	}
}

func TestResolve_CrossSystemIDAloneDegrades(t *testing.T) {
	// A cross-system identifier with no known mailbox owner cannot be
	// forwarded natively.
	item := models.TimelineItem{
		Type: models.ItemTypeEmail,
		Metadata: models.ItemMetadata{
			InternetMessageID: "<abc@mail.example.com>",
		},
	}

	req := Resolve(item, "colleague@helix-law.com")

	if req.Mode != models.ForwardModeComposed {
		t.Errorf("mode = %q, want composed", req.Mode)
	}
	if !req.Degraded || req.Warning == "" {
		t.Error("degraded fallback must be reported")
	}
}

func TestResolve_ComposedQuotesOriginal(t *testing.T) {
	item := models.TimelineItem{
		ID:        "pitch-1",
		Type:      models.ItemTypePitch,
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Subject:   "Pitch Sent",
		Author:    "LZ",
		Content:   "Dear prospect, please find our proposal attached.",
	}

	req := Resolve(item, "colleague@helix-law.com")

	if req.Mode != models.ForwardModeComposed {
		t.Fatalf("mode = %q, want composed", req.Mode)
	}
	for _, want := range []string{
		"Forwarded message",
		"From: LZ",
		"Date: Tue, 10 Feb 2026 14:30",
		"Subject: Pitch Sent",
		"Dear prospect",
	} {
		if !strings.Contains(req.Body, want) {
			t.Errorf("body missing %q:\n%s", want, req.Body)
		}
	}
}

func TestResolve_ComposedSkipsAbsentHeaders(t *testing.T) {
	item := models.TimelineItem{Type: models.ItemTypeNote}

	req := Resolve(item, "colleague@helix-law.com")

	if strings.Contains(req.Body, "From:") || strings.Contains(req.Body, "Subject:") || strings.Contains(req.Body, "Date:") {
		t.Errorf("absent headers should be skipped:\n%s", req.Body)
	}
	if req.Subject != "FW:" {
		t.Errorf("subject = %q", req.Subject)
	}
}

func TestResolve_ExistingForwardPrefixKept(t *testing.T) {
	item := models.TimelineItem{
		Subject:  "FW: Your enquiry",
		Metadata: models.ItemMetadata{MessageID: "AAMk123"},
	}

	req := Resolve(item, "colleague@helix-law.com")

	if req.Subject != "FW: Your enquiry" {
		t.Errorf("subject = %q, prefix should not stack", req.Subject)
	}
}

func TestResolve_RichContentPreferred(t *testing.T) {
	item := models.TimelineItem{
		Subject:     "Proposal",
		Content:     "plain body",
		RichContent: "<p>rich body</p>",
	}

	req := Resolve(item, "colleague@helix-law.com")

	if !strings.Contains(req.Body, "rich body") || strings.Contains(req.Body, "plain body") {
		t.Errorf("rich content should be preferred:\n%s", req.Body)
	}
}
