package api

import (
	"fmt"
	"strings"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateResolveRequest validates a forward resolve request.
func ValidateResolveRequest(req ResolveRequest) error {
	if req.EnquiryID == "" {
		return ValidationError{Field: "enquiry_id", Message: "enquiry id is required"}
	}
	if req.ItemID == "" {
		return ValidationError{Field: "item_id", Message: "item id is required"}
	}
	if req.ActorAddress == "" {
		return ValidationError{Field: "actor_address", Message: "destination address is required"}
	}
	if !looksLikeEmail(req.ActorAddress) {
		return ValidationError{Field: "actor_address", Message: "destination address is not a valid email address"}
	}
	if req.CC != "" && !looksLikeEmail(req.CC) {
		return ValidationError{Field: "cc", Message: "cc address is not a valid email address"}
	}
	return nil
}

// ValidateForwardRequest validates a resolved forward before submission.
func ValidateForwardRequest(req models.ForwardRequest) error {
	if req.To == "" {
		return ValidationError{Field: "to", Message: "destination address is required"}
	}
	if !looksLikeEmail(req.To) {
		return ValidationError{Field: "to", Message: "destination address is not a valid email address"}
	}

	switch req.Mode {
	case models.ForwardModeNative:
		if req.MessageID == "" && (req.InternetMessageID == "" || req.MailboxAddress == "") {
			return ValidationError{Field: "mode", Message: "native forward requires message identifiers"}
		}
	case models.ForwardModeComposed:
		if req.Body == "" {
			return ValidationError{Field: "body", Message: "composed forward requires a body"}
		}
	default:
		return ValidationError{Field: "mode", Message: "mode must be native or composed"}
	}

	return nil
}

// looksLikeEmail is a light sanity check, not an RFC 5322 validator. The
// mail service does its own authoritative validation.
func looksLikeEmail(addr string) bool {
	at := strings.Index(addr, "@")
	if at <= 0 || at == len(addr)-1 {
		return false
	}
	domain := addr[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(addr, " \t\n")
}
