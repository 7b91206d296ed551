package models

import (
	"time"
)

// Enquiry is an inbound prospective-client record being tracked toward
// instruction. It supplies the pre-populated parameters for source syncs:
// the prospect address for mailbox search and the phone numbers on file for
// telephony search.
type Enquiry struct {
	ID              string    `json:"id"`
	ProspectName    string    `json:"prospect_name,omitempty"`
	ProspectEmail   string    `json:"prospect_email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	SecondaryPhone  string    `json:"secondary_phone,omitempty"`
	FeeEarner       string    `json:"fee_earner,omitempty"`       // initials of the owning fee earner
	FeeEarnerEmail  string    `json:"fee_earner_email,omitempty"` // mailbox owner for email search
	AreaOfWork      string    `json:"area_of_work,omitempty"`
	Rating          string    `json:"rating,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	ReceivedAt      time.Time `json:"received_at"`
	LastTouchpoint  time.Time `json:"last_touchpoint,omitempty"`
	ProspectAddress string    `json:"prospect_address,omitempty"` // postal, not used for sync
}

// PhoneNumbers returns the numbers on file, primary first, skipping blanks.
func (e *Enquiry) PhoneNumbers() []string {
	numbers := make([]string, 0, 2)
	if e.Phone != "" {
		numbers = append(numbers, e.Phone)
	}
	if e.SecondaryPhone != "" && e.SecondaryPhone != e.Phone {
		numbers = append(numbers, e.SecondaryPhone)
	}
	return numbers
}
