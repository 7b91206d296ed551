package models

import (
	"time"
)

// StageProofOfIDComplete is the instruction stage value set once the
// prospect has supplied proof of identity.
const StageProofOfIDComplete = "proof-of-id-complete"

// Instruction is the onboarding record created once a prospect formally
// engages. Shapes mirror what the instruction service returns; optional
// sub-records may be empty.
type Instruction struct {
	Ref   string `json:"ref"`
	Stage string `json:"stage,omitempty"`

	// Electronic identity check. EIDStatus is empty until a check has run.
	EIDStatus string `json:"eid_status,omitempty"`
	EIDResult string `json:"eid_result,omitempty"`

	// Manually supplied proof-of-identity fields.
	PassportNumber       string `json:"passport_number,omitempty"`
	DriversLicenseNumber string `json:"drivers_license_number,omitempty"`

	// InternalStatus is the firm's own marker on the instruction, e.g. "paid".
	InternalStatus string `json:"internal_status,omitempty"`

	Payments        []Payment        `json:"payments,omitempty"` // most recent first
	RiskAssessments []RiskAssessment `json:"risk_assessments,omitempty"`

	MatterRef string   `json:"matter_ref,omitempty"`
	Matters   []Matter `json:"matters,omitempty"`

	// SubmissionDeemed marks the client-care/compliance letter as submitted.
	SubmissionDeemed bool `json:"submission_deemed"`
}

// Payment is one payment attempt against an instruction.
type Payment struct {
	ID             string    `json:"id"`
	Amount         float64   `json:"amount"`
	ExternalStatus string    `json:"external_status,omitempty"` // as reported by the card processor
	InternalStatus string    `json:"internal_status,omitempty"` // as tracked by the firm
	CreatedAt      time.Time `json:"created_at"`
}

// RiskAssessment is one risk/compliance review record.
type RiskAssessment struct {
	Result     string    `json:"result,omitempty"`
	AssessedBy string    `json:"assessed_by,omitempty"`
	AssessedAt time.Time `json:"assessed_at"`
}

// Matter is a matter record linked to an instruction.
type Matter struct {
	Ref         string    `json:"ref"`
	Description string    `json:"description,omitempty"`
	OpenedAt    time.Time `json:"opened_at"`
}

// DimensionStatus is the ordinal progress of one pipeline dimension.
type DimensionStatus string

const (
	StatusPending    DimensionStatus = "pending"
	StatusReceived   DimensionStatus = "received"
	StatusProcessing DimensionStatus = "processing"
	StatusReview     DimensionStatus = "review"
	StatusComplete   DimensionStatus = "complete"
)

// InstructionStatus is the five-dimension onboarding pipeline status derived
// from an instruction payload. It is always recomputed in full from the
// latest payload, never patched incrementally.
type InstructionStatus struct {
	Identity         DimensionStatus `json:"identity"`
	Payment          DimensionStatus `json:"payment"`
	Risk             DimensionStatus `json:"risk"`
	Matter           DimensionStatus `json:"matter"`
	ComplianceLetter DimensionStatus `json:"compliance_letter"`
}
