package instruction

import (
	"strings"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

// Derive computes the five-dimension onboarding pipeline status from an
// instruction payload. Pure function: identical payloads always yield
// identical statuses, and the result is always recomputed in full.
func Derive(inst models.Instruction) models.InstructionStatus {
	return models.InstructionStatus{
		Identity:         deriveIdentity(inst),
		Payment:          derivePayment(inst),
		Risk:             deriveRisk(inst),
		Matter:           deriveMatter(inst),
		ComplianceLetter: deriveComplianceLetter(inst),
	}
}

func passedResult(result string) bool {
	switch result {
	case "pass", "passed", "approved", "verified":
		return true
	}
	return false
}

func deriveIdentity(inst models.Instruction) models.DimensionStatus {
	result := strings.ToLower(strings.TrimSpace(inst.EIDResult))

	if inst.Stage == models.StageProofOfIDComplete {
		if passedResult(result) {
			return models.StatusComplete
		}
		// Review covers explicit failures and anything unrecognized while
		// the stage claims completion: fail closed.
		return models.StatusReview
	}

	checkRan := result != "" || strings.EqualFold(inst.EIDStatus, "completed")
	if !checkRan {
		if inst.PassportNumber != "" || inst.DriversLicenseNumber != "" {
			return models.StatusReceived
		}
		return models.StatusPending
	}

	if passedResult(result) {
		return models.StatusComplete
	}
	return models.StatusReview
}

func derivePayment(inst models.Instruction) models.DimensionStatus {
	if strings.EqualFold(inst.InternalStatus, "paid") {
		return models.StatusComplete
	}

	if len(inst.Payments) == 0 {
		return models.StatusPending
	}

	// The instruction service returns payments most recent first.
	latest := inst.Payments[0]
	external := strings.ToLower(strings.TrimSpace(latest.ExternalStatus))
	internal := strings.ToLower(strings.TrimSpace(latest.InternalStatus))

	settled := external == "succeeded" || external == "settled" || external == "captured" || external == "paid"
	internalDone := internal == "completed" || internal == "paid"

	switch {
	case settled && internalDone:
		return models.StatusComplete
	case internal == "paid":
		return models.StatusComplete
	case external == "processing":
		return models.StatusProcessing
	default:
		return models.StatusPending
	}
}

// lowRiskResults is the vocabulary of risk outcomes that need no review.
var lowRiskResults = map[string]bool{
	"low":      true,
	"low risk": true,
	"pass":     true,
	"approved": true,
}

func deriveRisk(inst models.Instruction) models.DimensionStatus {
	if len(inst.RiskAssessments) == 0 {
		return models.StatusPending
	}

	result := strings.ToLower(strings.TrimSpace(inst.RiskAssessments[0].Result))
	if lowRiskResults[result] {
		return models.StatusComplete
	}
	return models.StatusReview
}

func deriveMatter(inst models.Instruction) models.DimensionStatus {
	if inst.MatterRef != "" || len(inst.Matters) > 0 {
		return models.StatusComplete
	}
	return models.StatusPending
}

func deriveComplianceLetter(inst models.Instruction) models.DimensionStatus {
	if inst.SubmissionDeemed {
		return models.StatusComplete
	}
	return models.StatusPending
}
