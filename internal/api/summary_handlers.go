package api

import (
	"net/http"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
	"github.com/HelixAutomations/enquiry-timeline/internal/orchestrator"
	"github.com/HelixAutomations/enquiry-timeline/internal/summarizer"
	"log/slog"
)

// SummaryHandler generates AI recaps of an enquiry's timeline.
type SummaryHandler struct {
	orch       *orchestrator.Orchestrator
	enquiries  EnquiryStore
	summarizer summarizer.Summarizer
	logger     *slog.Logger
}

func NewSummaryHandler(orch *orchestrator.Orchestrator, enquiries EnquiryStore, s summarizer.Summarizer, logger *slog.Logger) *SummaryHandler {
	return &SummaryHandler{
		orch:       orch,
		enquiries:  enquiries,
		summarizer: s,
		logger:     logger,
	}
}

// GetSummary handles GET /api/enquiries/:id/summary
func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enquiryID := pathSegment(r.URL.Path, 3)
	ctx := r.Context()

	enquiry, err := h.enquiries.GetByID(ctx, enquiryID)
	if err != nil {
		http.Error(w, "Enquiry not found", http.StatusNotFound)
		return
	}
	if err := h.orch.View(ctx, *enquiry); err != nil {
		h.logger.Error("failed to open timeline session", "enquiry_id", enquiryID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	items, err := h.orch.Items(enquiryID, models.TimelineQuery{})
	if err != nil {
		h.logger.Error("failed to load timeline items", "enquiry_id", enquiryID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	summary, err := h.summarizer.Summarize(ctx, *enquiry, items)
	if err != nil {
		h.logger.Error("failed to generate summary", "enquiry_id", enquiryID, "error", err)
		http.Error(w, "Summary generation failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
