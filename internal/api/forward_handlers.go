package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HelixAutomations/enquiry-timeline/internal/forward"
	"github.com/HelixAutomations/enquiry-timeline/internal/models"
	"github.com/HelixAutomations/enquiry-timeline/internal/orchestrator"
	"log/slog"
)

var errItemNotFound = errors.New("timeline item not found")

// ForwardHandler resolves and submits timeline item forwards.
type ForwardHandler struct {
	orch      *orchestrator.Orchestrator
	submitter forward.Submitter
	logger    *slog.Logger
}

func NewForwardHandler(orch *orchestrator.Orchestrator, submitter forward.Submitter, logger *slog.Logger) *ForwardHandler {
	return &ForwardHandler{
		orch:      orch,
		submitter: submitter,
		logger:    logger,
	}
}

// ResolveRequest identifies the timeline item to forward and where to.
type ResolveRequest struct {
	EnquiryID    string `json:"enquiry_id"`
	ItemID       string `json:"item_id"`
	ActorAddress string `json:"actor_address"`
	CC           string `json:"cc,omitempty"`
}

// Resolve handles POST /api/forward/resolve
func (h *ForwardHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := ValidateResolveRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.findItem(req.EnquiryID, req.ItemID)
	if err != nil {
		http.Error(w, "Timeline item not found", http.StatusNotFound)
		return
	}

	resolved := forward.Resolve(*item, req.ActorAddress)
	resolved.CC = req.CC

	if resolved.Degraded {
		h.logger.Info("forward degraded to composed mode",
			"enquiry_id", req.EnquiryID,
			"item_id", req.ItemID)
	}

	writeJSON(w, http.StatusOK, resolved)
}

// Submit handles POST /api/forward
func (h *ForwardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ForwardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := ValidateForwardRequest(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.submitter.Submit(r.Context(), req); err != nil {
		h.logger.Error("forward submission failed", "to", req.To, "error", err)
		http.Error(w, "Forward submission failed", http.StatusBadGateway)
		return
	}

	h.logger.Info("forward submitted", "mode", req.Mode, "to", req.To)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "sent",
		"mode":   req.Mode,
	})
}

// findItem locates one item in the enquiry's loaded timeline.
func (h *ForwardHandler) findItem(enquiryID, itemID string) (*models.TimelineItem, error) {
	items, err := h.orch.Items(enquiryID, models.TimelineQuery{})
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == itemID {
			return &items[i], nil
		}
	}
	return nil, errItemNotFound
}
