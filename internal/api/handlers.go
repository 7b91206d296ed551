package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/database"
	"github.com/HelixAutomations/enquiry-timeline/internal/models"
	"github.com/HelixAutomations/enquiry-timeline/internal/orchestrator"
	"github.com/HelixAutomations/enquiry-timeline/internal/timeline"
	"log/slog"
)

// EnquiryStore loads enquiry records for timeline sessions.
type EnquiryStore interface {
	GetByID(ctx context.Context, id string) (*models.Enquiry, error)
	ListRecent(ctx context.Context, limit int) ([]models.Enquiry, error)
}

// ActivityStore reads the sync audit log.
type ActivityStore interface {
	ListByEnquiry(ctx context.Context, enquiryID string, limit int) ([]models.SyncLog, error)
}

type Handler struct {
	orch       *orchestrator.Orchestrator
	enquiries  EnquiryStore
	activities ActivityStore
	logger     *slog.Logger
	startTime  time.Time
}

func NewHandler(orch *orchestrator.Orchestrator, enquiries EnquiryStore, activities ActivityStore, logger *slog.Logger) *Handler {
	return &Handler{
		orch:       orch,
		enquiries:  enquiries,
		activities: activities,
		logger:     logger,
		startTime:  time.Now(),
	}
}

// TimelineResponse is the payload for GET /api/enquiries/:id/timeline.
type TimelineResponse struct {
	EnquiryID string                   `json:"enquiry_id"`
	Items     []TimelineItemView       `json:"items"`
	Count     int                      `json:"count"`
	States    []models.SourceSyncState `json:"states"`
}

// TimelineItemView decorates an item with its rendered age badge.
type TimelineItemView struct {
	models.TimelineItem
	Age string `json:"age"`
}

func viewItems(items []models.TimelineItem) []TimelineItemView {
	views := make([]TimelineItemView, len(items))
	for i, item := range items {
		views[i] = TimelineItemView{TimelineItem: item, Age: timeline.Age(item.Timestamp)}
	}
	return views
}

// ensureSession loads the enquiry and opens its timeline session, running
// the initial fan-out sync if this is the first view.
func (h *Handler) ensureSession(ctx context.Context, enquiryID string) (*models.Enquiry, error) {
	enquiry, err := h.enquiries.GetByID(ctx, enquiryID)
	if err != nil {
		return nil, err
	}
	if err := h.orch.View(ctx, *enquiry); err != nil {
		return nil, err
	}
	return enquiry, nil
}

// GetTimelineHandler handles GET /api/enquiries/:id/timeline
func (h *Handler) GetTimelineHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enquiryID := pathSegment(r.URL.Path, 3)
	if enquiryID == "" {
		http.Error(w, "Enquiry ID required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	if _, err := h.ensureSession(ctx, enquiryID); err != nil {
		h.respondEnquiryError(w, enquiryID, err)
		return
	}

	query := models.TimelineQuery{
		Type: models.ItemType(r.URL.Query().Get("type")),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			query.Limit = limit
		}
	}

	items, err := h.orch.Items(enquiryID, query)
	if err != nil {
		h.respondEnquiryError(w, enquiryID, err)
		return
	}
	states, err := h.orch.States(enquiryID)
	if err != nil {
		h.respondEnquiryError(w, enquiryID, err)
		return
	}

	writeJSON(w, http.StatusOK, TimelineResponse{
		EnquiryID: enquiryID,
		Items:     viewItems(items),
		Count:     len(items),
		States:    states,
	})
}

// GetStatesHandler handles GET /api/enquiries/:id/timeline/states
func (h *Handler) GetStatesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enquiryID := pathSegment(r.URL.Path, 3)
	states, err := h.orch.States(enquiryID)
	if err != nil {
		h.respondEnquiryError(w, enquiryID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enquiry_id": enquiryID,
		"states":     states,
	})
}

// GetStatusesHandler handles GET /api/enquiries/:id/timeline/statuses
func (h *Handler) GetStatusesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enquiryID := pathSegment(r.URL.Path, 3)
	statuses, err := h.orch.Statuses(enquiryID)
	if err != nil {
		h.respondEnquiryError(w, enquiryID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enquiry_id": enquiryID,
		"statuses":   statuses,
	})
}

// TriggerSyncHandler handles POST /api/enquiries/:id/timeline/sync/:source
func (h *Handler) TriggerSyncHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enquiryID := pathSegment(r.URL.Path, 3)
	src := models.SyncSource(pathSegment(r.URL.Path, 6))
	if !src.IsValid() {
		http.Error(w, "Unknown sync source", http.StatusNotFound)
		return
	}

	var params orchestrator.SyncParams
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	if _, err := h.ensureSession(ctx, enquiryID); err != nil {
		h.respondEnquiryError(w, enquiryID, err)
		return
	}

	state, err := h.orch.TriggerSync(ctx, enquiryID, src, params)
	switch {
	case errors.Is(err, orchestrator.ErrSyncInFlight):
		writeJSON(w, http.StatusConflict, map[string]interface{}{
			"error": err.Error(),
			"state": state,
		})
		return
	case errors.Is(err, orchestrator.ErrPhoneNumberRequired):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": err.Error(),
			"state": state,
		})
		return
	case err != nil:
		h.respondEnquiryError(w, enquiryID, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enquiry_id": enquiryID,
		"state":      state,
	})
}

// GetActivityHandler handles GET /api/enquiries/:id/timeline/activity
func (h *Handler) GetActivityHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enquiryID := pathSegment(r.URL.Path, 3)
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			limit = n
		}
	}

	logs, err := h.activities.ListByEnquiry(r.Context(), enquiryID, limit)
	if err != nil {
		h.logger.Error("failed to list sync activity", "enquiry_id", enquiryID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if logs == nil {
		logs = []models.SyncLog{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enquiry_id": enquiryID,
		"logs":       logs,
		"count":      len(logs),
	})
}

// ListEnquiriesHandler handles GET /api/enquiries
func (h *Handler) ListEnquiriesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil {
			limit = n
		}
	}

	enquiries, err := h.enquiries.ListRecent(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list enquiries", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if enquiries == nil {
		enquiries = []models.Enquiry{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enquiries": enquiries,
		"count":     len(enquiries),
	})
}

// HealthHandler handles GET /api/health
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	checks := h.orch.HealthCheck(r.Context())

	status := "healthy"
	collaborators := make(map[string]string, len(checks))
	for name, err := range checks {
		if err != nil {
			collaborators[name] = err.Error()
			status = "degraded"
		} else {
			collaborators[name] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         status,
		"collaborators":  collaborators,
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	})
}

// respondEnquiryError maps domain errors onto HTTP statuses.
func (h *Handler) respondEnquiryError(w http.ResponseWriter, enquiryID string, err error) {
	switch {
	case errors.Is(err, database.ErrEnquiryNotFound):
		http.Error(w, "Enquiry not found", http.StatusNotFound)
	case errors.Is(err, orchestrator.ErrNoSession):
		http.Error(w, "Timeline not loaded; fetch the timeline first", http.StatusNotFound)
	case errors.Is(err, orchestrator.ErrUnknownSource):
		http.Error(w, "Unknown sync source", http.StatusNotFound)
	default:
		h.logger.Error("enquiry request failed", "enquiry_id", enquiryID, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// pathSegment returns the nth slash-separated segment of a path, or "".
func pathSegment(path string, n int) string {
	parts := strings.Split(path, "/")
	if n >= len(parts) {
		return ""
	}
	return parts[n]
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS for dev
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
