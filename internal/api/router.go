package api

import (
	"net/http"
	"strings"

	"github.com/HelixAutomations/enquiry-timeline/internal/auth"
	"github.com/HelixAutomations/enquiry-timeline/internal/forward"
	"github.com/HelixAutomations/enquiry-timeline/internal/orchestrator"
	"github.com/HelixAutomations/enquiry-timeline/internal/summarizer"
	"log/slog"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, orch *orchestrator.Orchestrator, enquiries EnquiryStore, activities ActivityStore, submitter forward.Submitter, s summarizer.Summarizer, authConfig auth.Config, logger *slog.Logger) {
	handler := NewHandler(orch, enquiries, activities, logger)
	forwardHandler := NewForwardHandler(orch, submitter, logger)
	summaryHandler := NewSummaryHandler(orch, enquiries, s, logger)
	authHandler := NewAuthHandler(authConfig, logger)

	// Auth middleware
	authMiddleware := auth.AuthMiddleware(authConfig)

	// Authentication routes (public)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/validate", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(authHandler.ValidateToken)).ServeHTTP(w, r)
	})

	// Enquiry routes (public for reading)
	mux.HandleFunc("/api/enquiries", handler.ListEnquiriesHandler)
	mux.HandleFunc("/api/enquiries/", func(w http.ResponseWriter, r *http.Request) {
		switch {
		// POST /api/enquiries/:id/timeline/sync/:source (requires auth)
		case strings.Contains(r.URL.Path, "/timeline/sync/"):
			authMiddleware(http.HandlerFunc(handler.TriggerSyncHandler)).ServeHTTP(w, r)
		case strings.HasSuffix(r.URL.Path, "/timeline/states"):
			handler.GetStatesHandler(w, r)
		case strings.HasSuffix(r.URL.Path, "/timeline/statuses"):
			handler.GetStatusesHandler(w, r)
		case strings.HasSuffix(r.URL.Path, "/timeline/activity"):
			handler.GetActivityHandler(w, r)
		case strings.HasSuffix(r.URL.Path, "/timeline"):
			handler.GetTimelineHandler(w, r)
		case strings.HasSuffix(r.URL.Path, "/summary"):
			summaryHandler.GetSummary(w, r)
		default:
			http.Error(w, "Not found", http.StatusNotFound)
		}
	})

	// Forwarding routes (requires auth: sends mail on the user's behalf)
	mux.HandleFunc("/api/forward/resolve", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(forwardHandler.Resolve)).ServeHTTP(w, r)
	})
	mux.HandleFunc("/api/forward", func(w http.ResponseWriter, r *http.Request) {
		authMiddleware(http.HandlerFunc(forwardHandler.Submit)).ServeHTTP(w, r)
	})

	// Health check
	mux.HandleFunc("/api/health", handler.HealthHandler)
}
