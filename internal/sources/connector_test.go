package sources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPitchConnector_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pitches" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("enquiryId"); got != "enq-1" {
			t.Errorf("enquiryId = %q", got)
		}
		json.NewEncoder(w).Encode(pitchSearchResponse{Pitches: []pitchRecord{
			{ID: "1", CreatedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), Amount: 500, ScenarioID: "cfa"},
		}})
	}))
	defer server.Close()

	conn := NewPitchConnector(server.URL, 5*time.Second, testLogger())

	items, err := conn.Fetch(context.Background(), FetchParams{EnquiryID: "enq-1"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "pitch-1" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestPitchConnector_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	conn := NewPitchConnector(server.URL, 5*time.Second, testLogger())

	if _, err := conn.Fetch(context.Background(), FetchParams{EnquiryID: "enq-1"}); err == nil {
		t.Fatal("expected error on non-success response")
	}
}

func TestMailboxConnector_RequiresAddresses(t *testing.T) {
	conn := NewMailboxConnector("http://127.0.0.1:0", time.Second, testLogger())

	if _, err := conn.Fetch(context.Background(), FetchParams{ProspectAddress: "client@example.com"}); err == nil {
		t.Error("expected error without mailbox address")
	}
	if _, err := conn.Fetch(context.Background(), FetchParams{MailboxAddress: "fe@helix-law.com"}); err == nil {
		t.Error("expected error without prospect address")
	}
}

func TestTelephonyConnector_FetchesEachNumber(t *testing.T) {
	var numbers []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		number := r.URL.Query().Get("number")
		numbers = append(numbers, number)
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q", got)
		}
		json.NewEncoder(w).Encode(callSearchResponse{Calls: []callRecord{
			{ID: "call-for-" + number, StartedAt: time.Now().UTC()},
		}})
	}))
	defer server.Close()

	conn := NewTelephonyConnector(server.URL, 5*time.Second, testLogger())

	items, err := conn.Fetch(context.Background(), FetchParams{
		PhoneNumbers: []string{"+447700900123", "+441273000000"},
		Limit:        10,
	})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if len(numbers) != 2 || numbers[0] != "+447700900123" || numbers[1] != "+441273000000" {
		t.Errorf("searched numbers = %v", numbers)
	}
	for _, item := range items {
		if item.Type != models.ItemTypeCall {
			t.Errorf("type = %q", item.Type)
		}
	}
}

func TestTelephonyConnector_RequiresNumber(t *testing.T) {
	conn := NewTelephonyConnector("http://127.0.0.1:0", time.Second, testLogger())

	if _, err := conn.Fetch(context.Background(), FetchParams{}); err == nil {
		t.Error("expected error without a phone number")
	}
}
