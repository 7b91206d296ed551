package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
	"github.com/HelixAutomations/enquiry-timeline/internal/sources"
)

type stubConnector struct {
	source models.SyncSource
	items  []models.TimelineItem
	err    error

	mu      sync.Mutex
	fetches []sources.FetchParams
	block   chan struct{}
}

func (s *stubConnector) Source() models.SyncSource { return s.source }

func (s *stubConnector) Fetch(ctx context.Context, params sources.FetchParams) ([]models.TimelineItem, error) {
	s.mu.Lock()
	s.fetches = append(s.fetches, params)
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.items, nil
}

func (s *stubConnector) HealthCheck(ctx context.Context) error { return s.err }

func (s *stubConnector) lastFetch(t *testing.T) sources.FetchParams {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.fetches) == 0 {
		t.Fatal("connector was never fetched")
	}
	return s.fetches[len(s.fetches)-1]
}

type stubLookup struct {
	instructions map[string]*models.Instruction
	err          error
}

func (s *stubLookup) Lookup(ctx context.Context, ref string) (*models.Instruction, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.instructions[ref], nil
}

type recordedLogs struct {
	mu   sync.Mutex
	logs []models.SyncLog
}

func (r *recordedLogs) Record(ctx context.Context, log models.SyncLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEnquiry() models.Enquiry {
	return models.Enquiry{
		ID:             "enq-1",
		ProspectEmail:  "client@example.com",
		Phone:          "+447700900123",
		FeeEarnerEmail: "fe@helix-law.com",
		ReceivedAt:     time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
}

func itemAt(id string, itemType models.ItemType, ts time.Time) models.TimelineItem {
	return models.TimelineItem{ID: id, Type: itemType, Timestamp: ts}
}

func newTestOrchestrator(pitches, emails, calls *stubConnector, lookup *stubLookup, recorder SyncLogRecorder) *Orchestrator {
	conns := []sources.Connector{pitches, emails, calls}
	var l stubLookup
	if lookup == nil {
		lookup = &l
	}
	return New(conns, lookup, recorder, nil, testLogger(), DefaultConfig())
}

func TestView_InitialSyncMergesAllSources(t *testing.T) {
	t0 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	pitches := &stubConnector{source: models.SyncSourcePitches, items: []models.TimelineItem{itemAt("pitch-1", models.ItemTypePitch, t0)}}
	emails := &stubConnector{source: models.SyncSourceEmails, items: []models.TimelineItem{itemAt("email-1", models.ItemTypeEmail, t0.Add(time.Hour))}}
	calls := &stubConnector{source: models.SyncSourceCalls, items: []models.TimelineItem{itemAt("call-1", models.ItemTypeCall, t0.Add(2*time.Hour))}}

	orch := newTestOrchestrator(pitches, emails, calls, nil, nil)

	if err := orch.View(context.Background(), testEnquiry()); err != nil {
		t.Fatalf("view failed: %v", err)
	}

	items, err := orch.Items("enq-1", models.TimelineQuery{})
	if err != nil {
		t.Fatalf("items: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].ID != "call-1" || items[2].ID != "pitch-1" {
		t.Errorf("unexpected order: %s ... %s", items[0].ID, items[2].ID)
	}

	states, err := orch.States("enq-1")
	if err != nil {
		t.Fatalf("states: %v", err)
	}
	for _, state := range states {
		if state.Status != models.SyncStatusSuccess {
			t.Errorf("source %s status = %q, want success", state.Source, state.Status)
		}
	}
}

func TestView_FailureIsolatedToOneSource(t *testing.T) {
	t0 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	pitches := &stubConnector{source: models.SyncSourcePitches, items: []models.TimelineItem{itemAt("pitch-1", models.ItemTypePitch, t0)}}
	emails := &stubConnector{source: models.SyncSourceEmails, items: []models.TimelineItem{itemAt("email-1", models.ItemTypeEmail, t0.Add(time.Hour))}}
	calls := &stubConnector{source: models.SyncSourceCalls, err: errors.New("telephony service unreachable")}

	orch := newTestOrchestrator(pitches, emails, calls, nil, nil)

	if err := orch.View(context.Background(), testEnquiry()); err != nil {
		t.Fatalf("view failed: %v", err)
	}

	items, _ := orch.Items("enq-1", models.TimelineQuery{})
	if len(items) != 2 {
		t.Fatalf("expected pitch and email despite calls failure, got %d items", len(items))
	}

	states, _ := orch.States("enq-1")
	for _, state := range states {
		switch state.Source {
		case models.SyncSourceCalls:
			if state.Status != models.SyncStatusError || state.Error == "" {
				t.Errorf("calls state = %+v, want error with message", state)
			}
		default:
			if state.Status != models.SyncStatusSuccess {
				t.Errorf("%s state = %q, want success", state.Source, state.Status)
			}
		}
	}
}

func TestView_SecondViewDoesNotRefetch(t *testing.T) {
	pitches := &stubConnector{source: models.SyncSourcePitches}
	emails := &stubConnector{source: models.SyncSourceEmails}
	calls := &stubConnector{source: models.SyncSourceCalls}

	orch := newTestOrchestrator(pitches, emails, calls, nil, nil)

	ctx := context.Background()
	if err := orch.View(ctx, testEnquiry()); err != nil {
		t.Fatalf("first view: %v", err)
	}
	if err := orch.View(ctx, testEnquiry()); err != nil {
		t.Fatalf("second view: %v", err)
	}

	pitches.mu.Lock()
	defer pitches.mu.Unlock()
	if len(pitches.fetches) != 1 {
		t.Errorf("viewing again refetched: %d fetches", len(pitches.fetches))
	}
}

func TestView_MissingPhoneNumberIsNonBlocking(t *testing.T) {
	pitches := &stubConnector{source: models.SyncSourcePitches}
	emails := &stubConnector{source: models.SyncSourceEmails}
	calls := &stubConnector{source: models.SyncSourceCalls}

	orch := newTestOrchestrator(pitches, emails, calls, nil, nil)

	enquiry := testEnquiry()
	enquiry.Phone = ""

	if err := orch.View(context.Background(), enquiry); err != nil {
		t.Fatalf("view failed: %v", err)
	}

	calls.mu.Lock()
	fetched := len(calls.fetches)
	calls.mu.Unlock()
	if fetched != 0 {
		t.Error("calls should not be fetched without a number")
	}

	states, _ := orch.States("enq-1")
	for _, state := range states {
		if state.Source == models.SyncSourceCalls {
			if state.Status != models.SyncStatusError || state.Error == "" {
				t.Errorf("calls state = %+v, want warning", state)
			}
		}
	}

	// The user can still proceed by typing a number in.
	state, err := orch.TriggerSync(context.Background(), "enq-1", models.SyncSourceCalls, SyncParams{PhoneNumber: "+441273000000"})
	if err != nil {
		t.Fatalf("manual sync with typed number failed: %v", err)
	}
	if state.Status != models.SyncStatusSuccess {
		t.Errorf("state = %q, want success", state.Status)
	}
	if got := calls.lastFetch(t).PhoneNumbers; len(got) != 1 || got[0] != "+441273000000" {
		t.Errorf("searched numbers = %v", got)
	}
}

func TestTriggerSync_OverridesAndDefaults(t *testing.T) {
	pitches := &stubConnector{source: models.SyncSourcePitches}
	emails := &stubConnector{source: models.SyncSourceEmails}
	calls := &stubConnector{source: models.SyncSourceCalls}

	orch := newTestOrchestrator(pitches, emails, calls, nil, nil)
	ctx := context.Background()
	if err := orch.View(ctx, testEnquiry()); err != nil {
		t.Fatalf("view: %v", err)
	}

	// Defaults come from the enquiry record.
	if _, err := orch.TriggerSync(ctx, "enq-1", models.SyncSourceEmails, SyncParams{}); err != nil {
		t.Fatalf("email sync: %v", err)
	}
	params := emails.lastFetch(t)
	if params.MailboxAddress != "fe@helix-law.com" || params.ProspectAddress != "client@example.com" {
		t.Errorf("default params = %+v", params)
	}

	// Overrides replace them.
	if _, err := orch.TriggerSync(ctx, "enq-1", models.SyncSourceEmails, SyncParams{
		MailboxAddress:  "other@helix-law.com",
		ProspectAddress: "alt@example.com",
	}); err != nil {
		t.Fatalf("email sync with overrides: %v", err)
	}
	params = emails.lastFetch(t)
	if params.MailboxAddress != "other@helix-law.com" || params.ProspectAddress != "alt@example.com" {
		t.Errorf("override params = %+v", params)
	}
}

func TestTriggerSync_LimitClamped(t *testing.T) {
	pitches := &stubConnector{source: models.SyncSourcePitches}
	emails := &stubConnector{source: models.SyncSourceEmails}
	calls := &stubConnector{source: models.SyncSourceCalls}

	orch := newTestOrchestrator(pitches, emails, calls, nil, nil)
	ctx := context.Background()
	if err := orch.View(ctx, testEnquiry()); err != nil {
		t.Fatalf("view: %v", err)
	}

	tests := []struct {
		limit int
		want  int
	}{
		{0, sources.DefaultLimit},
		{-5, sources.DefaultLimit},
		{1, 1},
		{50, 50},
		{100, 100},
		{500, 100},
	}

	for _, tt := range tests {
		if _, err := orch.TriggerSync(ctx, "enq-1", models.SyncSourceCalls, SyncParams{Limit: tt.limit}); err != nil {
			t.Fatalf("calls sync limit %d: %v", tt.limit, err)
		}
		if got := calls.lastFetch(t).Limit; got != tt.want {
			t.Errorf("limit %d clamped to %d, want %d", tt.limit, got, tt.want)
		}
	}
}

func TestTriggerSync_RejectsConcurrentSync(t *testing.T) {
	pitches := &stubConnector{source: models.SyncSourcePitches}
	emails := &stubConnector{source: models.SyncSourceEmails, block: make(chan struct{})}
	calls := &stubConnector{source: models.SyncSourceCalls}

	orch := newTestOrchestrator(pitches, emails, calls, nil, nil)
	ctx := context.Background()

	// Seed a session without triggering the initial email fetch blocking us.
	close(emails.block)
	if err := orch.View(ctx, testEnquiry()); err != nil {
		t.Fatalf("view: %v", err)
	}

	emails.mu.Lock()
	emails.block = make(chan struct{})
	emails.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = orch.TriggerSync(ctx, "enq-1", models.SyncSourceEmails, SyncParams{})
	}()

	// Wait for the in-flight sync to reach loading.
	deadline := time.After(2 * time.Second)
	for {
		state, err := orch.States("enq-1")
		if err != nil {
			t.Fatalf("states: %v", err)
		}
		if state[1].Status == models.SyncStatusLoading {
			break
		}
		select {
		case <-deadline:
			t.Fatal("email sync never reached loading state")
		case <-time.After(5 * time.Millisecond):
		}
	}

	if _, err := orch.TriggerSync(ctx, "enq-1", models.SyncSourceEmails, SyncParams{}); !errors.Is(err, ErrSyncInFlight) {
		t.Errorf("concurrent sync error = %v, want ErrSyncInFlight", err)
	}

	// A different source is not blocked by the in-flight email sync.
	if _, err := orch.TriggerSync(ctx, "enq-1", models.SyncSourceCalls, SyncParams{}); err != nil {
		t.Errorf("calls sync blocked by email sync: %v", err)
	}

	emails.mu.Lock()
	close(emails.block)
	emails.mu.Unlock()
	<-done
}

func TestTriggerSync_UnknownSourceAndMissingSession(t *testing.T) {
	pitches := &stubConnector{source: models.SyncSourcePitches}
	emails := &stubConnector{source: models.SyncSourceEmails}
	calls := &stubConnector{source: models.SyncSourceCalls}

	orch := newTestOrchestrator(pitches, emails, calls, nil, nil)
	ctx := context.Background()

	if _, err := orch.TriggerSync(ctx, "enq-1", "faxes", SyncParams{}); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("unknown source error = %v", err)
	}
	if _, err := orch.TriggerSync(ctx, "enq-1", models.SyncSourceEmails, SyncParams{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("missing session error = %v", err)
	}
}

func TestPitchSync_DerivesInstructionStatuses(t *testing.T) {
	t0 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	pitch1 := itemAt("pitch-1", models.ItemTypePitch, t0)
	pitch1.Metadata.InstructionRef = "HLX-00123"
	pitch2 := itemAt("pitch-2", models.ItemTypePitch, t0.Add(time.Hour))
	pitch2.Metadata.InstructionRef = "HLX-00999" // not instructed yet
	pitch3 := itemAt("pitch-3", models.ItemTypePitch, t0.Add(2*time.Hour))

	pitches := &stubConnector{source: models.SyncSourcePitches, items: []models.TimelineItem{pitch1, pitch2, pitch3}}
	emails := &stubConnector{source: models.SyncSourceEmails}
	calls := &stubConnector{source: models.SyncSourceCalls}

	lookup := &stubLookup{instructions: map[string]*models.Instruction{
		"HLX-00123": {
			Ref:       "HLX-00123",
			Stage:     models.StageProofOfIDComplete,
			EIDResult: "passed",
			MatterRef: "M-1",
		},
	}}

	orch := newTestOrchestrator(pitches, emails, calls, lookup, nil)
	if err := orch.View(context.Background(), testEnquiry()); err != nil {
		t.Fatalf("view: %v", err)
	}

	statuses, err := orch.Statuses("enq-1")
	if err != nil {
		t.Fatalf("statuses: %v", err)
	}
	if len(statuses) != 1 {
		t.Fatalf("expected 1 status entry, got %d", len(statuses))
	}

	status, ok := statuses["pitch-1"]
	if !ok {
		t.Fatal("missing status for pitch-1")
	}
	if status.Identity != models.StatusComplete || status.Matter != models.StatusComplete {
		t.Errorf("status = %+v", status)
	}
}

func TestPitchSync_LookupFailureDoesNotAbort(t *testing.T) {
	t0 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	pitch := itemAt("pitch-1", models.ItemTypePitch, t0)
	pitch.Metadata.InstructionRef = "HLX-00123"

	pitches := &stubConnector{source: models.SyncSourcePitches, items: []models.TimelineItem{pitch}}
	emails := &stubConnector{source: models.SyncSourceEmails}
	calls := &stubConnector{source: models.SyncSourceCalls}

	lookup := &stubLookup{err: errors.New("instruction service unreachable")}

	orch := newTestOrchestrator(pitches, emails, calls, lookup, nil)
	if err := orch.View(context.Background(), testEnquiry()); err != nil {
		t.Fatalf("view: %v", err)
	}

	items, _ := orch.Items("enq-1", models.TimelineQuery{})
	if len(items) != 1 {
		t.Errorf("pitch should still be merged, got %d items", len(items))
	}

	statuses, _ := orch.Statuses("enq-1")
	if len(statuses) != 0 {
		t.Errorf("failed lookup should leave no status entry, got %v", statuses)
	}

	states, _ := orch.States("enq-1")
	if states[0].Status != models.SyncStatusSuccess {
		t.Errorf("pitches state = %q, lookup failure must not fail the source", states[0].Status)
	}
}

func TestSyncLogsRecorded(t *testing.T) {
	t0 := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	pitches := &stubConnector{source: models.SyncSourcePitches, items: []models.TimelineItem{itemAt("pitch-1", models.ItemTypePitch, t0)}}
	emails := &stubConnector{source: models.SyncSourceEmails}
	calls := &stubConnector{source: models.SyncSourceCalls, err: errors.New("boom")}

	recorder := &recordedLogs{}
	orch := newTestOrchestrator(pitches, emails, calls, nil, recorder)

	if err := orch.View(context.Background(), testEnquiry()); err != nil {
		t.Fatalf("view: %v", err)
	}

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	if len(recorder.logs) != 3 {
		t.Fatalf("expected 3 sync logs, got %d", len(recorder.logs))
	}

	byStatus := map[models.SyncStatus]int{}
	for _, log := range recorder.logs {
		byStatus[log.Status]++
		if log.EnquiryID != "enq-1" {
			t.Errorf("log enquiry id = %q", log.EnquiryID)
		}
	}
	if byStatus[models.SyncStatusSuccess] != 2 || byStatus[models.SyncStatusError] != 1 {
		t.Errorf("log statuses = %v", byStatus)
	}
}
