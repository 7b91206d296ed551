package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/instruction"
	"github.com/HelixAutomations/enquiry-timeline/internal/metrics"
	"github.com/HelixAutomations/enquiry-timeline/internal/models"
	"github.com/HelixAutomations/enquiry-timeline/internal/sources"
	"github.com/HelixAutomations/enquiry-timeline/internal/timeline"
)

var (
	// ErrSyncInFlight rejects a manual re-sync while the same source is
	// still loading.
	ErrSyncInFlight = errors.New("a sync for this source is already in progress")

	// ErrPhoneNumberRequired is returned when neither the enquiry record
	// nor the request supplies a phone number for a call search.
	ErrPhoneNumberRequired = errors.New("no phone number on file; supply one to search call logs")

	// ErrUnknownSource rejects a sync against a source that does not exist.
	ErrUnknownSource = errors.New("unknown sync source")

	// ErrNoSession is returned when an enquiry has not been viewed yet.
	ErrNoSession = errors.New("no timeline session for this enquiry")
)

const (
	maxSearchLimit = 100

	// missingPhoneWarning is a non-blocking condition, reported through the
	// calls source state so the UI can prompt for a number.
	missingPhoneWarning = "No phone number on file"
)

// SyncLogRecorder persists fetch attempts for audit. Implementations must
// tolerate being called concurrently.
type SyncLogRecorder interface {
	Record(ctx context.Context, log models.SyncLog) error
}

// SyncParams are the user-adjustable parameters for a manual re-sync.
// Zero fields fall back to the values on the enquiry record.
type SyncParams struct {
	MailboxAddress  string `json:"mailbox_address,omitempty"`
	ProspectAddress string `json:"prospect_address,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	Limit           int    `json:"limit,omitempty"`
}

// session owns the merged timeline and per-source state for one enquiry.
// All mutation goes through the pure merge functions while holding mu.
type session struct {
	enquiry models.Enquiry

	mu       sync.RWMutex
	items    []models.TimelineItem
	states   map[models.SyncSource]models.SourceSyncState
	statuses map[string]models.InstructionStatus
	busy     map[models.SyncSource]bool

	lastAccess time.Time
}

func newSession(enquiry models.Enquiry) *session {
	states := make(map[models.SyncSource]models.SourceSyncState, len(models.SyncSources))
	for _, src := range models.SyncSources {
		states[src] = models.SourceSyncState{Source: src, Status: models.SyncStatusIdle}
	}
	return &session{
		enquiry:    enquiry,
		states:     states,
		statuses:   make(map[string]models.InstructionStatus),
		busy:       make(map[models.SyncSource]bool),
		lastAccess: time.Now(),
	}
}

// Orchestrator fans fetches out to the source connectors, normalizes and
// merges their results, and derives pipeline statuses for pitches with a
// linked instruction. It owns one session per enquiry.
type Orchestrator struct {
	connectors map[models.SyncSource]sources.Connector
	lookup     instruction.Lookup
	recorder   SyncLogRecorder
	collector  *metrics.SyncCollector
	logger     *slog.Logger

	mu         sync.Mutex
	sessions   map[string]*session
	sessionTTL time.Duration
}

// Config holds orchestrator tunables.
type Config struct {
	SessionTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{SessionTTL: 30 * time.Minute}
}

// New creates an orchestrator over the given connectors. The recorder and
// collector may be nil.
func New(connectors []sources.Connector, lookup instruction.Lookup, recorder SyncLogRecorder, collector *metrics.SyncCollector, logger *slog.Logger, cfg Config) *Orchestrator {
	bySource := make(map[models.SyncSource]sources.Connector, len(connectors))
	for _, conn := range connectors {
		bySource[conn.Source()] = conn
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultConfig().SessionTTL
	}

	return &Orchestrator{
		connectors: bySource,
		lookup:     lookup,
		recorder:   recorder,
		collector:  collector,
		logger:     logger,
		sessions:   make(map[string]*session),
		sessionTTL: cfg.SessionTTL,
	}
}

// Run evicts idle sessions until the context is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.sessionTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("orchestrator shutting down")
			return ctx.Err()
		case <-ticker.C:
			o.evictIdleSessions()
		}
	}
}

func (o *Orchestrator) evictIdleSessions() {
	cutoff := time.Now().Add(-o.sessionTTL)

	o.mu.Lock()
	defer o.mu.Unlock()

	for id, sess := range o.sessions {
		sess.mu.RLock()
		idle := sess.lastAccess.Before(cutoff)
		sess.mu.RUnlock()
		if idle {
			delete(o.sessions, id)
			o.logger.Debug("evicted idle timeline session", "enquiry_id", id)
		}
	}

	if o.collector != nil {
		o.collector.SetActiveSessions(len(o.sessions))
	}
}

// View returns the session for an enquiry, creating it and running the
// initial concurrent fetch of all three sources on first sight. Subsequent
// views return the session as-is; viewing never mutates the timeline.
func (o *Orchestrator) View(ctx context.Context, enquiry models.Enquiry) error {
	o.mu.Lock()
	sess, ok := o.sessions[enquiry.ID]
	if !ok {
		sess = newSession(enquiry)
		o.sessions[enquiry.ID] = sess
		if o.collector != nil {
			o.collector.SetActiveSessions(len(o.sessions))
		}
	}
	o.mu.Unlock()

	sess.mu.Lock()
	sess.lastAccess = time.Now()
	sess.mu.Unlock()

	if !ok {
		o.syncAll(ctx, sess)
	}
	return nil
}

// syncAll triggers all sources concurrently and independently. A failure in
// one is caught and reported through that source's own state; it never
// cancels or delays the others.
func (o *Orchestrator) syncAll(ctx context.Context, sess *session) {
	var wg sync.WaitGroup

	for _, src := range models.SyncSources {
		params, err := o.defaultParams(sess.enquiry, src, SyncParams{})
		if err != nil {
			// Missing phone number: non-blocking warning, the user may
			// still re-sync with a typed-in number.
			sess.setState(src, models.SourceSyncState{
				Source: src,
				Status: models.SyncStatusError,
				Error:  missingPhoneWarning,
			})
			continue
		}

		sess.mu.Lock()
		sess.busy[src] = true
		sess.mu.Unlock()

		wg.Add(1)
		go func(src models.SyncSource, params sources.FetchParams) {
			defer wg.Done()
			defer func() {
				sess.mu.Lock()
				sess.busy[src] = false
				sess.mu.Unlock()
			}()
			o.fetchSource(ctx, sess, src, params)
		}(src, params)
	}

	wg.Wait()
}

// TriggerSync re-fetches a single source with user-adjustable parameters,
// through the same merge path as the initial load. Concurrent re-triggering
// of one source is rejected with ErrSyncInFlight; the other sources are
// unaffected either way.
func (o *Orchestrator) TriggerSync(ctx context.Context, enquiryID string, src models.SyncSource, params SyncParams) (models.SourceSyncState, error) {
	if _, ok := o.connectors[src]; !ok {
		return models.SourceSyncState{}, ErrUnknownSource
	}

	sess, err := o.session(enquiryID)
	if err != nil {
		return models.SourceSyncState{}, err
	}

	fetchParams, err := o.defaultParams(sess.enquiry, src, params)
	if err != nil {
		return sess.state(src), err
	}

	sess.mu.Lock()
	if sess.busy[src] {
		state := sess.states[src]
		sess.mu.Unlock()
		return state, ErrSyncInFlight
	}
	sess.busy[src] = true
	sess.lastAccess = time.Now()
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		sess.busy[src] = false
		sess.mu.Unlock()
	}()

	o.fetchSource(ctx, sess, src, fetchParams)
	return sess.state(src), nil
}

// defaultParams pre-populates fetch parameters from the enquiry record and
// applies any user overrides.
func (o *Orchestrator) defaultParams(enquiry models.Enquiry, src models.SyncSource, overrides SyncParams) (sources.FetchParams, error) {
	params := sources.FetchParams{
		EnquiryID:       enquiry.ID,
		MailboxAddress:  enquiry.FeeEarnerEmail,
		ProspectAddress: enquiry.ProspectEmail,
		PhoneNumbers:    enquiry.PhoneNumbers(),
		Limit:           clampLimit(overrides.Limit),
	}

	if overrides.MailboxAddress != "" {
		params.MailboxAddress = overrides.MailboxAddress
	}
	if overrides.ProspectAddress != "" {
		params.ProspectAddress = overrides.ProspectAddress
	}
	if overrides.PhoneNumber != "" {
		params.PhoneNumbers = []string{overrides.PhoneNumber}
	}

	if src == models.SyncSourceCalls && len(params.PhoneNumbers) == 0 {
		return params, ErrPhoneNumberRequired
	}

	return params, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return sources.DefaultLimit
	case limit > maxSearchLimit:
		return maxSearchLimit
	default:
		return limit
	}
}

// fetchSource runs one fetch end to end: loading state, connector call,
// merge on success, instruction lookups for pitch items, audit log.
func (o *Orchestrator) fetchSource(ctx context.Context, sess *session, src models.SyncSource, params sources.FetchParams) {
	conn, ok := o.connectors[src]
	if !ok {
		return
	}

	start := time.Now()
	sess.setState(src, models.SourceSyncState{
		Source:    src,
		Status:    models.SyncStatusLoading,
		StartedAt: &start,
	})

	o.logger.Info("fetching source", "enquiry_id", sess.enquiry.ID, "source", src)

	items, err := conn.Fetch(ctx, params)
	duration := time.Since(start)
	fetchedAt := time.Now()

	if err != nil {
		o.logger.Error("source fetch failed",
			"enquiry_id", sess.enquiry.ID,
			"source", src,
			"error", err,
		)
		sess.setState(src, models.SourceSyncState{
			Source:    src,
			Status:    models.SyncStatusError,
			Error:     err.Error(),
			StartedAt: &start,
			FetchedAt: &fetchedAt,
		})
		o.record(ctx, sess.enquiry.ID, src, models.SyncStatusError, err.Error(), 0, duration)
		return
	}

	sess.mu.Lock()
	sess.items = timeline.Merge(sess.items, items)
	sess.states[src] = models.SourceSyncState{
		Source:    src,
		Status:    models.SyncStatusSuccess,
		ItemCount: len(items),
		StartedAt: &start,
		FetchedAt: &fetchedAt,
	}
	sess.mu.Unlock()

	o.logger.Info("source fetch completed",
		"enquiry_id", sess.enquiry.ID,
		"source", src,
		"count", len(items),
		"duration", duration,
	)

	if src == models.SyncSourcePitches {
		o.resolveStatuses(ctx, sess, items)
	}

	o.record(ctx, sess.enquiry.ID, src, models.SyncStatusSuccess, "", len(items), duration)
}

// resolveStatuses looks up the linked instruction for each pitch item
// concurrently, best-effort. A failed or empty lookup leaves no status
// entry for that pitch and never aborts the remaining lookups.
func (o *Orchestrator) resolveStatuses(ctx context.Context, sess *session, items []models.TimelineItem) {
	if o.lookup == nil {
		return
	}

	var wg sync.WaitGroup
	for _, item := range items {
		if item.Type != models.ItemTypePitch || item.Metadata.InstructionRef == "" {
			continue
		}

		wg.Add(1)
		go func(item models.TimelineItem) {
			defer wg.Done()

			inst, err := o.lookup.Lookup(ctx, item.Metadata.InstructionRef)
			if err != nil {
				o.logger.Warn("instruction lookup failed",
					"enquiry_id", sess.enquiry.ID,
					"pitch_id", item.ID,
					"ref", item.Metadata.InstructionRef,
					"error", err,
				)
				return
			}
			if inst == nil {
				return
			}

			status := instruction.Derive(*inst)
			sess.mu.Lock()
			sess.statuses[item.ID] = status
			sess.mu.Unlock()
		}(item)
	}
	wg.Wait()
}

func (o *Orchestrator) record(ctx context.Context, enquiryID string, src models.SyncSource, status models.SyncStatus, message string, count int, duration time.Duration) {
	if o.collector != nil {
		o.collector.ObserveSync(string(src), string(status), duration)
	}

	if o.recorder == nil {
		return
	}
	if err := o.recorder.Record(ctx, models.SyncLog{
		EnquiryID:  enquiryID,
		Source:     src,
		Status:     status,
		Message:    message,
		ItemCount:  count,
		DurationMs: duration.Milliseconds(),
	}); err != nil {
		o.logger.Warn("failed to record sync log", "enquiry_id", enquiryID, "source", src, "error", err)
	}
}

func (o *Orchestrator) session(enquiryID string) (*session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess, ok := o.sessions[enquiryID]
	if !ok {
		return nil, ErrNoSession
	}
	return sess, nil
}

// Items returns the merged collection for an enquiry, narrowed by the query.
func (o *Orchestrator) Items(enquiryID string, query models.TimelineQuery) ([]models.TimelineItem, error) {
	sess, err := o.session(enquiryID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.lastAccess = time.Now()
	items := make([]models.TimelineItem, len(sess.items))
	copy(items, sess.items)
	sess.mu.Unlock()

	return timeline.Apply(items, query), nil
}

// States returns every source's sync state, in fan-out order.
func (o *Orchestrator) States(enquiryID string) ([]models.SourceSyncState, error) {
	sess, err := o.session(enquiryID)
	if err != nil {
		return nil, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	states := make([]models.SourceSyncState, 0, len(models.SyncSources))
	for _, src := range models.SyncSources {
		states = append(states, sess.states[src])
	}
	return states, nil
}

// Statuses returns the derived pipeline status keyed by pitch item id. A
// pitch with no resolvable instruction simply has no entry.
func (o *Orchestrator) Statuses(enquiryID string) (map[string]models.InstructionStatus, error) {
	sess, err := o.session(enquiryID)
	if err != nil {
		return nil, err
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	statuses := make(map[string]models.InstructionStatus, len(sess.statuses))
	for id, status := range sess.statuses {
		statuses[id] = status
	}
	return statuses, nil
}

// HealthCheck checks the health of every connector.
func (o *Orchestrator) HealthCheck(ctx context.Context) map[string]error {
	results := make(map[string]error, len(o.connectors)+1)
	for src, conn := range o.connectors {
		results[string(src)] = conn.HealthCheck(ctx)
	}
	if hc, ok := o.lookup.(interface{ HealthCheck(context.Context) error }); ok {
		results["instructions"] = hc.HealthCheck(ctx)
	}
	return results
}

func (s *session) setState(src models.SyncSource, state models.SourceSyncState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[src] = state
}

func (s *session) state(src models.SyncSource) models.SourceSyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[src]
}

// Enquiry returns the enquiry record a session was created from.
func (o *Orchestrator) Enquiry(enquiryID string) (models.Enquiry, error) {
	sess, err := o.session(enquiryID)
	if err != nil {
		return models.Enquiry{}, err
	}
	return sess.enquiry, nil
}
