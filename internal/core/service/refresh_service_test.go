package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentkyo/jadlog-bot/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubTracker struct {
	events     map[string][]domain.TrackingEvent
	err        error
	fetchCalls int
}

func (t *stubTracker) Fetch(_ context.Context, code string) ([]domain.TrackingEvent, error) {
	t.fetchCalls++
	if t.err != nil {
		return nil, t.err
	}
	return t.events[code], nil
}

type stubRepo struct {
	records     []*domain.TrackedPackage
	findErr     error
	insertErr   error
	updateErr   error
	updateCalls []updateCall
}

type updateCall struct {
	code      string
	userID    int64
	events    []domain.TrackingEvent
	checkedAt time.Time
}

func (r *stubRepo) Insert(_ context.Context, pkg *domain.TrackedPackage) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	clone := *pkg
	r.records = append(r.records, &clone)
	return nil
}

func (r *stubRepo) FindByUser(_ context.Context, userID int64) ([]*domain.TrackedPackage, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	var out []*domain.TrackedPackage
	for _, rec := range r.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubRepo) FindByTrackingCode(_ context.Context, code string) ([]*domain.TrackedPackage, error) {
	var out []*domain.TrackedPackage
	for _, rec := range r.records {
		if rec.TrackingCode == code {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubRepo) FindAll(_ context.Context) ([]*domain.TrackedPackage, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.records, nil
}

func (r *stubRepo) UpdateEvents(_ context.Context, code string, userID int64, events []domain.TrackingEvent, checkedAt time.Time) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updateCalls = append(r.updateCalls, updateCall{code: code, userID: userID, events: events, checkedAt: checkedAt})
	for _, rec := range r.records {
		if rec.TrackingCode == code && (userID == 0 || rec.UserID == userID) {
			rec.Events = events
			rec.LastCheckedAt = checkedAt
		}
	}
	return nil
}

type sentMessage struct {
	userID int64
	text   string
}

type stubNotifier struct {
	sent []sentMessage
	err  error
}

func (n *stubNotifier) Notify(_ context.Context, userID int64, text string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMessage{userID: userID, text: text})
	return nil
}

type stubFailures struct {
	counts map[string]int64
}

func newStubFailures() *stubFailures {
	return &stubFailures{counts: make(map[string]int64)}
}

func (f *stubFailures) Bump(_ context.Context, code string) (int64, error) {
	f.counts[code]++
	return f.counts[code], nil
}

func (f *stubFailures) Reset(_ context.Context, code string) error {
	delete(f.counts, code)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func newService(tracker *stubTracker, repo *stubRepo, notifier *stubNotifier, failures *stubFailures) *RefreshService {
	s := NewRefreshService(tracker, repo, notifier, failures, zerolog.Nop())
	s.timeNow = func() time.Time { return fixedNow }
	return s
}

func history(statuses ...string) []domain.TrackingEvent {
	events := make([]domain.TrackingEvent, 0, len(statuses))
	for i, status := range statuses {
		events = append(events, domain.TrackingEvent{
			Timestamp:         fmt.Sprintf("0%d/08/2026 10:00", i+1),
			OriginPoint:       "SAO PAULO",
			Status:            status,
			DestinationPoint:  "CURITIBA",
			DocumentReference: "DOC-1",
		})
	}
	return events
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestRegister_Success(t *testing.T) {
	tracker := &stubTracker{events: map[string][]domain.TrackingEvent{
		"ABC123456": history("EMISSAO", "TRANSFERENCIA"),
	}}
	repo := &stubRepo{}
	svc := newService(tracker, repo, &stubNotifier{}, newStubFailures())

	if err := svc.Register(context.Background(), 42, "ABC123456"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if len(repo.records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(repo.records))
	}
	rec := repo.records[0]
	if rec.UserID != 42 || rec.TrackingCode != "ABC123456" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if !domain.EventsEqual(rec.Events, history("EMISSAO", "TRANSFERENCIA")) {
		t.Fatalf("stored events differ from fetched events")
	}
	if !rec.LastCheckedAt.Equal(fixedNow) {
		t.Fatalf("last_checked_at not set to fetch time: %v", rec.LastCheckedAt)
	}
}

func TestRegister_EmptyHistoryIsStillPersisted(t *testing.T) {
	tracker := &stubTracker{events: map[string][]domain.TrackingEvent{}}
	repo := &stubRepo{}
	svc := newService(tracker, repo, &stubNotifier{}, newStubFailures())

	if err := svc.Register(context.Background(), 42, "ABC123456"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(repo.records))
	}
	if len(repo.records[0].Events) != 0 {
		t.Fatalf("expected empty events, got %d", len(repo.records[0].Events))
	}
}

func TestRegister_FetchFailureStoresNothing(t *testing.T) {
	tracker := &stubTracker{err: domain.ErrCarrierUnavailable}
	repo := &stubRepo{}
	svc := newService(tracker, repo, &stubNotifier{}, newStubFailures())

	err := svc.Register(context.Background(), 42, "ABC123456")
	if !errors.Is(err, domain.ErrCarrierUnavailable) {
		t.Fatalf("expected ErrCarrierUnavailable, got %v", err)
	}
	if len(repo.records) != 0 {
		t.Fatalf("fetch failure must not persist a record, got %d", len(repo.records))
	}
}

func TestRegister_InvalidCode(t *testing.T) {
	tracker := &stubTracker{}
	svc := newService(tracker, &stubRepo{}, &stubNotifier{}, newStubFailures())

	for _, code := range []string{"", "abc", "with space", "código!", strings.Repeat("A", 21)} {
		err := svc.Register(context.Background(), 42, code)
		if !errors.Is(err, domain.ErrInvalidTrackingCode) {
			t.Fatalf("code %q: expected ErrInvalidTrackingCode, got %v", code, err)
		}
	}
	if tracker.fetchCalls != 0 {
		t.Fatalf("invalid codes must not reach the carrier, got %d fetches", tracker.fetchCalls)
	}
}

func TestRegister_DuplicatesAllowed(t *testing.T) {
	tracker := &stubTracker{events: map[string][]domain.TrackingEvent{
		"ABC123456": history("EMISSAO"),
	}}
	repo := &stubRepo{}
	svc := newService(tracker, repo, &stubNotifier{}, newStubFailures())

	if err := svc.Register(context.Background(), 42, "ABC123456"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if err := svc.Register(context.Background(), 42, "ABC123456"); err != nil {
		t.Fatalf("second register failed: %v", err)
	}
	if len(repo.records) != 2 {
		t.Fatalf("expected 2 independent records, got %d", len(repo.records))
	}
}

// ---------------------------------------------------------------------------
// RefreshUser
// ---------------------------------------------------------------------------

func TestRefreshUser_NoPackages(t *testing.T) {
	tracker := &stubTracker{}
	svc := newService(tracker, &stubRepo{}, &stubNotifier{}, newStubFailures())

	err := svc.RefreshUser(context.Background(), 42)
	if !errors.Is(err, domain.ErrNoPackages) {
		t.Fatalf("expected ErrNoPackages, got %v", err)
	}
	if tracker.fetchCalls != 0 {
		t.Fatalf("no packages means no fetches, got %d", tracker.fetchCalls)
	}
}

func TestRefreshUser_OnlyOwnPackages(t *testing.T) {
	tracker := &stubTracker{events: map[string][]domain.TrackingEvent{
		"AAA111111": history("EMISSAO"),
		"BBB222222": history("EMISSAO"),
	}}
	repo := &stubRepo{records: []*domain.TrackedPackage{
		{UserID: 42, TrackingCode: "AAA111111", Events: history("EMISSAO")},
		{UserID: 99, TrackingCode: "BBB222222", Events: history("EMISSAO")},
	}}
	notifier := &stubNotifier{}
	svc := newService(tracker, repo, notifier, newStubFailures())

	if err := svc.RefreshUser(context.Background(), 42); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if tracker.fetchCalls != 1 {
		t.Fatalf("expected 1 fetch for user's single package, got %d", tracker.fetchCalls)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].userID != 42 {
		t.Fatalf("expected one notification to user 42, got %+v", notifier.sent)
	}
}

// ---------------------------------------------------------------------------
// RefreshAll
// ---------------------------------------------------------------------------

func TestRefreshAll_NoDelta(t *testing.T) {
	stored := history("EMISSAO", "TRANSFERENCIA")
	storedCheckedAt := fixedNow.Add(-time.Hour)
	tracker := &stubTracker{events: map[string][]domain.TrackingEvent{
		"ABC123456": history("EMISSAO", "TRANSFERENCIA"),
	}}
	repo := &stubRepo{records: []*domain.TrackedPackage{
		{UserID: 42, TrackingCode: "ABC123456", Events: stored, LastCheckedAt: storedCheckedAt},
	}}
	notifier := &stubNotifier{}
	svc := newService(tracker, repo, notifier, newStubFailures())

	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("pass failed: %v", err)
	}

	if len(repo.updateCalls) != 0 {
		t.Fatalf("no delta must not touch the store, got %d updates", len(repo.updateCalls))
	}
	if !repo.records[0].LastCheckedAt.Equal(storedCheckedAt) {
		t.Fatalf("last_checked_at moved without a delta")
	}
	if len(notifier.sent) != 1 {
		t.Fatalf("expected exactly one notification, got %d", len(notifier.sent))
	}
	if !strings.Contains(notifier.sent[0].text, "sem atualizações") {
		t.Fatalf("expected a no-updates notification, got %q", notifier.sent[0].text)
	}
}

func TestRefreshAll_Delta(t *testing.T) {
	tracker := &stubTracker{events: map[string][]domain.TrackingEvent{
		"ABC123456": history("EMISSAO", "TRANSFERENCIA", "ENTREGUE"),
	}}
	repo := &stubRepo{records: []*domain.TrackedPackage{
		{UserID: 42, TrackingCode: "ABC123456", Events: history("EMISSAO", "TRANSFERENCIA")},
	}}
	notifier := &stubNotifier{}
	svc := newService(tracker, repo, notifier, newStubFailures())

	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("pass failed: %v", err)
	}

	if len(repo.updateCalls) != 1 {
		t.Fatalf("expected 1 store update, got %d", len(repo.updateCalls))
	}
	call := repo.updateCalls[0]
	if call.code != "ABC123456" || call.userID != 42 {
		t.Fatalf("update not scoped to the owning record: %+v", call)
	}
	if !domain.EventsEqual(call.events, history("EMISSAO", "TRANSFERENCIA", "ENTREGUE")) {
		t.Fatalf("stored events are not the freshly fetched ones")
	}
	if !call.checkedAt.Equal(fixedNow) {
		t.Fatalf("last_checked_at not refreshed on delta")
	}
	if len(notifier.sent) != 1 || !strings.Contains(notifier.sent[0].text, "atualizada") {
		t.Fatalf("expected an updated notification, got %+v", notifier.sent)
	}
}

func TestRefreshAll_EmptyBecomingNonEmptyIsDelta(t *testing.T) {
	tracker := &stubTracker{events: map[string][]domain.TrackingEvent{
		"ABC123456": history("EMISSAO"),
	}}
	repo := &stubRepo{records: []*domain.TrackedPackage{
		{UserID: 42, TrackingCode: "ABC123456", Events: nil},
	}}
	notifier := &stubNotifier{}
	svc := newService(tracker, repo, notifier, newStubFailures())

	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("pass failed: %v", err)
	}
	if len(repo.updateCalls) != 1 {
		t.Fatalf("empty→non-empty must be treated as a delta")
	}
}

func TestRefreshAll_FetchFailureSkipsRecord(t *testing.T) {
	tracker := &stubTracker{err: domain.ErrCarrierUnavailable}
	repo := &stubRepo{records: []*domain.TrackedPackage{
		{UserID: 42, TrackingCode: "ABC123456", Events: history("EMISSAO")},
		{UserID: 99, TrackingCode: "DEF654321", Events: history("EMISSAO")},
	}}
	notifier := &stubNotifier{}
	failures := newStubFailures()
	svc := newService(tracker, repo, notifier, failures)

	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("a per-record fetch failure must not abort the pass: %v", err)
	}

	if tracker.fetchCalls != 2 {
		t.Fatalf("pass must still visit every record, got %d fetches", tracker.fetchCalls)
	}
	if len(repo.updateCalls) != 0 {
		t.Fatalf("failed fetches must not write to the store")
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("a single failure must not notify, got %+v", notifier.sent)
	}
	if failures.counts["ABC123456"] != 1 || failures.counts["DEF654321"] != 1 {
		t.Fatalf("failure counters not bumped: %+v", failures.counts)
	}
}

func TestRefreshAll_StaleNoticeAtThresholdOnly(t *testing.T) {
	tracker := &stubTracker{err: domain.ErrCarrierUnavailable}
	repo := &stubRepo{records: []*domain.TrackedPackage{
		{UserID: 42, TrackingCode: "ABC123456", Events: history("EMISSAO")},
	}}
	notifier := &stubNotifier{}
	svc := newService(tracker, repo, notifier, newStubFailures())

	for i := 0; i < staleThreshold+2; i++ {
		if err := svc.RefreshAll(context.Background()); err != nil {
			t.Fatalf("pass %d failed: %v", i, err)
		}
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("stale notice must go out exactly once, got %d", len(notifier.sent))
	}
	if !strings.Contains(notifier.sent[0].text, "sem rastreamento") {
		t.Fatalf("unexpected stale notice: %q", notifier.sent[0].text)
	}
}

func TestRefreshAll_SuccessResetsFailureCount(t *testing.T) {
	tracker := &stubTracker{err: domain.ErrCarrierUnavailable}
	repo := &stubRepo{records: []*domain.TrackedPackage{
		{UserID: 42, TrackingCode: "ABC123456", Events: history("EMISSAO")},
	}}
	failures := newStubFailures()
	svc := newService(tracker, repo, &stubNotifier{}, failures)

	_ = svc.RefreshAll(context.Background())
	_ = svc.RefreshAll(context.Background())

	tracker.err = nil
	tracker.events = map[string][]domain.TrackingEvent{"ABC123456": history("EMISSAO")}
	_ = svc.RefreshAll(context.Background())

	if failures.counts["ABC123456"] != 0 {
		t.Fatalf("successful fetch must reset the failure count, got %d", failures.counts["ABC123456"])
	}
}

func TestRefreshAll_StoreFailureDoesNotNotify(t *testing.T) {
	tracker := &stubTracker{events: map[string][]domain.TrackingEvent{
		"ABC123456": history("EMISSAO", "ENTREGUE"),
	}}
	repo := &stubRepo{
		records: []*domain.TrackedPackage{
			{UserID: 42, TrackingCode: "ABC123456", Events: history("EMISSAO")},
		},
		updateErr: errors.New("disk full"),
	}
	notifier := &stubNotifier{}
	svc := newService(tracker, repo, notifier, newStubFailures())

	if err := svc.RefreshAll(context.Background()); err != nil {
		t.Fatalf("a per-record store failure must not abort the pass: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("an update that failed to persist must not be announced, got %+v", notifier.sent)
	}
}
