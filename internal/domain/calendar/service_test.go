package calendar

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"trpg-scheduler/pkg/logger"
)

type fakeCalendarRepo struct {
	events      map[string]*Event
	credentials map[string]*Credential
}

func newFakeCalendarRepo() *fakeCalendarRepo {
	return &fakeCalendarRepo{
		events:      make(map[string]*Event),
		credentials: make(map[string]*Credential),
	}
}

func (r *fakeCalendarRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	return fn(r)
}

func (r *fakeCalendarRepo) GetEvent(ctx context.Context, userID, eventID string) (*Event, error) {
	event, ok := r.events[eventID]
	if !ok || event.UserID != userID {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (r *fakeCalendarRepo) GetEventByExternalID(ctx context.Context, userID, externalEventID string) (*Event, error) {
	for _, event := range r.events {
		if event.UserID == userID && event.ExternalEventID == externalEventID {
			return event, nil
		}
	}
	return nil, ErrEventNotFound
}

func (r *fakeCalendarRepo) CreateEvent(ctx context.Context, event *Event) error {
	r.events[event.ID] = event
	return nil
}

func (r *fakeCalendarRepo) UpdateEvent(ctx context.Context, event *Event) error {
	r.events[event.ID] = event
	return nil
}

func (r *fakeCalendarRepo) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]Event, error) {
	result := make([]Event, 0)
	for _, event := range r.events {
		if event.UserID == userID && event.StartTime.Before(to) && event.EndTime.After(from) {
			result = append(result, *event)
		}
	}
	return result, nil
}

func (r *fakeCalendarRepo) ListIncludedEvents(ctx context.Context, userID string, from, to time.Time) ([]Event, error) {
	result := make([]Event, 0)
	for _, event := range r.events {
		if event.UserID == userID && event.IncludedInAvailability && !event.Deleted() &&
			event.StartTime.Before(to) && event.EndTime.After(from) {
			result = append(result, *event)
		}
	}
	return result, nil
}

func (r *fakeCalendarRepo) ListActiveExternalIDs(ctx context.Context, userID string) ([]string, error) {
	ids := make([]string, 0)
	for _, event := range r.events {
		if event.UserID == userID && !event.Deleted() {
			ids = append(ids, event.ExternalEventID)
		}
	}
	return ids, nil
}

func (r *fakeCalendarRepo) HardDeleteByExternalIDs(ctx context.Context, userID string, externalEventIDs []string) error {
	remove := make(map[string]struct{}, len(externalEventIDs))
	for _, id := range externalEventIDs {
		remove[id] = struct{}{}
	}
	for id, event := range r.events {
		if event.UserID != userID {
			continue
		}
		if _, ok := remove[event.ExternalEventID]; ok {
			delete(r.events, id)
		}
	}
	return nil
}

func (r *fakeCalendarRepo) SaveCredential(ctx context.Context, credential *Credential) error {
	r.credentials[credential.UserID] = credential
	return nil
}

func (r *fakeCalendarRepo) GetCredential(ctx context.Context, userID string) (*Credential, error) {
	credential, ok := r.credentials[userID]
	if !ok {
		return nil, ErrNotConnected
	}
	return credential, nil
}

type fakeProvider struct {
	events  []ExternalEvent
	listErr error
	nextID  string
	deleted []string
}

func (p *fakeProvider) ListEvents(ctx context.Context, calendarID string, from, to time.Time) ([]ExternalEvent, error) {
	if p.listErr != nil {
		return nil, p.listErr
	}
	return p.events, nil
}

func (p *fakeProvider) InsertEvent(ctx context.Context, calendarID string, draft EventDraft) (*ExternalEvent, error) {
	id := p.nextID
	if id == "" {
		id = "ext-new"
	}
	return &ExternalEvent{ID: id, Title: draft.Title, StartTime: draft.StartTime, EndTime: draft.EndTime}, nil
}

func (p *fakeProvider) UpdateEvent(ctx context.Context, calendarID, externalEventID string, draft EventDraft) (*ExternalEvent, error) {
	return &ExternalEvent{ID: externalEventID, Title: draft.Title, StartTime: draft.StartTime, EndTime: draft.EndTime}, nil
}

func (p *fakeProvider) DeleteEvent(ctx context.Context, calendarID, externalEventID string) error {
	p.deleted = append(p.deleted, externalEventID)
	return nil
}

type fakeProviderFactory struct {
	provider *fakeProvider
	err      error
}

func (f *fakeProviderFactory) ForUser(ctx context.Context, userID string) (Provider, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.provider, nil
}

func testLogger() logger.Logger {
	return logger.New(io.Discard, slog.LevelError, "text")
}

func externalSlot(id string, day int) ExternalEvent {
	start := time.Date(2026, 9, day, 10, 0, 0, 0, time.UTC)
	return ExternalEvent{ID: id, Title: "Session " + id, StartTime: start, EndTime: start.Add(2 * time.Hour)}
}

func TestSyncReconcilesLocalStore(t *testing.T) {
	repo := newFakeCalendarRepo()
	deletedAt := time.Now().UTC()

	// ext-a exists soft-deleted, ext-c exists active but is gone at the
	// provider, ext-b is new.
	repo.events["evt-a"] = &Event{ID: "evt-a", UserID: "user-1", ExternalEventID: "ext-a", Title: "Old A", DeletedAt: &deletedAt}
	repo.events["evt-c"] = &Event{ID: "evt-c", UserID: "user-1", ExternalEventID: "ext-c", Title: "Old C"}

	provider := &fakeProvider{events: []ExternalEvent{externalSlot("ext-a", 10), externalSlot("ext-b", 11)}}
	svc := NewService(repo, &fakeProviderFactory{provider: provider}, false, testLogger())

	result := svc.Sync(context.Background(), "user-1")
	if !result.Success {
		t.Fatalf("expected sync success, got %+v", result)
	}
	if result.SyncedCount != 2 {
		t.Fatalf("expected 2 synced events, got %d", result.SyncedCount)
	}

	updated, err := repo.GetEventByExternalID(context.Background(), "user-1", "ext-a")
	if err != nil {
		t.Fatalf("expected ext-a kept, got %v", err)
	}
	if updated.Title != "Session ext-a" {
		t.Fatalf("expected ext-a title updated, got %q", updated.Title)
	}
	if !updated.Deleted() {
		t.Fatalf("expected soft delete preserved without resurrect policy")
	}

	created, err := repo.GetEventByExternalID(context.Background(), "user-1", "ext-b")
	if err != nil {
		t.Fatalf("expected ext-b created, got %v", err)
	}
	if !created.IncludedInAvailability {
		t.Fatalf("expected new event included in availability by default")
	}
	if created.SyncedAt == nil {
		t.Fatalf("expected synced_at stamped")
	}

	if _, err := repo.GetEventByExternalID(context.Background(), "user-1", "ext-c"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected provider-absent ext-c hard-deleted, got %v", err)
	}
}

func TestSyncResurrectPolicyClearsSoftDelete(t *testing.T) {
	repo := newFakeCalendarRepo()
	deletedAt := time.Now().UTC()
	repo.events["evt-a"] = &Event{ID: "evt-a", UserID: "user-1", ExternalEventID: "ext-a", Title: "Old A", DeletedAt: &deletedAt}

	provider := &fakeProvider{events: []ExternalEvent{externalSlot("ext-a", 10)}}
	svc := NewService(repo, &fakeProviderFactory{provider: provider}, true, testLogger())

	if result := svc.Sync(context.Background(), "user-1"); !result.Success {
		t.Fatalf("expected sync success, got %+v", result)
	}
	event, err := repo.GetEventByExternalID(context.Background(), "user-1", "ext-a")
	if err != nil {
		t.Fatalf("expected ext-a present, got %v", err)
	}
	if event.Deleted() {
		t.Fatalf("expected soft delete cleared under resurrect policy")
	}
}

func TestSyncUsesDefaultTitle(t *testing.T) {
	repo := newFakeCalendarRepo()
	untitled := externalSlot("ext-a", 10)
	untitled.Title = ""
	provider := &fakeProvider{events: []ExternalEvent{untitled}}
	svc := NewService(repo, &fakeProviderFactory{provider: provider}, false, testLogger())

	if result := svc.Sync(context.Background(), "user-1"); !result.Success {
		t.Fatalf("expected sync success, got %+v", result)
	}
	event, err := repo.GetEventByExternalID(context.Background(), "user-1", "ext-a")
	if err != nil {
		t.Fatalf("expected event created, got %v", err)
	}
	if event.Title != "No Title" {
		t.Fatalf("expected default title, got %q", event.Title)
	}
}

func TestSyncProviderFailureLeavesStoreUntouched(t *testing.T) {
	repo := newFakeCalendarRepo()
	repo.events["evt-a"] = &Event{ID: "evt-a", UserID: "user-1", ExternalEventID: "ext-a", Title: "Old A"}

	provider := &fakeProvider{listErr: errors.New("rate limited")}
	svc := NewService(repo, &fakeProviderFactory{provider: provider}, false, testLogger())

	result := svc.Sync(context.Background(), "user-1")
	if result.Success {
		t.Fatalf("expected sync failure, got %+v", result)
	}
	if result.Error == "" {
		t.Fatalf("expected error message in result")
	}
	if len(repo.events) != 1 || repo.events["evt-a"].Title != "Old A" {
		t.Fatalf("expected local store untouched, got %+v", repo.events)
	}
}

func TestSyncNotConnected(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc := NewService(repo, &fakeProviderFactory{err: ErrNotConnected}, false, testLogger())

	result := svc.Sync(context.Background(), "user-1")
	if result.Success {
		t.Fatalf("expected failure without credentials, got %+v", result)
	}
}

func TestSoftDeleteAndRestoreAreIdempotent(t *testing.T) {
	repo := newFakeCalendarRepo()
	repo.events["evt-a"] = &Event{ID: "evt-a", UserID: "user-1", ExternalEventID: "ext-a"}
	svc := NewService(repo, &fakeProviderFactory{provider: &fakeProvider{}}, false, testLogger())

	if err := svc.SoftDelete(context.Background(), "user-1", "evt-a"); err != nil {
		t.Fatalf("expected soft delete, got %v", err)
	}
	stamp := repo.events["evt-a"].DeletedAt
	if stamp == nil {
		t.Fatalf("expected deleted_at set")
	}
	if err := svc.SoftDelete(context.Background(), "user-1", "evt-a"); err != nil {
		t.Fatalf("expected repeated soft delete to no-op, got %v", err)
	}
	if repo.events["evt-a"].DeletedAt != stamp {
		t.Fatalf("expected deleted_at unchanged on repeat")
	}

	if err := svc.Restore(context.Background(), "user-1", "evt-a"); err != nil {
		t.Fatalf("expected restore, got %v", err)
	}
	if repo.events["evt-a"].Deleted() {
		t.Fatalf("expected event restored")
	}
	if err := svc.Restore(context.Background(), "user-1", "evt-a"); err != nil {
		t.Fatalf("expected repeated restore to no-op, got %v", err)
	}
}

func TestSoftDeleteOtherUsersEventRejected(t *testing.T) {
	repo := newFakeCalendarRepo()
	repo.events["evt-a"] = &Event{ID: "evt-a", UserID: "user-2", ExternalEventID: "ext-a"}
	svc := NewService(repo, &fakeProviderFactory{provider: &fakeProvider{}}, false, testLogger())

	if err := svc.SoftDelete(context.Background(), "user-1", "evt-a"); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestSetIncludedInAvailability(t *testing.T) {
	repo := newFakeCalendarRepo()
	repo.events["evt-a"] = &Event{ID: "evt-a", UserID: "user-1", ExternalEventID: "ext-a", IncludedInAvailability: true}
	svc := NewService(repo, &fakeProviderFactory{provider: &fakeProvider{}}, false, testLogger())

	if err := svc.SetIncludedInAvailability(context.Background(), "user-1", "evt-a", false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.events["evt-a"].IncludedInAvailability {
		t.Fatalf("expected event excluded from availability")
	}
}

func TestCreateEventReturnsProviderID(t *testing.T) {
	repo := newFakeCalendarRepo()
	provider := &fakeProvider{nextID: "ext-77"}
	svc := NewService(repo, &fakeProviderFactory{provider: provider}, false, testLogger())

	start := time.Date(2026, 9, 12, 13, 0, 0, 0, time.UTC)
	result := svc.CreateEvent(context.Background(), "user-1", EventDraft{Title: "Session", StartTime: start, EndTime: start.Add(4 * time.Hour)})
	if !result.Success || result.ExternalEventID != "ext-77" {
		t.Fatalf("expected success with ext-77, got %+v", result)
	}
}

func TestCreateEventNotConnected(t *testing.T) {
	repo := newFakeCalendarRepo()
	svc := NewService(repo, &fakeProviderFactory{err: ErrNotConnected}, false, testLogger())

	result := svc.CreateEvent(context.Background(), "user-1", EventDraft{Title: "Session"})
	if result.Success || result.Error == "" {
		t.Fatalf("expected failed result with message, got %+v", result)
	}
}
