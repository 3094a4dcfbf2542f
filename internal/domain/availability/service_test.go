package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	calendardomain "trpg-scheduler/internal/domain/calendar"
	groupdomain "trpg-scheduler/internal/domain/group"
)

type fakeAvailabilityRepo struct {
	records map[string]*Availability
}

func newFakeAvailabilityRepo() *fakeAvailabilityRepo {
	return &fakeAvailabilityRepo{records: make(map[string]*Availability)}
}

func (r *fakeAvailabilityRepo) Create(ctx context.Context, availability *Availability) error {
	r.records[availability.ID] = availability
	return nil
}

func (r *fakeAvailabilityRepo) Get(ctx context.Context, userID, availabilityID string) (*Availability, error) {
	record, ok := r.records[availabilityID]
	if !ok || record.UserID != userID {
		return nil, ErrNotFound
	}
	return record, nil
}

func (r *fakeAvailabilityRepo) List(ctx context.Context, userID string, from, to time.Time) ([]Availability, error) {
	result := make([]Availability, 0)
	for _, record := range r.records {
		if record.UserID == userID && record.StartTime.Before(to) && record.EndTime.After(from) {
			result = append(result, *record)
		}
	}
	return result, nil
}

func (r *fakeAvailabilityRepo) Delete(ctx context.Context, userID, availabilityID string) error {
	delete(r.records, availabilityID)
	return nil
}

type fakeCalendarEvents struct {
	events map[string][]calendardomain.Event
}

func (c *fakeCalendarEvents) ListIncludedEvents(ctx context.Context, userID string, from, to time.Time) ([]calendardomain.Event, error) {
	result := make([]calendardomain.Event, 0)
	for _, event := range c.events[userID] {
		if event.StartTime.Before(to) && event.EndTime.After(from) {
			result = append(result, event)
		}
	}
	return result, nil
}

type fakeGroupReader struct {
	group     *groupdomain.Group
	memberIDs []string
}

func (g *fakeGroupReader) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	return g.memberIDs, nil
}

func (g *fakeGroupReader) GroupInfo(ctx context.Context, groupID string) (*groupdomain.Group, error) {
	if g.group == nil {
		return nil, groupdomain.ErrGroupNotFound
	}
	return g.group, nil
}

func day(d, hour int) time.Time {
	return time.Date(2026, 9, d, hour, 0, 0, 0, time.UTC)
}

func busyEvent(userID string, start, end time.Time) calendardomain.Event {
	return calendardomain.Event{UserID: userID, StartTime: start, EndTime: end, IncludedInAvailability: true}
}

func TestCreateRejectsEmptyRange(t *testing.T) {
	svc := NewService(newFakeAvailabilityRepo(), &fakeCalendarEvents{}, &fakeGroupReader{})

	start := day(10, 9)
	if _, err := svc.Create(context.Background(), "user-1", start, start, SourceManual); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange for end==start, got %v", err)
	}
	if _, err := svc.Create(context.Background(), "user-1", start, start.Add(time.Second), SourceManual); err != nil {
		t.Fatalf("expected one-second range to pass, got %v", err)
	}
}

func TestCreateRejectsUnknownSource(t *testing.T) {
	svc := NewService(newFakeAvailabilityRepo(), &fakeCalendarEvents{}, &fakeGroupReader{})

	if _, err := svc.Create(context.Background(), "user-1", day(10, 9), day(10, 12), "psychic"); !errors.Is(err, ErrInvalidSource) {
		t.Fatalf("expected ErrInvalidSource, got %v", err)
	}
}

func TestDeleteOtherUsersRecordRejected(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	repo.records["av-1"] = &Availability{ID: "av-1", UserID: "user-2", StartTime: day(10, 9), EndTime: day(10, 12), Source: SourceManual}
	svc := NewService(repo, &fakeCalendarEvents{}, &fakeGroupReader{})

	if err := svc.Delete(context.Background(), "user-1", "av-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBusyIntervalsMergesAndClips(t *testing.T) {
	calendarEvents := &fakeCalendarEvents{events: map[string][]calendardomain.Event{
		"user-1": {
			busyEvent("user-1", day(10, 9), day(10, 11)),
			busyEvent("user-1", day(10, 10), day(10, 12)),
			busyEvent("user-1", day(10, 7), day(10, 8)),
		},
	}}
	svc := NewService(newFakeAvailabilityRepo(), calendarEvents, &fakeGroupReader{})

	busy, err := svc.BusyIntervals(context.Background(), "user-1", day(10, 8), day(10, 18))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(busy) != 1 {
		t.Fatalf("expected overlapping events merged to 1 interval, got %d: %v", len(busy), busy)
	}
	if !busy[0].Start.Equal(day(10, 9)) || !busy[0].End.Equal(day(10, 12)) {
		t.Fatalf("expected merged interval 09:00-12:00, got %v", busy[0])
	}
}

func TestFreeIntervalsSubtractsBusyTime(t *testing.T) {
	calendarEvents := &fakeCalendarEvents{events: map[string][]calendardomain.Event{
		"user-1": {busyEvent("user-1", day(10, 12), day(10, 14))},
	}}
	svc := NewService(newFakeAvailabilityRepo(), calendarEvents, &fakeGroupReader{})

	free, err := svc.FreeIntervals(context.Background(), "user-1", day(10, 9), day(10, 18))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(free) != 2 {
		t.Fatalf("expected 2 free intervals, got %d: %v", len(free), free)
	}
	if !free[0].Start.Equal(day(10, 9)) || !free[0].End.Equal(day(10, 12)) {
		t.Fatalf("expected morning 09:00-12:00, got %v", free[0])
	}
	if !free[1].Start.Equal(day(10, 14)) || !free[1].End.Equal(day(10, 18)) {
		t.Fatalf("expected afternoon 14:00-18:00, got %v", free[1])
	}
}

func TestFreeIntervalsNarrowedByManualAvailability(t *testing.T) {
	repo := newFakeAvailabilityRepo()
	repo.records["av-1"] = &Availability{ID: "av-1", UserID: "user-1", StartTime: day(10, 10), EndTime: day(10, 15), Source: SourceManual}
	calendarEvents := &fakeCalendarEvents{events: map[string][]calendardomain.Event{
		"user-1": {busyEvent("user-1", day(10, 12), day(10, 13))},
	}}
	svc := NewService(repo, calendarEvents, &fakeGroupReader{})

	free, err := svc.FreeIntervals(context.Background(), "user-1", day(10, 9), day(10, 18))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(free) != 2 {
		t.Fatalf("expected 2 free intervals within offered window, got %d: %v", len(free), free)
	}
	if !free[0].Start.Equal(day(10, 10)) || !free[0].End.Equal(day(10, 12)) {
		t.Fatalf("expected 10:00-12:00, got %v", free[0])
	}
	if !free[1].Start.Equal(day(10, 13)) || !free[1].End.Equal(day(10, 15)) {
		t.Fatalf("expected 13:00-15:00, got %v", free[1])
	}
}

func TestGroupFreeIntervalsIntersectsMembers(t *testing.T) {
	calendarEvents := &fakeCalendarEvents{events: map[string][]calendardomain.Event{
		"user-1": {busyEvent("user-1", day(10, 9), day(10, 12))},
		"user-2": {busyEvent("user-2", day(10, 15), day(10, 18))},
	}}
	groups := &fakeGroupReader{memberIDs: []string{"user-1", "user-2"}}
	svc := NewService(newFakeAvailabilityRepo(), calendarEvents, groups)

	free, err := svc.GroupFreeIntervals(context.Background(), "grp-1", day(10, 9), day(10, 18), 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(free) != 1 {
		t.Fatalf("expected 1 common interval, got %d: %v", len(free), free)
	}
	if !free[0].Start.Equal(day(10, 12)) || !free[0].End.Equal(day(10, 15)) {
		t.Fatalf("expected common slot 12:00-15:00, got %v", free[0])
	}
}

func TestGroupFreeIntervalsMinDuration(t *testing.T) {
	calendarEvents := &fakeCalendarEvents{events: map[string][]calendardomain.Event{
		"user-1": {
			busyEvent("user-1", day(10, 10), day(10, 11)),
			busyEvent("user-1", day(10, 12), day(10, 18)),
		},
	}}
	groups := &fakeGroupReader{memberIDs: []string{"user-1"}}
	svc := NewService(newFakeAvailabilityRepo(), calendarEvents, groups)

	// Free slots are 09:00-10:00 and 11:00-12:00; a 2h minimum drops both.
	free, err := svc.GroupFreeIntervals(context.Background(), "grp-1", day(10, 9), day(10, 18), 2*time.Hour)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(free) != 0 {
		t.Fatalf("expected no slot of 2h, got %v", free)
	}

	free, err = svc.GroupFreeIntervals(context.Background(), "grp-1", day(10, 9), day(10, 18), time.Hour)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(free) != 2 {
		t.Fatalf("expected both 1h slots, got %v", free)
	}
}

func TestGroupFreeIntervalsDefaultsToPlannedPeriod(t *testing.T) {
	start := day(10, 0)
	end := day(12, 0)
	groups := &fakeGroupReader{
		group:     &groupdomain.Group{ID: "grp-1", PlannedPeriodStart: &start, PlannedPeriodEnd: &end},
		memberIDs: []string{"user-1"},
	}
	svc := NewService(newFakeAvailabilityRepo(), &fakeCalendarEvents{}, groups)

	free, err := svc.GroupFreeIntervals(context.Background(), "grp-1", time.Time{}, time.Time{}, 0)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(free) != 1 {
		t.Fatalf("expected single open interval, got %v", free)
	}
	// The last planned day is included whole.
	if !free[0].Start.Equal(start) || !free[0].End.Equal(end.Add(24*time.Hour)) {
		t.Fatalf("expected planned period window, got %v", free[0])
	}
}

func TestGroupFreeIntervalsNoWindowNoPlannedPeriod(t *testing.T) {
	groups := &fakeGroupReader{group: &groupdomain.Group{ID: "grp-1"}, memberIDs: []string{"user-1"}}
	svc := NewService(newFakeAvailabilityRepo(), &fakeCalendarEvents{}, groups)

	if _, err := svc.GroupFreeIntervals(context.Background(), "grp-1", time.Time{}, time.Time{}, 0); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}
