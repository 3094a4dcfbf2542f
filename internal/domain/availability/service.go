package availability

import (
	"context"
	"time"

	"github.com/google/uuid"

	calendardomain "trpg-scheduler/internal/domain/calendar"
	groupdomain "trpg-scheduler/internal/domain/group"
)

// CalendarEvents feeds externally synced busy time into the aggregator.
type CalendarEvents interface {
	ListIncludedEvents(ctx context.Context, userID string, from, to time.Time) ([]calendardomain.Event, error)
}

// Memberships resolves group membership and the planned period used as
// the default query window.
type Memberships interface {
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
	GroupInfo(ctx context.Context, groupID string) (*groupdomain.Group, error)
}

type Service struct {
	repo     Repository
	calendar CalendarEvents
	members  Memberships
}

func NewService(repo Repository, calendar CalendarEvents, members Memberships) *Service {
	return &Service{
		repo:     repo,
		calendar: calendar,
		members:  members,
	}
}

func (s *Service) Create(ctx context.Context, userID string, start, end time.Time, source string) (*Availability, error) {
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}
	if source != SourceManual && source != SourceExternalCalendar {
		return nil, ErrInvalidSource
	}

	record := Availability{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: start,
		EndTime:   end,
		Source:    source,
	}
	if err := s.repo.Create(ctx, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Service) List(ctx context.Context, userID string, from, to time.Time) ([]Availability, error) {
	if !to.After(from) {
		return nil, ErrInvalidWindow
	}
	return s.repo.List(ctx, userID, from, to)
}

func (s *Service) Delete(ctx context.Context, userID, availabilityID string) error {
	if _, err := s.repo.Get(ctx, userID, availabilityID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, availabilityID)
}

// BusyIntervals is the merged union of the user's synced calendar
// events that count toward availability, clipped to the window.
func (s *Service) BusyIntervals(ctx context.Context, userID string, from, to time.Time) ([]Interval, error) {
	if !to.After(from) {
		return nil, ErrInvalidWindow
	}

	events, err := s.calendar.ListIncludedEvents(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	intervals := make([]Interval, 0, len(events))
	for _, event := range events {
		intervals = append(intervals, Interval{Start: event.StartTime, End: event.EndTime})
	}
	return clipIntervals(mergeIntervals(intervals), Interval{Start: from, End: to}), nil
}

// FreeIntervals is the window minus busy time, narrowed to the user's
// offered manual availability when any records exist. A user with no
// manual records is treated as open outside their busy time.
func (s *Service) FreeIntervals(ctx context.Context, userID string, from, to time.Time) ([]Interval, error) {
	busy, err := s.BusyIntervals(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	window := Interval{Start: from, End: to}
	free := subtractIntervals(window, busy)

	records, err := s.repo.List(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	offered := make([]Interval, 0, len(records))
	for _, record := range records {
		if record.Source == SourceManual {
			offered = append(offered, Interval{Start: record.StartTime, End: record.EndTime})
		}
	}
	if len(offered) == 0 {
		return free, nil
	}

	offered = clipIntervals(mergeIntervals(offered), window)
	return intersectIntervals(free, offered), nil
}

// GroupFreeIntervals intersects every member's free intervals, keeping
// slots of at least minDuration. With a zero window the group's planned
// period is used.
func (s *Service) GroupFreeIntervals(ctx context.Context, groupID string, from, to time.Time, minDuration time.Duration) ([]Interval, error) {
	if from.IsZero() || to.IsZero() {
		grp, err := s.members.GroupInfo(ctx, groupID)
		if err != nil {
			return nil, err
		}
		if grp.PlannedPeriodStart == nil || grp.PlannedPeriodEnd == nil {
			return nil, ErrInvalidWindow
		}
		from = *grp.PlannedPeriodStart
		// Planned period end is a date; include the whole last day.
		to = grp.PlannedPeriodEnd.Add(24 * time.Hour)
	}
	if !to.After(from) {
		return nil, ErrInvalidWindow
	}

	memberIDs, err := s.members.ListMemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if len(memberIDs) == 0 {
		return nil, nil
	}

	common, err := s.FreeIntervals(ctx, memberIDs[0], from, to)
	if err != nil {
		return nil, err
	}
	for _, userID := range memberIDs[1:] {
		if len(common) == 0 {
			break
		}
		free, err := s.FreeIntervals(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}
		common = intersectIntervals(common, free)
	}

	return filterMinDuration(common, minDuration), nil
}
