package pending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	calendardomain "trpg-scheduler/internal/domain/calendar"
	groupdomain "trpg-scheduler/internal/domain/group"
	"trpg-scheduler/pkg/logger"
)

// Memberships is the read side of the group store the engine depends
// on. Member counts are always read through here so the quorum tracks
// membership changes between approvals.
type Memberships interface {
	RoleOf(ctx context.Context, groupID, userID string) (string, error)
	CountMembers(ctx context.Context, groupID string) (int64, error)
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
	GroupInfo(ctx context.Context, groupID string) (*groupdomain.Group, error)
	GetScenario(ctx context.Context, scenarioID string) (*groupdomain.Scenario, error)
}

// CalendarWriter is the outbound path to the external calendar. Write
// failures surface as result values; a failed publish never unwinds a
// promotion.
type CalendarWriter interface {
	CreateEvent(ctx context.Context, userID string, draft calendardomain.EventDraft) calendardomain.WriteResult
	DeleteEvent(ctx context.Context, userID, externalEventID string) calendardomain.WriteResult
}

type Service struct {
	repo     Repository
	members  Memberships
	calendar CalendarWriter
	log      logger.Logger
}

func NewService(repo Repository, members Memberships, calendar CalendarWriter, log logger.Logger) *Service {
	return &Service{
		repo:     repo,
		members:  members,
		calendar: calendar,
		log:      log,
	}
}

// Create opens negotiation on a candidate slot. One pending event per
// group; a second create is rejected, not queued. Approvals are seeded
// unapproved for every current member.
func (s *Service) Create(ctx context.Context, actorID, groupID, scenarioID string, start, end time.Time) (*PendingEvent, error) {
	if !end.After(start) {
		return nil, ErrInvalidTimeRange
	}
	if err := s.requireKeeper(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	scenario, err := s.members.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if scenario.GroupID != groupID {
		return nil, groupdomain.ErrScenarioNotFound
	}

	memberIDs, err := s.members.ListMemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	event := PendingEvent{
		ID:         uuid.NewString(),
		GroupID:    groupID,
		ScenarioID: scenarioID,
		StartTime:  start,
		EndTime:    end,
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if _, err := tx.GetPendingEventByGroup(ctx, groupID); err == nil {
			return ErrAlreadyPending
		} else if !errors.Is(err, ErrPendingEventNotFound) {
			return err
		}
		if err := tx.CreatePendingEvent(ctx, &event); err != nil {
			return err
		}
		for _, userID := range memberIDs {
			approval := Approval{
				ID:             uuid.NewString(),
				PendingEventID: event.ID,
				UserID:         userID,
			}
			if err := tx.CreateApproval(ctx, &approval); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &event, nil
}

func (s *Service) Get(ctx context.Context, userID, eventID string) (*PendingEvent, error) {
	event, err := s.repo.GetPendingEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, event.GroupID, userID); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Service) GetByGroup(ctx context.Context, userID, groupID string) (*PendingEvent, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetPendingEventByGroup(ctx, groupID)
}

// Approve records the member's vote. Re-approval is a no-op success.
func (s *Service) Approve(ctx context.Context, userID, eventID string) (*Approval, error) {
	event, err := s.repo.GetPendingEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, event.GroupID, userID); err != nil {
		return nil, err
	}

	approval, err := s.repo.GetApproval(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if approval.Approved {
		return approval, nil
	}

	now := time.Now().UTC()
	approval.Approved = true
	approval.ApprovedAt = &now
	if err := s.repo.UpdateApproval(ctx, approval); err != nil {
		return nil, err
	}
	return approval, nil
}

// Status reports the live quorum. Total comes from the membership store
// on every call, never from a counter cached at creation.
func (s *Service) Status(ctx context.Context, userID, eventID string) (*ApprovalStatus, error) {
	event, err := s.repo.GetPendingEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, event.GroupID, userID); err != nil {
		return nil, err
	}
	return s.status(ctx, s.repo, event)
}

func (s *Service) status(ctx context.Context, repo Repository, event *PendingEvent) (*ApprovalStatus, error) {
	total, err := s.members.CountMembers(ctx, event.GroupID)
	if err != nil {
		return nil, err
	}
	approved, err := repo.CountApproved(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	pending := total - approved
	if pending < 0 {
		pending = 0
	}
	return &ApprovalStatus{Total: total, Approved: approved, Pending: pending}, nil
}

// Promote turns a fully approved pending event into the group's
// confirmed event. Creation and deletion happen in one transaction; the
// quorum is re-checked inside it so a membership change between approve
// and promote cannot slip through.
func (s *Service) Promote(ctx context.Context, actorID, eventID string) (*ConfirmedEvent, error) {
	event, err := s.repo.GetPendingEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireKeeper(ctx, event.GroupID, actorID); err != nil {
		return nil, err
	}

	confirmed := ConfirmedEvent{
		ID:         uuid.NewString(),
		GroupID:    event.GroupID,
		ScenarioID: event.ScenarioID,
		StartTime:  event.StartTime,
		EndTime:    event.EndTime,
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		current, err := tx.GetPendingEvent(ctx, eventID)
		if err != nil {
			return err
		}

		status, err := s.status(ctx, tx, current)
		if err != nil {
			return err
		}
		if status.Approved != status.Total {
			return ErrQuorumNotMet
		}

		if _, err := tx.GetConfirmedEventByGroup(ctx, current.GroupID); err == nil {
			return ErrEventConfirmed
		} else if !errors.Is(err, ErrConfirmedEventNotFound) {
			return err
		}

		if err := tx.CreateConfirmedEvent(ctx, &confirmed); err != nil {
			return err
		}
		if err := tx.DeleteApprovalsByEvent(ctx, eventID); err != nil {
			return err
		}
		return tx.DeletePendingEvent(ctx, eventID)
	})
	if err != nil {
		return nil, err
	}

	return &confirmed, nil
}

// Cancel withdraws the candidate and its approvals, returning the group
// to the no-candidate state.
func (s *Service) Cancel(ctx context.Context, actorID, eventID string) error {
	event, err := s.repo.GetPendingEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if err := s.requireKeeper(ctx, event.GroupID, actorID); err != nil {
		return err
	}

	return s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.DeleteApprovalsByEvent(ctx, eventID); err != nil {
			return err
		}
		return tx.DeletePendingEvent(ctx, eventID)
	})
}

// Publish writes the confirmed event to the actor's external calendar.
// Local confirmation is authoritative: a provider failure leaves the
// row standing with no external id, and the warning goes to the caller.
func (s *Service) Publish(ctx context.Context, actorID, confirmedEventID string) (*PublishResult, error) {
	confirmed, err := s.repo.GetConfirmedEvent(ctx, confirmedEventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireKeeper(ctx, confirmed.GroupID, actorID); err != nil {
		return nil, err
	}

	title, err := s.eventTitle(ctx, confirmed)
	if err != nil {
		return nil, err
	}

	result := s.calendar.CreateEvent(ctx, actorID, calendardomain.EventDraft{
		Title:     title,
		StartTime: confirmed.StartTime,
		EndTime:   confirmed.EndTime,
	})
	if !result.Success {
		s.log.BusinessError("pending.publish: external write failed", errors.New(result.Error),
			"confirmed_event_id", confirmed.ID, "group_id", confirmed.GroupID)
		return &PublishResult{Published: false, Warning: result.Error}, nil
	}

	if err := s.repo.SetConfirmedExternalEventID(ctx, confirmed.ID, result.ExternalEventID); err != nil {
		return nil, err
	}
	return &PublishResult{Published: true, ExternalEventID: result.ExternalEventID}, nil
}

// PromoteAndPublish promotes, then publishes best-effort.
func (s *Service) PromoteAndPublish(ctx context.Context, actorID, eventID string) (*ConfirmedEvent, *PublishResult, error) {
	confirmed, err := s.Promote(ctx, actorID, eventID)
	if err != nil {
		return nil, nil, err
	}

	publish, err := s.Publish(ctx, actorID, confirmed.ID)
	if err != nil {
		// The promotion already committed; report the publish failure
		// as a warning rather than failing the whole call.
		s.log.InternalError("pending.promote: publish failed after promotion", err, "confirmed_event_id", confirmed.ID)
		publish = &PublishResult{Published: false, Warning: err.Error()}
	}
	return confirmed, publish, nil
}

func (s *Service) GetConfirmed(ctx context.Context, userID, confirmedEventID string) (*ConfirmedEvent, error) {
	confirmed, err := s.repo.GetConfirmedEvent(ctx, confirmedEventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireMember(ctx, confirmed.GroupID, userID); err != nil {
		return nil, err
	}
	return confirmed, nil
}

func (s *Service) GetConfirmedByGroup(ctx context.Context, userID, groupID string) (*ConfirmedEvent, error) {
	if err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.GetConfirmedEventByGroup(ctx, groupID)
}

// DeleteConfirmed removes the confirmed event, deleting the external
// copy best-effort when one was published.
func (s *Service) DeleteConfirmed(ctx context.Context, actorID, confirmedEventID string) error {
	confirmed, err := s.repo.GetConfirmedEvent(ctx, confirmedEventID)
	if err != nil {
		return err
	}
	if err := s.requireKeeper(ctx, confirmed.GroupID, actorID); err != nil {
		return err
	}

	if confirmed.ExternalEventID != nil {
		result := s.calendar.DeleteEvent(ctx, actorID, *confirmed.ExternalEventID)
		if !result.Success {
			s.log.BusinessError("pending.delete_confirmed: external delete failed", errors.New(result.Error),
				"confirmed_event_id", confirmed.ID)
		}
	}

	return s.repo.DeleteConfirmedEvent(ctx, confirmedEventID)
}

// SeedApprovalForNewMember gives a late joiner an unapproved,
// auto-created vote, re-opening negotiation against the enlarged
// membership.
func (s *Service) SeedApprovalForNewMember(ctx context.Context, groupID, userID string) error {
	event, err := s.repo.GetPendingEventByGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, ErrPendingEventNotFound) {
			return nil
		}
		return err
	}

	if _, err := s.repo.GetApproval(ctx, event.ID, userID); err == nil {
		return nil
	} else if !errors.Is(err, ErrApprovalNotFound) {
		return err
	}

	return s.repo.CreateApproval(ctx, &Approval{
		ID:             uuid.NewString(),
		PendingEventID: event.ID,
		UserID:         userID,
		AutoCreated:    true,
	})
}

// RemoveApprovalForMember drops a departed member's vote so the
// negotiation does not stall on a count they no longer belong to.
func (s *Service) RemoveApprovalForMember(ctx context.Context, groupID, userID string) error {
	event, err := s.repo.GetPendingEventByGroup(ctx, groupID)
	if err != nil {
		if errors.Is(err, ErrPendingEventNotFound) {
			return nil
		}
		return err
	}
	return s.repo.DeleteApproval(ctx, event.ID, userID)
}

// EventTitle renders the external calendar title for a confirmed event.
func (s *Service) eventTitle(ctx context.Context, confirmed *ConfirmedEvent) (string, error) {
	grp, err := s.members.GroupInfo(ctx, confirmed.GroupID)
	if err != nil {
		return "", err
	}
	scenario, err := s.members.GetScenario(ctx, confirmed.ScenarioID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("【%s】%s", grp.Name, scenario.Name), nil
}

func (s *Service) requireMember(ctx context.Context, groupID, userID string) error {
	role, err := s.members.RoleOf(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return ErrNotGroupMember
	}
	return nil
}

func (s *Service) requireKeeper(ctx context.Context, groupID, userID string) error {
	role, err := s.members.RoleOf(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if role != groupdomain.RoleKeeper {
		return ErrNotKeeper
	}
	return nil
}
