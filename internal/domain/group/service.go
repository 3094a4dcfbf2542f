package group

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Negotiation receives membership changes that affect a group's live
// pending event. Wired to the pending-event engine at startup.
type Negotiation interface {
	SeedApprovalForNewMember(ctx context.Context, groupID, userID string) error
	RemoveApprovalForMember(ctx context.Context, groupID, userID string) error
}

type Service struct {
	repo        Repository
	negotiation Negotiation
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetNegotiation breaks the construction cycle between the group service
// and the pending-event engine.
func (s *Service) SetNegotiation(n Negotiation) {
	s.negotiation = n
}

func (s *Service) CreateGroup(ctx context.Context, ownerID string, input CreateGroupInput) (*Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	if input.PlannedPeriodStart != nil && input.PlannedPeriodEnd != nil &&
		input.PlannedPeriodEnd.Before(*input.PlannedPeriodStart) {
		return nil, ErrInvalidPlannedPeriod
	}

	grp := Group{
		ID:                 uuid.NewString(),
		Name:               name,
		Intro:              strings.TrimSpace(input.Intro),
		OwnerID:            ownerID,
		PlannedPeriodStart: input.PlannedPeriodStart,
		PlannedPeriodEnd:   input.PlannedPeriodEnd,
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.CreateGroup(ctx, &grp); err != nil {
			return err
		}
		return tx.AddMember(ctx, &Membership{
			GroupID: grp.ID,
			UserID:  ownerID,
			Role:    RoleKeeper,
		})
	})
	if err != nil {
		return nil, err
	}

	return &grp, nil
}

func (s *Service) GetGroup(ctx context.Context, userID, groupID string) (*Group, error) {
	member, err := s.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotAMember
	}
	return s.repo.GetGroup(ctx, groupID)
}

// GroupInfo reads a group without a membership gate. Intended for
// sibling services that already authorized the caller.
func (s *Service) GroupInfo(ctx context.Context, groupID string) (*Group, error) {
	return s.repo.GetGroup(ctx, groupID)
}

func (s *Service) ListGroupsByUser(ctx context.Context, userID string) ([]Group, error) {
	return s.repo.ListGroupsByUser(ctx, userID)
}

func (s *Service) UpdateGroup(ctx context.Context, actorID, groupID string, input UpdateGroupInput) (*Group, error) {
	if err := s.requireKeeper(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	grp, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New("name is required")
		}
		grp.Name = name
	}
	if input.Intro != nil {
		grp.Intro = strings.TrimSpace(*input.Intro)
	}
	if input.PlannedPeriodStart != nil {
		grp.PlannedPeriodStart = input.PlannedPeriodStart
	}
	if input.PlannedPeriodEnd != nil {
		grp.PlannedPeriodEnd = input.PlannedPeriodEnd
	}
	if grp.PlannedPeriodStart != nil && grp.PlannedPeriodEnd != nil &&
		grp.PlannedPeriodEnd.Before(*grp.PlannedPeriodStart) {
		return nil, ErrInvalidPlannedPeriod
	}

	if err := s.repo.UpdateGroup(ctx, grp); err != nil {
		return nil, err
	}
	return grp, nil
}

func (s *Service) DeleteGroup(ctx context.Context, actorID, groupID string) error {
	if err := s.requireKeeper(ctx, groupID, actorID); err != nil {
		return err
	}
	return s.repo.DeleteGroup(ctx, groupID)
}

func (s *Service) AddMember(ctx context.Context, actorID, groupID, userID, role string) (*Membership, error) {
	if role != RolePlayer && role != RoleKeeper {
		return nil, errors.New("unknown role")
	}
	if role == RoleKeeper {
		return nil, ErrKeeperExists
	}

	member := Membership{
		GroupID: groupID,
		UserID:  userID,
		Role:    role,
	}

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireKeeperIn(ctx, tx, groupID, actorID); err != nil {
			return err
		}
		if _, err := tx.GetMember(ctx, groupID, userID); err == nil {
			return ErrDuplicateMember
		} else if !errors.Is(err, ErrMemberNotFound) {
			return err
		}
		return tx.AddMember(ctx, &member)
	})
	if err != nil {
		return nil, err
	}

	// A member joining mid-negotiation enlarges the approval quorum.
	if s.negotiation != nil {
		if err := s.negotiation.SeedApprovalForNewMember(ctx, groupID, userID); err != nil {
			return nil, err
		}
	}

	return &member, nil
}

func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, userID string) error {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := requireKeeperIn(ctx, tx, groupID, actorID); err != nil {
			return err
		}
		target, err := tx.GetMember(ctx, groupID, userID)
		if err != nil {
			return err
		}
		if target.Role == RoleKeeper {
			return ErrCannotRemoveKeeper
		}
		return tx.DeleteMember(ctx, groupID, userID)
	})
	if err != nil {
		return err
	}

	// Departed members no longer count toward the quorum.
	if s.negotiation != nil {
		return s.negotiation.RemoveApprovalForMember(ctx, groupID, userID)
	}
	return nil
}

func (s *Service) Leave(ctx context.Context, userID, groupID string) error {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		member, err := tx.GetMember(ctx, groupID, userID)
		if err != nil {
			if errors.Is(err, ErrMemberNotFound) {
				return ErrNotAMember
			}
			return err
		}
		if member.Role == RoleKeeper {
			return ErrCannotRemoveKeeper
		}
		return tx.DeleteMember(ctx, groupID, userID)
	})
	if err != nil {
		return err
	}

	if s.negotiation != nil {
		return s.negotiation.RemoveApprovalForMember(ctx, groupID, userID)
	}
	return nil
}

func (s *Service) ListMembers(ctx context.Context, userID, groupID string) ([]Membership, error) {
	member, err := s.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotAMember
	}
	return s.repo.ListMembers(ctx, groupID)
}

func (s *Service) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.UserID)
	}
	return ids, nil
}

func (s *Service) CountMembers(ctx context.Context, groupID string) (int64, error) {
	return s.repo.CountMembers(ctx, groupID)
}

func (s *Service) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	_, err := s.repo.GetMember(ctx, groupID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RoleOf returns the member's role, or the empty string for non-members.
func (s *Service) RoleOf(ctx context.Context, groupID, userID string) (string, error) {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if errors.Is(err, ErrMemberNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func (s *Service) PermissionsFor(ctx context.Context, userID, groupID string) (Permissions, error) {
	role, err := s.RoleOf(ctx, groupID, userID)
	if err != nil {
		return Permissions{}, err
	}
	switch role {
	case RoleKeeper:
		return Permissions{CanApprove: true, CanPromote: true, CanManageMembers: true}, nil
	case RolePlayer:
		return Permissions{CanApprove: true}, nil
	default:
		return Permissions{}, nil
	}
}

func (s *Service) GetScenario(ctx context.Context, scenarioID string) (*Scenario, error) {
	return s.repo.GetScenario(ctx, scenarioID)
}

func (s *Service) CreateScenario(ctx context.Context, actorID, groupID, name string) (*Scenario, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("name is required")
	}
	if err := s.requireKeeper(ctx, groupID, actorID); err != nil {
		return nil, err
	}

	scenario := Scenario{
		ID:      uuid.NewString(),
		GroupID: groupID,
		Name:    name,
	}
	if err := s.repo.CreateScenario(ctx, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

func (s *Service) ListScenarios(ctx context.Context, userID, groupID string) ([]Scenario, error) {
	member, err := s.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotAMember
	}
	return s.repo.ListScenarios(ctx, groupID)
}

func (s *Service) DeleteScenario(ctx context.Context, actorID, scenarioID string) error {
	scenario, err := s.repo.GetScenario(ctx, scenarioID)
	if err != nil {
		return err
	}
	if err := s.requireKeeper(ctx, scenario.GroupID, actorID); err != nil {
		return err
	}
	inUse, err := s.repo.ScenarioHasPendingEvent(ctx, scenarioID)
	if err != nil {
		return err
	}
	if inUse {
		return ErrScenarioInUse
	}
	return s.repo.DeleteScenario(ctx, scenarioID)
}

func (s *Service) requireKeeper(ctx context.Context, groupID, userID string) error {
	return requireKeeperIn(ctx, s.repo, groupID, userID)
}

func requireKeeperIn(ctx context.Context, repo Repository, groupID, userID string) error {
	member, err := repo.GetMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return ErrNotKeeper
		}
		return err
	}
	if member.Role != RoleKeeper {
		return ErrNotKeeper
	}
	return nil
}
