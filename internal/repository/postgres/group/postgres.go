package group

import (
	"context"
	"errors"

	"gorm.io/gorm"

	groupdomain "trpg-scheduler/internal/domain/group"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(groupdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreateGroup(ctx context.Context, group *groupdomain.Group) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *PostgresRepository) GetGroup(ctx context.Context, groupID string) (*groupdomain.Group, error) {
	var group groupdomain.Group
	if err := r.db.WithContext(ctx).Where("id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupdomain.ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *PostgresRepository) ListGroupsByUser(ctx context.Context, userID string) ([]groupdomain.Group, error) {
	var groups []groupdomain.Group
	if err := r.db.WithContext(ctx).
		Table("groups").
		Joins("join memberships on memberships.group_id = groups.id").
		Where("memberships.user_id = ?", userID).
		Order("groups.created_at asc").
		Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *PostgresRepository) UpdateGroup(ctx context.Context, group *groupdomain.Group) error {
	return r.db.WithContext(ctx).Save(group).Error
}

func (r *PostgresRepository) DeleteGroup(ctx context.Context, groupID string) error {
	return r.db.WithContext(ctx).Delete(&groupdomain.Group{}, "id = ?", groupID).Error
}

func (r *PostgresRepository) AddMember(ctx context.Context, member *groupdomain.Membership) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *PostgresRepository) GetMember(ctx context.Context, groupID, userID string) (*groupdomain.Membership, error) {
	var member groupdomain.Membership
	if err := r.db.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupdomain.ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *PostgresRepository) ListMembers(ctx context.Context, groupID string) ([]groupdomain.Membership, error) {
	var members []groupdomain.Membership
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("joined_at asc").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) DeleteMember(ctx context.Context, groupID, userID string) error {
	return r.db.WithContext(ctx).
		Delete(&groupdomain.Membership{}, "group_id = ? AND user_id = ?", groupID, userID).Error
}

func (r *PostgresRepository) CountMembers(ctx context.Context, groupID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&groupdomain.Membership{}).
		Where("group_id = ?", groupID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) CreateScenario(ctx context.Context, scenario *groupdomain.Scenario) error {
	return r.db.WithContext(ctx).Create(scenario).Error
}

func (r *PostgresRepository) GetScenario(ctx context.Context, scenarioID string) (*groupdomain.Scenario, error) {
	var scenario groupdomain.Scenario
	if err := r.db.WithContext(ctx).Where("id = ?", scenarioID).First(&scenario).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, groupdomain.ErrScenarioNotFound
		}
		return nil, err
	}
	return &scenario, nil
}

func (r *PostgresRepository) ListScenarios(ctx context.Context, groupID string) ([]groupdomain.Scenario, error) {
	var scenarios []groupdomain.Scenario
	if err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("created_at asc").
		Find(&scenarios).Error; err != nil {
		return nil, err
	}
	return scenarios, nil
}

func (r *PostgresRepository) DeleteScenario(ctx context.Context, scenarioID string) error {
	return r.db.WithContext(ctx).Delete(&groupdomain.Scenario{}, "id = ?", scenarioID).Error
}

func (r *PostgresRepository) ScenarioHasPendingEvent(ctx context.Context, scenarioID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Table("pending_events").
		Where("scenario_id = ?", scenarioID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
