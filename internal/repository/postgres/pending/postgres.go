package pending

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pendingdomain "trpg-scheduler/internal/domain/pending"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(pendingdomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) CreatePendingEvent(ctx context.Context, event *pendingdomain.PendingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *PostgresRepository) GetPendingEvent(ctx context.Context, eventID string) (*pendingdomain.PendingEvent, error) {
	var event pendingdomain.PendingEvent
	if err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pendingdomain.ErrPendingEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *PostgresRepository) GetPendingEventByGroup(ctx context.Context, groupID string) (*pendingdomain.PendingEvent, error) {
	var event pendingdomain.PendingEvent
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pendingdomain.ErrPendingEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *PostgresRepository) DeletePendingEvent(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).Delete(&pendingdomain.PendingEvent{}, "id = ?", eventID).Error
}

func (r *PostgresRepository) CreateApproval(ctx context.Context, approval *pendingdomain.Approval) error {
	return r.db.WithContext(ctx).Create(approval).Error
}

func (r *PostgresRepository) GetApproval(ctx context.Context, pendingEventID, userID string) (*pendingdomain.Approval, error) {
	var approval pendingdomain.Approval
	if err := r.db.WithContext(ctx).
		Where("pending_event_id = ? AND user_id = ?", pendingEventID, userID).
		First(&approval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pendingdomain.ErrApprovalNotFound
		}
		return nil, err
	}
	return &approval, nil
}

func (r *PostgresRepository) UpdateApproval(ctx context.Context, approval *pendingdomain.Approval) error {
	return r.db.WithContext(ctx).Save(approval).Error
}

func (r *PostgresRepository) ListApprovals(ctx context.Context, pendingEventID string) ([]pendingdomain.Approval, error) {
	var approvals []pendingdomain.Approval
	if err := r.db.WithContext(ctx).
		Where("pending_event_id = ?", pendingEventID).
		Order("created_at asc").
		Find(&approvals).Error; err != nil {
		return nil, err
	}
	return approvals, nil
}

func (r *PostgresRepository) CountApproved(ctx context.Context, pendingEventID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&pendingdomain.Approval{}).
		Where("pending_event_id = ? AND approved = true", pendingEventID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresRepository) DeleteApproval(ctx context.Context, pendingEventID, userID string) error {
	return r.db.WithContext(ctx).
		Delete(&pendingdomain.Approval{}, "pending_event_id = ? AND user_id = ?", pendingEventID, userID).Error
}

func (r *PostgresRepository) DeleteApprovalsByEvent(ctx context.Context, pendingEventID string) error {
	return r.db.WithContext(ctx).
		Delete(&pendingdomain.Approval{}, "pending_event_id = ?", pendingEventID).Error
}

func (r *PostgresRepository) CreateConfirmedEvent(ctx context.Context, event *pendingdomain.ConfirmedEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *PostgresRepository) GetConfirmedEvent(ctx context.Context, eventID string) (*pendingdomain.ConfirmedEvent, error) {
	var event pendingdomain.ConfirmedEvent
	if err := r.db.WithContext(ctx).Where("id = ?", eventID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pendingdomain.ErrConfirmedEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *PostgresRepository) GetConfirmedEventByGroup(ctx context.Context, groupID string) (*pendingdomain.ConfirmedEvent, error) {
	var event pendingdomain.ConfirmedEvent
	if err := r.db.WithContext(ctx).Where("group_id = ?", groupID).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pendingdomain.ErrConfirmedEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *PostgresRepository) SetConfirmedExternalEventID(ctx context.Context, eventID, externalEventID string) error {
	return r.db.WithContext(ctx).
		Model(&pendingdomain.ConfirmedEvent{}).
		Where("id = ?", eventID).
		Update("external_event_id", externalEventID).Error
}

func (r *PostgresRepository) DeleteConfirmedEvent(ctx context.Context, eventID string) error {
	return r.db.WithContext(ctx).Delete(&pendingdomain.ConfirmedEvent{}, "id = ?", eventID).Error
}
