package calendar

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	calendardomain "trpg-scheduler/internal/domain/calendar"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Transaction(ctx context.Context, fn func(calendardomain.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&PostgresRepository{db: tx})
	})
}

func (r *PostgresRepository) GetEvent(ctx context.Context, userID, eventID string) (*calendardomain.Event, error) {
	var event calendardomain.Event
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, eventID).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, calendardomain.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *PostgresRepository) GetEventByExternalID(ctx context.Context, userID, externalEventID string) (*calendardomain.Event, error) {
	var event calendardomain.Event
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND external_event_id = ?", userID, externalEventID).
		First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, calendardomain.ErrEventNotFound
		}
		return nil, err
	}
	return &event, nil
}

func (r *PostgresRepository) CreateEvent(ctx context.Context, event *calendardomain.Event) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *PostgresRepository) UpdateEvent(ctx context.Context, event *calendardomain.Event) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *PostgresRepository) ListEvents(ctx context.Context, userID string, from, to time.Time) ([]calendardomain.Event, error) {
	var events []calendardomain.Event
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL AND start_time < ? AND end_time > ?", userID, to, from).
		Order("start_time asc").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PostgresRepository) ListIncludedEvents(ctx context.Context, userID string, from, to time.Time) ([]calendardomain.Event, error) {
	var events []calendardomain.Event
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL AND included_in_availability = true AND start_time < ? AND end_time > ?", userID, to, from).
		Order("start_time asc").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *PostgresRepository) ListActiveExternalIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&calendardomain.Event{}).
		Where("user_id = ? AND deleted_at IS NULL", userID).
		Pluck("external_event_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *PostgresRepository) HardDeleteByExternalIDs(ctx context.Context, userID string, externalEventIDs []string) error {
	if len(externalEventIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND deleted_at IS NULL AND external_event_id IN ?", userID, externalEventIDs).
		Delete(&calendardomain.Event{}).Error
}

func (r *PostgresRepository) SaveCredential(ctx context.Context, credential *calendardomain.Credential) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(credential).Error
}

func (r *PostgresRepository) GetCredential(ctx context.Context, userID string) (*calendardomain.Credential, error) {
	var credential calendardomain.Credential
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&credential).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, calendardomain.ErrNotConnected
		}
		return nil, err
	}
	return &credential, nil
}
