package availability

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	availabilitydomain "trpg-scheduler/internal/domain/availability"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, availability *availabilitydomain.Availability) error {
	return r.db.WithContext(ctx).Create(availability).Error
}

func (r *PostgresRepository) Get(ctx context.Context, userID, availabilityID string) (*availabilitydomain.Availability, error) {
	var record availabilitydomain.Availability
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, availabilityID).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, availabilitydomain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string, from, to time.Time) ([]availabilitydomain.Availability, error) {
	var records []availabilitydomain.Availability
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND start_time < ? AND end_time > ?", userID, to, from).
		Order("start_time asc").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, availabilityID string) error {
	return r.db.WithContext(ctx).
		Delete(&availabilitydomain.Availability{}, "user_id = ? AND id = ?", userID, availabilityID).Error
}
