package availability

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, availability *Availability) error
	Get(ctx context.Context, userID, availabilityID string) (*Availability, error)
	List(ctx context.Context, userID string, from, to time.Time) ([]Availability, error)
	Delete(ctx context.Context, userID, availabilityID string) error
}
