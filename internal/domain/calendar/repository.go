package calendar

import (
	"context"
	"time"
)

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	GetEvent(ctx context.Context, userID, eventID string) (*Event, error)
	GetEventByExternalID(ctx context.Context, userID, externalEventID string) (*Event, error)
	CreateEvent(ctx context.Context, event *Event) error
	UpdateEvent(ctx context.Context, event *Event) error
	ListEvents(ctx context.Context, userID string, from, to time.Time) ([]Event, error)
	ListIncludedEvents(ctx context.Context, userID string, from, to time.Time) ([]Event, error)
	ListActiveExternalIDs(ctx context.Context, userID string) ([]string, error)
	HardDeleteByExternalIDs(ctx context.Context, userID string, externalEventIDs []string) error

	SaveCredential(ctx context.Context, credential *Credential) error
	GetCredential(ctx context.Context, userID string) (*Credential, error)
}
