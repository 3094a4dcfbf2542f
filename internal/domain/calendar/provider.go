package calendar

import (
	"context"
	"time"
)

// Provider is the external calendar API surface the sync engine
// consumes. Implementations must return plain errors; the service
// converts them to result values at the boundary.
type Provider interface {
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]ExternalEvent, error)
	InsertEvent(ctx context.Context, calendarID string, draft EventDraft) (*ExternalEvent, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, draft EventDraft) (*ExternalEvent, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}

// ProviderFactory builds a Provider authenticated as the given user.
// Returns ErrNotConnected when the user has no stored credential.
type ProviderFactory interface {
	ForUser(ctx context.Context, userID string) (Provider, error)
}
