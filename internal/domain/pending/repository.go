package pending

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreatePendingEvent(ctx context.Context, event *PendingEvent) error
	GetPendingEvent(ctx context.Context, eventID string) (*PendingEvent, error)
	GetPendingEventByGroup(ctx context.Context, groupID string) (*PendingEvent, error)
	DeletePendingEvent(ctx context.Context, eventID string) error

	CreateApproval(ctx context.Context, approval *Approval) error
	GetApproval(ctx context.Context, pendingEventID, userID string) (*Approval, error)
	UpdateApproval(ctx context.Context, approval *Approval) error
	ListApprovals(ctx context.Context, pendingEventID string) ([]Approval, error)
	CountApproved(ctx context.Context, pendingEventID string) (int64, error)
	DeleteApproval(ctx context.Context, pendingEventID, userID string) error
	DeleteApprovalsByEvent(ctx context.Context, pendingEventID string) error

	CreateConfirmedEvent(ctx context.Context, event *ConfirmedEvent) error
	GetConfirmedEvent(ctx context.Context, eventID string) (*ConfirmedEvent, error)
	GetConfirmedEventByGroup(ctx context.Context, groupID string) (*ConfirmedEvent, error)
	SetConfirmedExternalEventID(ctx context.Context, eventID, externalEventID string) error
	DeleteConfirmedEvent(ctx context.Context, eventID string) error
}
