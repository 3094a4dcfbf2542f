package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trpg-scheduler/pkg/logger"
)

const providerTimeout = 30 * time.Second

type Service struct {
	repo      Repository
	providers ProviderFactory
	log       logger.Logger

	// resurrectOnResync controls whether a provider-side reappearance
	// clears a user's soft-delete. Off by default so a sync pass does
	// not silently undo an exclusion choice.
	resurrectOnResync bool
}

func NewService(repo Repository, providers ProviderFactory, resurrectOnResync bool, log logger.Logger) *Service {
	return &Service{
		repo:              repo,
		providers:         providers,
		resurrectOnResync: resurrectOnResync,
		log:               log,
	}
}

// Sync reconciles the user's external calendar into local event rows,
// one-way. The window spans 30 days back to one year ahead. Provider
// failures return a failed result without touching local state.
func (s *Service) Sync(ctx context.Context, userID string) SyncResult {
	provider, err := s.providers.ForUser(ctx, userID)
	if err != nil {
		s.log.BusinessError("calendar.sync: provider unavailable", err, "user_id", userID)
		return SyncResult{Success: false, Error: "calendar provider not connected"}
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	now := time.Now().UTC()
	fetched, err := provider.ListEvents(ctx, DefaultCalendarID, now.Add(-syncWindowPast), now.Add(syncWindowFuture))
	if err != nil {
		s.log.BusinessError("calendar.sync: provider list failed", err, "user_id", userID)
		return SyncResult{Success: false, Error: fmt.Sprintf("calendar sync failed: %s", err)}
	}

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		fetchedIDs := make(map[string]struct{}, len(fetched))
		for _, external := range fetched {
			fetchedIDs[external.ID] = struct{}{}
			if err := s.upsert(ctx, tx, userID, external, now); err != nil {
				return err
			}
		}

		// Local active rows absent at the provider were deleted there.
		// Soft-deleted rows are left alone.
		activeIDs, err := tx.ListActiveExternalIDs(ctx, userID)
		if err != nil {
			return err
		}
		var removed []string
		for _, id := range activeIDs {
			if _, ok := fetchedIDs[id]; !ok {
				removed = append(removed, id)
			}
		}
		if len(removed) > 0 {
			return tx.HardDeleteByExternalIDs(ctx, userID, removed)
		}
		return nil
	})
	if err != nil {
		s.log.InternalError("calendar.sync: reconcile failed", err, "user_id", userID)
		return SyncResult{Success: false, Error: fmt.Sprintf("calendar sync failed: %s", err)}
	}

	return SyncResult{
		Success:     true,
		SyncedCount: len(fetched),
		Message:     fmt.Sprintf("synced %d events", len(fetched)),
	}
}

func (s *Service) upsert(ctx context.Context, tx Repository, userID string, external ExternalEvent, now time.Time) error {
	title := external.Title
	if title == "" {
		title = defaultTitle
	}
	syncedAt := now

	existing, err := tx.GetEventByExternalID(ctx, userID, external.ID)
	if err == nil {
		existing.Title = title
		existing.StartTime = external.StartTime
		existing.EndTime = external.EndTime
		existing.Description = external.Description
		existing.ProviderCalendarID = DefaultCalendarID
		existing.SyncedAt = &syncedAt
		if s.resurrectOnResync {
			existing.DeletedAt = nil
		}
		return tx.UpdateEvent(ctx, existing)
	}
	if !errors.Is(err, ErrEventNotFound) {
		return err
	}

	return tx.CreateEvent(ctx, &Event{
		ID:                     uuid.NewString(),
		UserID:                 userID,
		ProviderCalendarID:     DefaultCalendarID,
		ExternalEventID:        external.ID,
		Title:                  title,
		StartTime:              external.StartTime,
		EndTime:                external.EndTime,
		Description:            external.Description,
		IncludedInAvailability: true,
		SyncedAt:               &syncedAt,
	})
}

// CreateEvent writes a new event to the user's external calendar.
// Provider errors come back inside the result, never as a Go error.
func (s *Service) CreateEvent(ctx context.Context, userID string, draft EventDraft) WriteResult {
	provider, err := s.providers.ForUser(ctx, userID)
	if err != nil {
		return WriteResult{Success: false, Error: "calendar provider not connected"}
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	created, err := provider.InsertEvent(ctx, DefaultCalendarID, draft)
	if err != nil {
		s.log.BusinessError("calendar.create_event: provider insert failed", err, "user_id", userID)
		return WriteResult{Success: false, Error: err.Error()}
	}
	return WriteResult{Success: true, ExternalEventID: created.ID}
}

func (s *Service) UpdateEvent(ctx context.Context, userID, externalEventID string, draft EventDraft) WriteResult {
	provider, err := s.providers.ForUser(ctx, userID)
	if err != nil {
		return WriteResult{Success: false, Error: "calendar provider not connected"}
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	updated, err := provider.UpdateEvent(ctx, DefaultCalendarID, externalEventID, draft)
	if err != nil {
		s.log.BusinessError("calendar.update_event: provider update failed", err, "user_id", userID, "external_event_id", externalEventID)
		return WriteResult{Success: false, Error: err.Error()}
	}
	return WriteResult{Success: true, ExternalEventID: updated.ID}
}

func (s *Service) DeleteEvent(ctx context.Context, userID, externalEventID string) WriteResult {
	provider, err := s.providers.ForUser(ctx, userID)
	if err != nil {
		return WriteResult{Success: false, Error: "calendar provider not connected"}
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	if err := provider.DeleteEvent(ctx, DefaultCalendarID, externalEventID); err != nil {
		s.log.BusinessError("calendar.delete_event: provider delete failed", err, "user_id", userID, "external_event_id", externalEventID)
		return WriteResult{Success: false, Error: err.Error()}
	}
	return WriteResult{Success: true, ExternalEventID: externalEventID}
}

func (s *Service) ListLocalEvents(ctx context.Context, userID string, from, to time.Time) ([]Event, error) {
	return s.repo.ListEvents(ctx, userID, from, to)
}

// ListIncludedEvents returns the non-deleted events that count toward
// the user's availability.
func (s *Service) ListIncludedEvents(ctx context.Context, userID string, from, to time.Time) ([]Event, error) {
	return s.repo.ListIncludedEvents(ctx, userID, from, to)
}

// SoftDelete hides a local event without losing history. Sync never
// hard-deletes a soft-deleted row.
func (s *Service) SoftDelete(ctx context.Context, userID, eventID string) error {
	event, err := s.repo.GetEvent(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if event.Deleted() {
		return nil
	}
	now := time.Now().UTC()
	event.DeletedAt = &now
	return s.repo.UpdateEvent(ctx, event)
}

func (s *Service) Restore(ctx context.Context, userID, eventID string) error {
	event, err := s.repo.GetEvent(ctx, userID, eventID)
	if err != nil {
		return err
	}
	if !event.Deleted() {
		return nil
	}
	event.DeletedAt = nil
	return s.repo.UpdateEvent(ctx, event)
}

func (s *Service) SetIncludedInAvailability(ctx context.Context, userID, eventID string, included bool) error {
	event, err := s.repo.GetEvent(ctx, userID, eventID)
	if err != nil {
		return err
	}
	event.IncludedInAvailability = included
	return s.repo.UpdateEvent(ctx, event)
}

// SaveCredential stores the user's provider OAuth token after the
// external identity flow completes.
func (s *Service) SaveCredential(ctx context.Context, credential *Credential) error {
	return s.repo.SaveCredential(ctx, credential)
}
