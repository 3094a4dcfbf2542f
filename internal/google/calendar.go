package google

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	calendardomain "trpg-scheduler/internal/domain/calendar"
	"trpg-scheduler/pkg/logger"
)

const (
	eventTimeZone = "Asia/Tokyo"
	dateLayout    = "2006-01-02"

	createdDescription = "Created by TRPG Calendar"
	updatedDescription = "Updated by TRPG Calendar"
)

// CredentialStore resolves a user's stored OAuth token.
type CredentialStore interface {
	GetCredential(ctx context.Context, userID string) (*calendardomain.Credential, error)
}

type Config struct {
	ClientID     string
	ClientSecret string
}

// Factory builds per-user Google Calendar providers from stored OAuth
// credentials.
type Factory struct {
	oauth       *oauth2.Config
	credentials CredentialStore
	log         logger.Logger
}

func NewFactory(cfg Config, credentials CredentialStore, log logger.Logger) *Factory {
	return &Factory{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       []string{calendar.CalendarScope},
		},
		credentials: credentials,
		log:         log,
	}
}

func (f *Factory) ForUser(ctx context.Context, userID string) (calendardomain.Provider, error) {
	credential, err := f.credentials.GetCredential(ctx, userID)
	if err != nil {
		return nil, err
	}

	token := &oauth2.Token{
		AccessToken:  credential.AccessToken,
		RefreshToken: credential.RefreshToken,
		Expiry:       credential.Expiry,
	}
	service, err := calendar.NewService(ctx, option.WithTokenSource(f.oauth.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}

	return &Client{service: service, log: f.log}, nil
}

// Client wraps the Google Calendar API behind the domain Provider
// interface. Errors pass through as plain errors; the sync engine
// converts them to result values.
type Client struct {
	service *calendar.Service
	log     logger.Logger
}

func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time) ([]calendardomain.ExternalEvent, error) {
	result, err := c.service.Events.List(calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		OrderBy("startTime").
		Fields("items(id, summary, start, end, transparency, description)").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	events := make([]calendardomain.ExternalEvent, 0, len(result.Items))
	for _, item := range result.Items {
		start, startIsDate, err := parseEventTime(item.Start)
		if err != nil {
			c.log.Warn("google: skipping event with unparsable start", "event_id", item.Id, "err", err)
			continue
		}
		end, _, err := parseEventTime(item.End)
		if err != nil {
			c.log.Warn("google: skipping event with unparsable end", "event_id", item.Id, "err", err)
			continue
		}

		events = append(events, calendardomain.ExternalEvent{
			ID:          item.Id,
			Title:       item.Summary,
			Description: item.Description,
			StartTime:   start,
			EndTime:     end,
			AllDay:      startIsDate,
			Transparent: item.Transparency == "transparent",
		})
	}
	return events, nil
}

func (c *Client) InsertEvent(ctx context.Context, calendarID string, draft calendardomain.EventDraft) (*calendardomain.ExternalEvent, error) {
	created, err := c.service.Events.Insert(calendarID, toGoogleEvent(draft, createdDescription)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	return externalFromGoogle(created, draft), nil
}

func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, draft calendardomain.EventDraft) (*calendardomain.ExternalEvent, error) {
	updated, err := c.service.Events.Update(calendarID, eventID, toGoogleEvent(draft, updatedDescription)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return externalFromGoogle(updated, draft), nil
}

func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.service.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func toGoogleEvent(draft calendardomain.EventDraft, defaultDescription string) *calendar.Event {
	description := draft.Description
	if description == "" {
		description = defaultDescription
	}
	return &calendar.Event{
		Summary:     draft.Title,
		Description: description,
		Start: &calendar.EventDateTime{
			DateTime: draft.StartTime.Format(time.RFC3339),
			TimeZone: eventTimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: draft.EndTime.Format(time.RFC3339),
			TimeZone: eventTimeZone,
		},
	}
}

func externalFromGoogle(event *calendar.Event, draft calendardomain.EventDraft) *calendardomain.ExternalEvent {
	external := calendardomain.ExternalEvent{
		ID:          event.Id,
		Title:       event.Summary,
		Description: event.Description,
		StartTime:   draft.StartTime,
		EndTime:     draft.EndTime,
	}
	if start, isDate, err := parseEventTime(event.Start); err == nil {
		external.StartTime = start
		external.AllDay = isDate
	}
	if end, _, err := parseEventTime(event.End); err == nil {
		external.EndTime = end
	}
	return &external
}

// parseEventTime prefers the timed value and falls back to the
// date-only value for all-day events.
func parseEventTime(value *calendar.EventDateTime) (time.Time, bool, error) {
	if value == nil {
		return time.Time{}, false, fmt.Errorf("missing event time")
	}
	if value.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, value.DateTime)
		return parsed, false, err
	}
	if value.Date != "" {
		parsed, err := time.Parse(dateLayout, value.Date)
		return parsed, true, err
	}
	return time.Time{}, false, fmt.Errorf("missing event time")
}
