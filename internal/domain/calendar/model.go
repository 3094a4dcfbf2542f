package calendar

import "time"

const (
	// DefaultCalendarID is the provider-side calendar every sync and
	// outbound write targets.
	DefaultCalendarID = "primary"

	defaultTitle = "No Title"

	syncWindowPast   = 30 * 24 * time.Hour
	syncWindowFuture = 365 * 24 * time.Hour
)

// Event mirrors one external-provider event in the local store.
// Rows are soft-deleted by user action (deleted_at) and hard-deleted
// only when sync observes the provider-side event is gone.
type Event struct {
	ID                     string    `gorm:"type:uuid;primaryKey"`
	UserID                 string    `gorm:"not null;uniqueIndex:idx_calendar_events_user_external"`
	ProviderCalendarID     string    `gorm:"not null"`
	ExternalEventID        string    `gorm:"not null;uniqueIndex:idx_calendar_events_user_external"`
	Title                  string    `gorm:"not null"`
	StartTime              time.Time `gorm:"not null;index:idx_calendar_events_user_start,priority:2"`
	EndTime                time.Time `gorm:"not null"`
	Description            string    `gorm:"type:text"`
	IncludedInAvailability bool      `gorm:"not null;default:true"`
	SyncedAt               *time.Time
	DeletedAt              *time.Time
	CreatedAt              time.Time `gorm:"autoCreateTime"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime"`
}

func (e *Event) Deleted() bool {
	return e.DeletedAt != nil
}

// Credential holds a user's OAuth token for the external provider.
type Credential struct {
	UserID       string    `gorm:"primaryKey"`
	AccessToken  string    `gorm:"not null"`
	RefreshToken string
	Expiry       time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Credential) TableName() string {
	return "calendar_credentials"
}

// ExternalEvent is the provider-neutral shape of an event fetched from
// the external calendar. Start and end carry the timed value when the
// provider has one, otherwise the date-only value at midnight.
type ExternalEvent struct {
	ID          string
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	AllDay      bool
	Transparent bool
}

// EventDraft is an outbound event payload for the external provider.
type EventDraft struct {
	Title       string
	Description string
	StartTime   time.Time
	EndTime     time.Time
}

// SyncResult is the value returned by inbound reconciliation. Provider
// failures surface here, never as a panic or a raw error to transport.
type SyncResult struct {
	Success     bool   `json:"success"`
	SyncedCount int    `json:"synced_count"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// WriteResult is the uniform outcome of outbound provider writes.
type WriteResult struct {
	Success         bool   `json:"success"`
	ExternalEventID string `json:"external_event_id,omitempty"`
	Error           string `json:"error,omitempty"`
}
