package pending

import "time"

type PendingEvent struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	GroupID    string    `gorm:"type:uuid;not null;uniqueIndex"`
	ScenarioID string    `gorm:"type:uuid;not null;index"`
	StartTime  time.Time `gorm:"not null"`
	EndTime    time.Time `gorm:"not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

type Approval struct {
	ID             string     `gorm:"type:uuid;primaryKey"`
	PendingEventID string     `gorm:"type:uuid;not null;uniqueIndex:idx_approvals_event_user"`
	UserID         string     `gorm:"not null;uniqueIndex:idx_approvals_event_user"`
	Approved       bool       `gorm:"not null;default:false"`
	ApprovedAt     *time.Time
	AutoCreated    bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`

	PendingEvent PendingEvent `gorm:"foreignKey:PendingEventID;references:ID;constraint:OnDelete:CASCADE"`
}

type ConfirmedEvent struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	GroupID         string    `gorm:"type:uuid;not null;uniqueIndex"`
	ScenarioID      string    `gorm:"type:uuid;not null;index"`
	StartTime       time.Time `gorm:"not null"`
	EndTime         time.Time `gorm:"not null"`
	ExternalEventID *string
	Notes           *string   `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// ApprovalStatus is the live quorum view: Total is the current member
// count, recomputed on every call, never cached on the event.
type ApprovalStatus struct {
	Total    int64 `json:"total"`
	Approved int64 `json:"approved"`
	Pending  int64 `json:"pending"`
}

// PublishResult reports the outcome of writing a confirmed event to the
// external calendar. A failed publish leaves the confirmed event intact;
// Warning carries the provider message for the caller.
type PublishResult struct {
	Published       bool   `json:"published"`
	ExternalEventID string `json:"external_event_id,omitempty"`
	Warning         string `json:"warning,omitempty"`
}
