package availability

import "time"

const (
	SourceManual           = "manual"
	SourceExternalCalendar = "external_calendar"
)

type Availability struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	UserID    string    `gorm:"not null;index"`
	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null"`
	Source    string    `gorm:"type:varchar(32);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Interval is a half-open [Start, End) time range.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i Interval) Empty() bool {
	return !i.End.After(i.Start)
}
