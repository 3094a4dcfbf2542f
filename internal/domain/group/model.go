package group

import "time"

const (
	RolePlayer = "player"
	RoleKeeper = "keeper"
)

type Group struct {
	ID                 string    `gorm:"type:uuid;primaryKey"`
	Name               string    `gorm:"not null"`
	Intro              string    `gorm:"type:text"`
	OwnerID            string    `gorm:"not null;index"`
	PlannedPeriodStart *time.Time
	PlannedPeriodEnd   *time.Time
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

type Membership struct {
	GroupID  string    `gorm:"type:uuid;primaryKey"`
	UserID   string    `gorm:"primaryKey"`
	Role     string    `gorm:"type:varchar(16);not null"`
	JoinedAt time.Time `gorm:"autoCreateTime"`

	Group Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:CASCADE"`
}

type Scenario struct {
	ID        string    `gorm:"type:uuid;primaryKey"`
	GroupID   string    `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Group Group `gorm:"foreignKey:GroupID;references:ID;constraint:OnDelete:CASCADE"`
}

// Permissions is the single capability view of a user's membership in a
// group. Handlers and sibling services consult it instead of comparing
// role strings at every call site.
type Permissions struct {
	CanApprove       bool
	CanPromote       bool
	CanManageMembers bool
}

type CreateGroupInput struct {
	Name               string
	Intro              string
	PlannedPeriodStart *time.Time
	PlannedPeriodEnd   *time.Time
}

type UpdateGroupInput struct {
	Name               *string
	Intro              *string
	PlannedPeriodStart *time.Time
	PlannedPeriodEnd   *time.Time
}
