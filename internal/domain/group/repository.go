package group

import "context"

type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	CreateGroup(ctx context.Context, group *Group) error
	GetGroup(ctx context.Context, groupID string) (*Group, error)
	ListGroupsByUser(ctx context.Context, userID string) ([]Group, error)
	UpdateGroup(ctx context.Context, group *Group) error
	DeleteGroup(ctx context.Context, groupID string) error

	AddMember(ctx context.Context, member *Membership) error
	GetMember(ctx context.Context, groupID, userID string) (*Membership, error)
	ListMembers(ctx context.Context, groupID string) ([]Membership, error)
	DeleteMember(ctx context.Context, groupID, userID string) error
	CountMembers(ctx context.Context, groupID string) (int64, error)

	CreateScenario(ctx context.Context, scenario *Scenario) error
	GetScenario(ctx context.Context, scenarioID string) (*Scenario, error)
	ListScenarios(ctx context.Context, groupID string) ([]Scenario, error)
	DeleteScenario(ctx context.Context, scenarioID string) error
	ScenarioHasPendingEvent(ctx context.Context, scenarioID string) (bool, error)
}
