package group

import "errors"

var (
	ErrGroupNotFound        = errors.New("group not found")
	ErrScenarioNotFound     = errors.New("scenario not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrNotAMember           = errors.New("not a group member")
	ErrNotKeeper            = errors.New("keeper role required")
	ErrDuplicateMember      = errors.New("user is already a member")
	ErrKeeperExists         = errors.New("group already has a keeper")
	ErrCannotRemoveKeeper   = errors.New("keeper cannot be removed")
	ErrScenarioInUse        = errors.New("scenario referenced by a pending event")
	ErrInvalidPlannedPeriod = errors.New("planned period end before start")
)
