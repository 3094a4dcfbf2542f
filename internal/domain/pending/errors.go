package pending

import "errors"

var (
	ErrAlreadyPending         = errors.New("group already has a pending event")
	ErrPendingEventNotFound   = errors.New("pending event not found")
	ErrApprovalNotFound       = errors.New("approval not found")
	ErrConfirmedEventNotFound = errors.New("confirmed event not found")
	ErrNotGroupMember         = errors.New("not a group member")
	ErrNotKeeper              = errors.New("keeper role required")
	ErrQuorumNotMet           = errors.New("not all members have approved")
	ErrEventConfirmed         = errors.New("group already has a confirmed event")
	ErrInvalidTimeRange       = errors.New("end time must be after start time")
)
