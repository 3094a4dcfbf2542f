package availability

import "errors"

var (
	ErrNotFound         = errors.New("availability not found")
	ErrInvalidTimeRange = errors.New("end time must be after start time")
	ErrInvalidSource    = errors.New("unknown availability source")
	ErrInvalidWindow    = errors.New("query window end before start")
)
