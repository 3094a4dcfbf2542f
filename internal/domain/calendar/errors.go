package calendar

import "errors"

var (
	ErrEventNotFound = errors.New("calendar event not found")
	ErrNotConnected  = errors.New("calendar provider not connected")
)
