package controlplane

import "errors"

// Sentinel errors for control plane operations.
var (
	ErrForbidden       = errors.New("admin only")
	ErrNotOwner        = errors.New("task belongs to someone else")
	ErrInvalidTimeslot = errors.New("unknown timeslot")
	ErrInvalidView     = errors.New("unknown view")
)
