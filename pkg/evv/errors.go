package evv

import "errors"

// Precondition and persistence failures of the visit lifecycle
var (
	ErrWorkerRequired    = errors.New("worker id is required")
	ErrClientNotFound    = errors.New("client not found")
	ErrClientInactive    = errors.New("client is not active")
	ErrActiveShiftExists = errors.New("worker already has an active shift")
	ErrNoActiveShift     = errors.New("worker has no active shift")
	ErrShiftNotFound     = errors.New("shift not found")
	ErrLocationRequired  = errors.New("a valid GPS location is required")
	ErrClockInFailed     = errors.New("clock-in failed")
	ErrClockOutFailed    = errors.New("clock-out failed")
)

// ErrRecordNotFound is returned by a Store when a lookup matches nothing
var ErrRecordNotFound = errors.New("record not found")
