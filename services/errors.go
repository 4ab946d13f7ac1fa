package services

import "errors"

var (
	// ErrNotFound: a referenced customer or promotion does not exist.
	ErrNotFound = errors.New("referenced record not found")

	// ErrDailyCapReached: the daily contact cap is exhausted; the run
	// ends gracefully.
	ErrDailyCapReached = errors.New("daily contact cap reached")

	// ErrSlotConflict: lost a slot race; re-query availability and
	// retry once.
	ErrSlotConflict = errors.New("slot no longer available")

	// ErrBackendUnavailable: the external gateway or appointment
	// backend call failed. Retried on the next scheduled cycle only.
	ErrBackendUnavailable = errors.New("external service unavailable")

	// ErrBadTargeting: a promotion carries targeting data that cannot
	// be interpreted; the promotion is skipped.
	ErrBadTargeting = errors.New("malformed promotion targeting")
)
