// Package lifecycle holds the shift state machine and the approval rules for
// shifts and reports. Nothing here touches the store; callers persist the
// plans this package returns.
package lifecycle

import "errors"

// ── Validation errors (no state change, surfaced to the caller) ──

var (
	ErrIncompleteRoster = errors.New("required roster slots are not filled")
	ErrMissingUnitTag   = errors.New("vehicle prefix is required")
	ErrConcurrentShift  = errors.New("an active shift already exists for this initiator")
	ErrDuplicateMember  = errors.New("member already assigned to another slot")
	ErrBlockedAction    = errors.New("action not allowed in the current state")
	ErrUnknownSlot      = errors.New("unknown roster slot")
	ErrInvalidMember    = errors.New("member id is required")
	ErrUnknownAction    = errors.New("unknown approval action")
	ErrClockAnomaly     = errors.New("shift end precedes its start")
)
