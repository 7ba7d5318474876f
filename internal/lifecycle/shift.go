package lifecycle

import (
	"fmt"
	"time"

	"github.com/lyipi/4bpchoquecoe/internal/model"
)

// Closure values persisted when a shift ends.
type Closure struct {
	EndTime         time.Time
	DurationSeconds int64
	FinalDuration   string
}

// Close computes the closure of a shift started at start and ended at now.
// A negative duration is reported, never clamped.
func Close(start, now time.Time) (Closure, error) {
	d := now.Sub(start)
	if d < 0 {
		return Closure{}, fmt.Errorf("%w: start=%s end=%s", ErrClockAnomaly,
			start.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	}
	secs := int64(d / time.Second)
	return Closure{
		EndTime:         now,
		DurationSeconds: secs,
		FinalDuration:   FormatDuration(secs),
	}, nil
}

// FormatDuration "Xh Ym" with whole hours and whole minutes.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}

// FormatElapsed "HH:MM:SS" clock shown while a shift is running.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

// ── Approval ──

// Action staff decision on a record.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionReopen  Action = "reopen"
)

// ParseAction validates an action name.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionApprove, ActionReject, ActionReopen:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// ShiftPatch the fields a shift transition writes in one update.
type ShiftPatch struct {
	Status         string
	ApprovalStatus string
	// Closure is set when the transition also ends the shift.
	Closure *Closure
}

// PlanShift decides the outcome of action on a shift in (status, approval).
//
//	approve  only from completed
//	reject   active → ended + rejected; completed → rejected
//	reopen   approved|rejected → pending, status untouched
func PlanShift(status, approval string, start time.Time, action Action, now time.Time) (ShiftPatch, error) {
	if status != model.ShiftStatusActive && status != model.ShiftStatusCompleted {
		return ShiftPatch{}, fmt.Errorf("%w: unknown shift status %q", ErrBlockedAction, status)
	}
	switch action {
	case ActionApprove:
		if status != model.ShiftStatusCompleted {
			return ShiftPatch{}, fmt.Errorf("%w: cannot approve a shift that is still %s", ErrBlockedAction, status)
		}
		return ShiftPatch{Status: status, ApprovalStatus: model.ApprovalApproved}, nil
	case ActionReject:
		if status == model.ShiftStatusActive {
			closure, err := Close(start, now)
			if err != nil {
				return ShiftPatch{}, err
			}
			return ShiftPatch{
				Status:         model.ShiftStatusCompleted,
				ApprovalStatus: model.ApprovalRejected,
				Closure:        &closure,
			}, nil
		}
		return ShiftPatch{Status: status, ApprovalStatus: model.ApprovalRejected}, nil
	case ActionReopen:
		if approval == model.ApprovalPending {
			return ShiftPatch{}, fmt.Errorf("%w: shift is already pending", ErrBlockedAction)
		}
		return ShiftPatch{Status: status, ApprovalStatus: model.ApprovalPending}, nil
	}
	return ShiftPatch{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
}

// PlanReport decides the next status of a report. Reports have no compound
// side effects; only reopening an already pending report is refused.
func PlanReport(status string, action Action) (string, error) {
	switch action {
	case ActionApprove:
		return model.ApprovalApproved, nil
	case ActionReject:
		return model.ApprovalRejected, nil
	case ActionReopen:
		if status == model.ApprovalPending {
			return "", fmt.Errorf("%w: report is already pending", ErrBlockedAction)
		}
		return model.ApprovalPending, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, action)
}
