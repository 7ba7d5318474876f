package dto

import "time"

// StartShiftRequest start a shift. Validation of the prefix and the roster is
// done by the lifecycle rules, not by binding tags, so the caller gets the
// domain error.
type StartShiftRequest struct {
	VehiclePrefix string                 `json:"vehicle_prefix" binding:"max=60"`
	Members       map[string]MemberInput `json:"members"`
}

// AssignSlotRequest place a member on a slot of the active shift.
type AssignSlotRequest struct {
	MemberInput
}

// ShiftListRequest staff listing query.
type ShiftListRequest struct {
	PaginationRequest
	Status         string `form:"status"          binding:"omitempty,oneof=active completed"`
	ApprovalStatus string `form:"approval_status" binding:"omitempty,oneof=pending approved rejected"`
}

// ShiftResponse a shift with its roster laid out by slot.
type ShiftResponse struct {
	ID              string       `json:"id"`
	StartedBy       string       `json:"started_by"`
	VehiclePrefix   string       `json:"vehicle_prefix"`
	Roster          []RosterSlot `json:"roster"`
	StartTime       time.Time    `json:"start_time"`
	EndTime         *time.Time   `json:"end_time,omitempty"`
	DurationSeconds *int64       `json:"duration_seconds,omitempty"`
	FinalDuration   *string      `json:"final_duration,omitempty"`
	Status          string       `json:"status"`
	ApprovalStatus  string       `json:"approval_status"`
	ReviewedBy      *string      `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time   `json:"reviewed_at,omitempty"`
	// Elapsed "HH:MM:SS" while active.
	Elapsed        string `json:"elapsed,omitempty"`
	ElapsedSeconds int64  `json:"elapsed_seconds,omitempty"`
}

// ElapsedTick one second of the running clock.
type ElapsedTick struct {
	ShiftID        string `json:"shift_id"`
	Elapsed        string `json:"elapsed"`
	ElapsedSeconds int64  `json:"elapsed_seconds"`
}
