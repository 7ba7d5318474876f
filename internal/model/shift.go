package model

import (
	"encoding/json"
	"time"
)

// Shift lifecycle states.
const (
	ShiftStatusActive    = "active"
	ShiftStatusCompleted = "completed"
)

// Approval states shared by shifts and reports.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Member a roster entry.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank string `json:"rank,omitempty"`
}

// Roster role slot key → member.
type Roster map[string]Member

// Clone returns an independent copy.
func (r Roster) Clone() Roster {
	out := make(Roster, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Shift duty session — shifts
type Shift struct {
	ID              string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StartedBy       string     `gorm:"type:varchar(100);not null;index"               json:"started_by"`
	UserID          *string    `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	VehiclePrefix   string     `gorm:"type:varchar(60);not null"                      json:"vehicle_prefix"`
	Members         JSONB      `gorm:"type:jsonb"                                     json:"members"`
	StartTime       time.Time  `gorm:"not null"                                       json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	FinalDuration   *string    `gorm:"type:varchar(20)"                               json:"final_duration,omitempty"`
	Status          string     `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	ApprovalStatus  string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"approval_status"`
	ReviewedBy      *string    `gorm:"type:varchar(100)"                              json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	BaseModel
}

// TableName table name
func (Shift) TableName() string { return "shifts" }

// Roster decodes the members column as a slot mapping. Legacy list-shaped
// rosters are not slot addressed and yield an error.
func (s *Shift) Roster() (Roster, error) {
	r := Roster{}
	if s.Members.IsNull() {
		return r, nil
	}
	if err := json.Unmarshal(s.Members, &r); err != nil {
		return nil, err
	}
	return r, nil
}
