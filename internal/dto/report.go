package dto

import (
	"encoding/json"
	"time"
)

// SubmitReportRequest a new incident report. Payload counters are stored in
// whatever json shape the client sends.
type SubmitReportRequest struct {
	UnitPrefix  string                 `json:"unit_prefix" binding:"max=60"`
	Members     map[string]MemberInput `json:"members"`
	Occurrences json.RawMessage        `json:"occurrences"`
	Detained    json.RawMessage        `json:"detained"`
	Bombs       json.RawMessage        `json:"bombs"`
	Lockpicks   json.RawMessage        `json:"lockpicks"`
	Ammo        json.RawMessage        `json:"ammo"`
	Weapons     json.RawMessage        `json:"weapons"`
	Drugs       json.RawMessage        `json:"drugs"`
	MarkedMoney json.RawMessage        `json:"marked_money"`
	Actions     string                 `json:"actions" binding:"max=5000"`
}

// ReportListRequest listing query.
type ReportListRequest struct {
	PaginationRequest
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// ReportTotals normalized numbers of one report.
type ReportTotals struct {
	Occurrences float64 `json:"occurrences"`
	Detained    float64 `json:"detained"`
	Bombs       float64 `json:"bombs"`
	Lockpicks   float64 `json:"lockpicks"`
	Ammo        float64 `json:"ammo"`
	Weapons     float64 `json:"weapons"`
	Drugs       float64 `json:"drugs"`
	Money       float64 `json:"money"`
	TotalItems  float64 `json:"total_items"`
}

// ReportMember a member as read back from a stored report.
type ReportMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank string `json:"rank,omitempty"`
	Role string `json:"role,omitempty"`
}

// ReportResponse a report with its raw payload and normalized totals.
type ReportResponse struct {
	ID         string          `json:"id"`
	UserID     *string         `json:"user_id,omitempty"`
	Author     string          `json:"author"`
	AuthorRank string          `json:"author_rank"`
	UnitPrefix string          `json:"unit_prefix"`
	Members    []ReportMember  `json:"members"`
	Payload    json.RawMessage `json:"payload"`
	Totals     ReportTotals    `json:"totals"`
	Actions    string          `json:"actions"`
	Status     string          `json:"status"`
	ReviewedBy *string         `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time      `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}
