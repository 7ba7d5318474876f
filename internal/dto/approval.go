package dto

import "time"

// AuditEntryResponse one approval transition.
type AuditEntryResponse struct {
	Action       string    `json:"action"`
	Actor        string    `json:"actor"`
	BeforeStatus string    `json:"before_status"`
	AfterStatus  string    `json:"after_status"`
	CreatedAt    time.Time `json:"created_at"`
}
