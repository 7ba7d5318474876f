package model

import "time"

// Audited record types.
const (
	RecordTypeShift  = "shift"
	RecordTypeReport = "report"
)

// ApprovalAudit one approval transition — approval_audit_log. Append-only.
type ApprovalAudit struct {
	ID           string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	RecordType   string    `gorm:"type:varchar(20);not null"                      json:"record_type"`
	RecordID     string    `gorm:"type:uuid;not null;index"                       json:"record_id"`
	Action       string    `gorm:"type:varchar(20);not null"                      json:"action"`
	Actor        string    `gorm:"type:varchar(100);not null"                     json:"actor"`
	BeforeStatus string    `gorm:"type:varchar(40);not null"                      json:"before_status"`
	AfterStatus  string    `gorm:"type:varchar(40);not null"                      json:"after_status"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName table name
func (ApprovalAudit) TableName() string { return "approval_audit_log" }
