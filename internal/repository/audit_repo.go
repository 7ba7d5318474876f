package repository

import (
	"context"

	"github.com/lyipi/4bpchoquecoe/internal/model"
)

// AuditRepository approval audit trail. Entries are written by the shift and
// report repositories inside their transition transactions.
type AuditRepository interface {
	ListByRecord(ctx context.Context, recordType, recordID string) ([]model.ApprovalAudit, error)
}

type auditRepo struct {
	*store
}

func (r *auditRepo) ListByRecord(ctx context.Context, recordType, recordID string) ([]model.ApprovalAudit, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var entries []model.ApprovalAudit
	err := db.Where("record_type = ? AND record_id = ?", recordType, recordID).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error
	return entries, wrap("list", "approval_audit_log", err)
}
