package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/realtime"
	pkgerrors "github.com/lyipi/4bpchoquecoe/pkg/errors"
)

// ReportFilter list criteria; empty fields do not filter. Limit 0 means all.
type ReportFilter struct {
	Status string
	UserID string
	Offset int
	Limit  int
}

// ReportRepository reports table.
type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, id string) (*model.Report, error)
	Delete(ctx context.Context, id string) error
	// ApplyStatus writes a status transition and its audit entry in one
	// transaction, provided the report is still in expected.
	ApplyStatus(ctx context.Context, id, expected, next string, review Review, audit *model.ApprovalAudit) error
	// ListApproved approved reports, oldest first.
	ListApproved(ctx context.Context) ([]model.Report, error)
	List(ctx context.Context, f ReportFilter) ([]model.Report, int64, error)
}

type reportRepo struct {
	*store
}

func (r *reportRepo) Create(ctx context.Context, report *model.Report) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if err := db.Create(report).Error; err != nil {
		return wrap("create", "reports", err)
	}
	r.publish(ctx, realtime.TableReports, realtime.TypeInsert, report.ID)
	return nil
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*model.Report, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var report model.Report
	if err := db.Where("id = ?", id).First(&report).Error; err != nil {
		return nil, wrap("get", "reports", err)
	}
	return &report, nil
}

func (r *reportRepo) Delete(ctx context.Context, id string) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Where("id = ?", id).Delete(&model.Report{})
	if result.Error != nil {
		return wrap("delete", "reports", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publish(ctx, realtime.TableReports, realtime.TypeDelete, id)
	return nil
}

func (r *reportRepo) ApplyStatus(ctx context.Context, id, expected, next string, review Review, audit *model.ApprovalAudit) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Report{}).
			Where("id = ? AND status = ?", id, expected).
			Updates(map[string]interface{}{
				"status":      next,
				"reviewed_by": review.By,
				"reviewed_at": review.At,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return pkgerrors.ErrOptimisticLock
		}
		if audit != nil {
			return tx.Create(audit).Error
		}
		return nil
	})
	if err != nil {
		return wrap("apply_status", "reports", err)
	}
	r.publish(ctx, realtime.TableReports, realtime.TypeUpdate, id)
	return nil
}

func (r *reportRepo) ListApproved(ctx context.Context) ([]model.Report, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var reports []model.Report
	err := db.Where("status = ?", model.ApprovalApproved).
		Order("created_at ASC").Order("id ASC").
		Find(&reports).Error
	return reports, wrap("list_approved", "reports", err)
}

func (r *reportRepo) List(ctx context.Context, f ReportFilter) ([]model.Report, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := db.Model(&model.Report{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count", "reports", err)
	}

	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var reports []model.Report
	if err := query.Order("created_at DESC").Order("id DESC").Find(&reports).Error; err != nil {
		return nil, 0, wrap("list", "reports", err)
	}
	return reports, total, nil
}
