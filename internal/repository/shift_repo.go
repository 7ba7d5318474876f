package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/lyipi/4bpchoquecoe/internal/lifecycle"
	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/realtime"
	pkgerrors "github.com/lyipi/4bpchoquecoe/pkg/errors"
)

// ShiftFilter list criteria; empty fields do not filter. Limit 0 means all.
type ShiftFilter struct {
	Status         string
	ApprovalStatus string
	StartedBy      string
	Offset         int
	Limit          int
}

// Review who decided a transition and when.
type Review struct {
	By string
	At time.Time
}

// ShiftRepository shifts table.
type ShiftRepository interface {
	// Create inserts an active shift. A second active shift for the same
	// initiator fails with gorm.ErrDuplicatedKey.
	Create(ctx context.Context, shift *model.Shift) error
	GetByID(ctx context.Context, id string) (*model.Shift, error)
	GetActiveByInitiator(ctx context.Context, startedBy string) (*model.Shift, error)
	// UpdateMembers replaces the roster of a shift that is still active.
	UpdateMembers(ctx context.Context, id string, members model.JSONB) error
	// End closes an active shift.
	End(ctx context.Context, id string, closure lifecycle.Closure) error
	// ApplyPatch writes a transition and its audit entry in one transaction,
	// provided the shift is still in (expectedStatus, expectedApproval).
	ApplyPatch(ctx context.Context, id, expectedStatus, expectedApproval string,
		patch lifecycle.ShiftPatch, review Review, audit *model.ApprovalAudit) error
	// ListApprovedWithDuration approved shifts with a duration, oldest first.
	ListApprovedWithDuration(ctx context.Context) ([]model.Shift, error)
	List(ctx context.Context, f ShiftFilter) ([]model.Shift, int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type shiftRepo struct {
	*store
}

func (r *shiftRepo) Create(ctx context.Context, shift *model.Shift) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	if err := db.Create(shift).Error; err != nil {
		return wrap("create", "shifts", err)
	}
	r.publish(ctx, realtime.TableShifts, realtime.TypeInsert, shift.ID)
	return nil
}

func (r *shiftRepo) GetByID(ctx context.Context, id string) (*model.Shift, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var shift model.Shift
	if err := db.Where("id = ?", id).First(&shift).Error; err != nil {
		return nil, wrap("get", "shifts", err)
	}
	return &shift, nil
}

func (r *shiftRepo) GetActiveByInitiator(ctx context.Context, startedBy string) (*model.Shift, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var shift model.Shift
	err := db.Where("started_by = ? AND status = ?", startedBy, model.ShiftStatusActive).
		Order("start_time DESC").
		First(&shift).Error
	if err != nil {
		return nil, wrap("get_active", "shifts", err)
	}
	return &shift, nil
}

func (r *shiftRepo) UpdateMembers(ctx context.Context, id string, members model.JSONB) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&model.Shift{}).
		Where("id = ? AND status = ?", id, model.ShiftStatusActive).
		Update("members", members)
	if result.Error != nil {
		return wrap("update_members", "shifts", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	r.publish(ctx, realtime.TableShifts, realtime.TypeUpdate, id)
	return nil
}

func (r *shiftRepo) End(ctx context.Context, id string, closure lifecycle.Closure) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	result := db.Model(&model.Shift{}).
		Where("id = ? AND status = ?", id, model.ShiftStatusActive).
		Updates(map[string]interface{}{
			"status":           model.ShiftStatusCompleted,
			"end_time":         closure.EndTime,
			"duration_seconds": closure.DurationSeconds,
			"final_duration":   closure.FinalDuration,
		})
	if result.Error != nil {
		return wrap("end", "shifts", result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	r.publish(ctx, realtime.TableShifts, realtime.TypeUpdate, id)
	return nil
}

func (r *shiftRepo) ApplyPatch(ctx context.Context, id, expectedStatus, expectedApproval string,
	patch lifecycle.ShiftPatch, review Review, audit *model.ApprovalAudit) error {
	db, cancel := r.conn(ctx)
	defer cancel()

	updates := map[string]interface{}{
		"status":          patch.Status,
		"approval_status": patch.ApprovalStatus,
		"reviewed_by":     review.By,
		"reviewed_at":     review.At,
	}
	if c := patch.Closure; c != nil {
		updates["end_time"] = c.EndTime
		updates["duration_seconds"] = c.DurationSeconds
		updates["final_duration"] = c.FinalDuration
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Shift{}).
			Where("id = ? AND status = ? AND approval_status = ?", id, expectedStatus, expectedApproval).
			Updates(updates)
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
		return wrap("apply_patch", "shifts", err)
	}
	r.publish(ctx, realtime.TableShifts, realtime.TypeUpdate, id)
	return nil
}

func (r *shiftRepo) ListApprovedWithDuration(ctx context.Context) ([]model.Shift, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var shifts []model.Shift
	err := db.Where("approval_status = ? AND duration_seconds IS NOT NULL", model.ApprovalApproved).
		Order("created_at ASC").Order("id ASC").
		Find(&shifts).Error
	return shifts, wrap("list_approved", "shifts", err)
}

func (r *shiftRepo) List(ctx context.Context, f ShiftFilter) ([]model.Shift, int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	query := db.Model(&model.Shift{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.ApprovalStatus != "" {
		query = query.Where("approval_status = ?", f.ApprovalStatus)
	}
	if f.StartedBy != "" {
		query = query.Where("started_by = ?", f.StartedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, wrap("count", "shifts", err)
	}

	if f.Offset > 0 {
		query = query.Offset(f.Offset)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var shifts []model.Shift
	if err := query.Order("start_time DESC").Order("id DESC").Find(&shifts).Error; err != nil {
		return nil, 0, wrap("list", "shifts", err)
	}
	return shifts, total, nil
}

func (r *shiftRepo) CountActive(ctx context.Context) (int64, error) {
	db, cancel := r.conn(ctx)
	defer cancel()

	var n int64
	err := db.Model(&model.Shift{}).Where("status = ?", model.ShiftStatusActive).Count(&n).Error
	return n, wrap("count_active", "shifts", err)
}
