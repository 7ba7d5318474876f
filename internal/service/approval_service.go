package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lyipi/4bpchoquecoe/internal/dto"
	"github.com/lyipi/4bpchoquecoe/internal/lifecycle"
	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/repository"
	pkgerrors "github.com/lyipi/4bpchoquecoe/pkg/errors"
	"github.com/lyipi/4bpchoquecoe/pkg/metrics"
)

// ErrUnknownRecordType audit trail requested for something that is neither a
// shift nor a report.
var ErrUnknownRecordType = errors.New("unknown record type")

// ApprovalService staff review of shifts and reports.
//
// Transitions are conditional writes on the state the decision was made
// against. When the write fails or its confirmation is lost, the record is
// re-read: if it already holds the intended state the transition succeeded,
// otherwise the caller gets the failure and nothing was changed.
type ApprovalService interface {
	ListShifts(ctx context.Context, actor Actor, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error)
	ListReports(ctx context.Context, actor Actor, req *dto.ReportListRequest) ([]dto.ReportResponse, int64, error)
	// TransitionShift approve, reject or reopen a shift. Rejecting an active
	// shift also ends it.
	TransitionShift(ctx context.Context, actor Actor, id string, action lifecycle.Action) (*dto.ShiftResponse, error)
	TransitionReport(ctx context.Context, actor Actor, id string, action lifecycle.Action) (*dto.ReportResponse, error)
	AuditTrail(ctx context.Context, actor Actor, recordType, id string) ([]dto.AuditEntryResponse, error)
}

type approvalService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewApprovalService creates an ApprovalService.
func NewApprovalService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) ApprovalService {
	return &approvalService{repo: repo, metrics: m, logger: logger, now: now}
}

// ────────────────────── Listing ──────────────────────

func (s *approvalService) ListShifts(ctx context.Context, actor Actor, req *dto.ShiftListRequest) ([]dto.ShiftResponse, int64, error) {
	if !actor.CanApprove() {
		return nil, 0, ErrForbidden
	}
	shifts, total, err := s.repo.Shift.List(ctx, repository.ShiftFilter{
		Status:         req.Status,
		ApprovalStatus: req.ApprovalStatus,
		Offset:         req.GetOffset(),
		Limit:          req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list shifts failed", zap.Error(err))
		return nil, 0, err
	}
	return toShiftResponses(shifts, s.now()), total, nil
}

func (s *approvalService) ListReports(ctx context.Context, actor Actor, req *dto.ReportListRequest) ([]dto.ReportResponse, int64, error) {
	if !actor.CanApprove() {
		return nil, 0, ErrForbidden
	}
	reports, total, err := s.repo.Report.List(ctx, repository.ReportFilter{
		Status: req.Status,
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list reports failed", zap.Error(err))
		return nil, 0, err
	}
	return toReportResponses(reports), total, nil
}

// ────────────────────── Shift transitions ──────────────────────

func (s *approvalService) TransitionShift(ctx context.Context, actor Actor, id string, action lifecycle.Action) (resp *dto.ShiftResponse, err error) {
	defer func() { s.metrics.Transition(model.RecordTypeShift, string(action), err) }()

	if !actor.CanApprove() {
		return nil, ErrForbidden
	}

	shift, err := s.loadShift(ctx, id)
	if err != nil {
		return nil, err
	}

	at := s.now()
	patch, err := lifecycle.PlanShift(shift.Status, shift.ApprovalStatus, shift.StartTime, action, at)
	if err != nil {
		return nil, err
	}

	audit := &model.ApprovalAudit{
		RecordType:   model.RecordTypeShift,
		RecordID:     shift.ID,
		Action:       string(action),
		Actor:        actor.Username,
		BeforeStatus: shiftState(shift.Status, shift.ApprovalStatus),
		AfterStatus:  shiftState(patch.Status, patch.ApprovalStatus),
	}
	writeErr := s.repo.Shift.ApplyPatch(ctx, shift.ID, shift.Status, shift.ApprovalStatus, patch,
		repository.Review{By: actor.Username, At: at}, audit)
	if writeErr != nil && !reconcilable(writeErr) {
		s.logger.Error("apply shift transition failed", zap.String("shift_id", id), zap.Error(writeErr))
		return nil, writeErr
	}

	cur, err := s.loadShift(ctx, id)
	if err != nil {
		if writeErr != nil {
			return nil, writeErr
		}
		return nil, err
	}
	if writeErr != nil {
		reached := cur.Status == patch.Status && cur.ApprovalStatus == patch.ApprovalStatus
		if !reached {
			return nil, outcome(writeErr)
		}
		s.logger.Warn("shift transition confirmed by re-read",
			zap.String("shift_id", id), zap.String("action", string(action)), zap.Error(writeErr))
	}

	s.logger.Info("shift reviewed",
		zap.String("shift_id", id),
		zap.String("action", string(action)),
		zap.String("actor", actor.Username),
		zap.String("state", shiftState(cur.Status, cur.ApprovalStatus)),
	)
	return toShiftResponse(cur, s.now()), nil
}

func (s *approvalService) loadShift(ctx context.Context, id string) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("load shift failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return shift, nil
}

func shiftState(status, approval string) string {
	return status + "/" + approval
}

// ────────────────────── Report transitions ──────────────────────

func (s *approvalService) TransitionReport(ctx context.Context, actor Actor, id string, action lifecycle.Action) (resp *dto.ReportResponse, err error) {
	defer func() { s.metrics.Transition(model.RecordTypeReport, string(action), err) }()

	if !actor.CanApprove() {
		return nil, ErrForbidden
	}

	report, err := s.loadReport(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := lifecycle.PlanReport(report.Status, action)
	if err != nil {
		return nil, err
	}

	audit := &model.ApprovalAudit{
		RecordType:   model.RecordTypeReport,
		RecordID:     report.ID,
		Action:       string(action),
		Actor:        actor.Username,
		BeforeStatus: report.Status,
		AfterStatus:  next,
	}
	writeErr := s.repo.Report.ApplyStatus(ctx, report.ID, report.Status, next,
		repository.Review{By: actor.Username, At: s.now()}, audit)
	if writeErr != nil && !reconcilable(writeErr) {
		s.logger.Error("apply report transition failed", zap.String("report_id", id), zap.Error(writeErr))
		return nil, writeErr
	}

	cur, err := s.loadReport(ctx, id)
	if err != nil {
		if writeErr != nil {
			return nil, writeErr
		}
		return nil, err
	}
	if writeErr != nil {
		if cur.Status != next {
			return nil, outcome(writeErr)
		}
		s.logger.Warn("report transition confirmed by re-read",
			zap.String("report_id", id), zap.String("action", string(action)), zap.Error(writeErr))
	}

	s.logger.Info("report reviewed",
		zap.String("report_id", id),
		zap.String("action", string(action)),
		zap.String("actor", actor.Username),
		zap.String("status", cur.Status),
	)
	return toReportResponse(cur), nil
}

func (s *approvalService) loadReport(ctx context.Context, id string) (*model.Report, error) {
	report, err := s.repo.Report.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		s.logger.Error("load report failed", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return report, nil
}

// reconcilable write failures whose effect is unknown or that lost a race;
// the record is re-read to find out what happened.
func reconcilable(err error) bool {
	return errors.Is(err, pkgerrors.ErrOptimisticLock) || pkgerrors.IsStore(err)
}

// outcome the error reported when the re-read shows the transition did not
// take effect.
func outcome(writeErr error) error {
	if errors.Is(writeErr, pkgerrors.ErrOptimisticLock) {
		return ErrConflict
	}
	return writeErr
}

// ────────────────────── Audit ──────────────────────

func (s *approvalService) AuditTrail(ctx context.Context, actor Actor, recordType, id string) ([]dto.AuditEntryResponse, error) {
	if !actor.CanApprove() {
		return nil, ErrForbidden
	}
	if recordType != model.RecordTypeShift && recordType != model.RecordTypeReport {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRecordType, recordType)
	}

	entries, err := s.repo.Audit.ListByRecord(ctx, recordType, id)
	if err != nil {
		s.logger.Error("list audit trail failed", zap.String("record_id", id), zap.Error(err))
		return nil, err
	}

	out := make([]dto.AuditEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = dto.AuditEntryResponse{
			Action:       e.Action,
			Actor:        e.Actor,
			BeforeStatus: e.BeforeStatus,
			AfterStatus:  e.AfterStatus,
			CreatedAt:    e.CreatedAt,
		}
	}
	return out, nil
}
