package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
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

// ── Shift errors ──

var (
	ErrNoActiveShift = errors.New("no active shift")
	ErrShiftNotFound = errors.New("shift not found")
	// ErrLegacyRoster the stored roster is not slot addressed and cannot be edited.
	ErrLegacyRoster = errors.New("shift roster is in a legacy format and cannot be edited")
)

// DefaultHistoryLimit shifts shown in a member's history.
const DefaultHistoryLimit = 10

// ShiftService duty shifts of the calling initiator.
type ShiftService interface {
	Start(ctx context.Context, actor Actor, req *dto.StartShiftRequest) (*dto.ShiftResponse, error)
	GetActive(ctx context.Context, actor Actor) (*dto.ShiftResponse, error)
	AssignSlot(ctx context.Context, actor Actor, slot string, member dto.MemberInput) (*dto.ShiftResponse, error)
	ClearSlot(ctx context.Context, actor Actor, slot string) (*dto.ShiftResponse, error)
	End(ctx context.Context, actor Actor) (*dto.ShiftResponse, error)
	History(ctx context.Context, actor Actor, limit int) ([]dto.ShiftResponse, error)
}

type shiftService struct {
	repo    *repository.Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewShiftService creates a ShiftService.
func NewShiftService(repo *repository.Repository, m *metrics.Metrics, logger *zap.Logger) ShiftService {
	return &shiftService{repo: repo, metrics: m, logger: logger, now: now}
}

// ────────────────────── Start ──────────────────────

func (s *shiftService) Start(ctx context.Context, actor Actor, req *dto.StartShiftRequest) (resp *dto.ShiftResponse, err error) {
	defer func() { s.metrics.Transition(model.RecordTypeShift, "start", err) }()

	prefix := strings.TrimSpace(req.VehiclePrefix)
	roster := toRoster(req.Members)
	if err := lifecycle.ShiftLayout.Validate(prefix, roster); err != nil {
		return nil, err
	}

	// Friendly pre-check; the partial unique index is what enforces it.
	if _, err := s.repo.Shift.GetActiveByInitiator(ctx, actor.Username); err == nil {
		return nil, lifecycle.ErrConcurrentShift
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("check active shift failed", zap.String("initiator", actor.Username), zap.Error(err))
		return nil, err
	}

	members, err := json.Marshal(roster)
	if err != nil {
		return nil, err
	}
	userID := actor.UserID
	shift := &model.Shift{
		StartedBy:      actor.Username,
		UserID:         &userID,
		VehiclePrefix:  prefix,
		Members:        model.JSONB(members),
		StartTime:      s.now(),
		Status:         model.ShiftStatusActive,
		ApprovalStatus: model.ApprovalPending,
	}
	if err := s.repo.Shift.Create(ctx, shift); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, lifecycle.ErrConcurrentShift
		}
		s.logger.Error("create shift failed", zap.String("initiator", actor.Username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("shift started",
		zap.String("shift_id", shift.ID),
		zap.String("initiator", actor.Username),
		zap.String("vehicle_prefix", prefix),
	)
	return toShiftResponse(shift, s.now()), nil
}

// ────────────────────── GetActive ──────────────────────

func (s *shiftService) GetActive(ctx context.Context, actor Actor) (*dto.ShiftResponse, error) {
	shift, err := s.active(ctx, actor)
	if err != nil {
		return nil, err
	}
	return toShiftResponse(shift, s.now()), nil
}

func (s *shiftService) active(ctx context.Context, actor Actor) (*model.Shift, error) {
	shift, err := s.repo.Shift.GetActiveByInitiator(ctx, actor.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoActiveShift
		}
		s.logger.Error("load active shift failed", zap.String("initiator", actor.Username), zap.Error(err))
		return nil, err
	}
	return shift, nil
}

// ────────────────────── Roster mutation ──────────────────────

func (s *shiftService) AssignSlot(ctx context.Context, actor Actor, slot string, member dto.MemberInput) (*dto.ShiftResponse, error) {
	return s.mutateRoster(ctx, actor, "assign_slot", func(r model.Roster) (model.Roster, error) {
		return lifecycle.ShiftLayout.Assign(r, slot, model.Member{
			ID:   strings.TrimSpace(member.ID),
			Name: member.Name,
			Rank: member.Rank,
		})
	})
}

func (s *shiftService) ClearSlot(ctx context.Context, actor Actor, slot string) (*dto.ShiftResponse, error) {
	return s.mutateRoster(ctx, actor, "clear_slot", func(r model.Roster) (model.Roster, error) {
		return lifecycle.ShiftLayout.Clear(r, slot)
	})
}

// mutateRoster persists the edited roster straight onto the active shift.
// Concurrent edits are last-write-wins.
func (s *shiftService) mutateRoster(ctx context.Context, actor Actor, op string,
	edit func(model.Roster) (model.Roster, error)) (*dto.ShiftResponse, error) {
	shift, err := s.active(ctx, actor)
	if err != nil {
		return nil, err
	}

	roster, err := shift.Roster()
	if err != nil {
		return nil, ErrLegacyRoster
	}
	next, err := edit(roster)
	if err != nil {
		return nil, err
	}

	members, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Shift.UpdateMembers(ctx, shift.ID, model.JSONB(members)); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			// ended or rejected in the meantime
			return nil, ErrNoActiveShift
		}
		s.logger.Error("update roster failed", zap.String("op", op), zap.String("shift_id", shift.ID), zap.Error(err))
		return nil, err
	}

	shift.Members = model.JSONB(members)
	return toShiftResponse(shift, s.now()), nil
}

// ────────────────────── End ──────────────────────

func (s *shiftService) End(ctx context.Context, actor Actor) (resp *dto.ShiftResponse, err error) {
	defer func() { s.metrics.Transition(model.RecordTypeShift, "end", err) }()

	shift, err := s.active(ctx, actor)
	if err != nil {
		return nil, err
	}

	closure, err := lifecycle.Close(shift.StartTime, s.now())
	if err != nil {
		s.logger.Error("shift clock anomaly", zap.String("shift_id", shift.ID), zap.Error(err))
		return nil, err
	}

	writeErr := s.repo.Shift.End(ctx, shift.ID, closure)
	if writeErr != nil && !errors.Is(writeErr, pkgerrors.ErrOptimisticLock) && !pkgerrors.IsStore(writeErr) {
		return nil, writeErr
	}

	// The authoritative record decides, whether or not the write confirmed.
	cur, err := s.repo.Shift.GetByID(ctx, shift.ID)
	if err != nil {
		if writeErr != nil {
			err = writeErr
		}
		s.logger.Error("end shift failed", zap.String("shift_id", shift.ID), zap.Error(err))
		return nil, err
	}
	if cur.Status != model.ShiftStatusCompleted {
		if writeErr != nil {
			return nil, writeErr
		}
		return nil, ErrConflict
	}

	s.logger.Info("shift ended",
		zap.String("shift_id", cur.ID),
		zap.Int64("duration_seconds", closure.DurationSeconds),
	)
	return toShiftResponse(cur, s.now()), nil
}

// ────────────────────── History ──────────────────────

func (s *shiftService) History(ctx context.Context, actor Actor, limit int) ([]dto.ShiftResponse, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	shifts, _, err := s.repo.Shift.List(ctx, repository.ShiftFilter{StartedBy: actor.Username, Limit: limit})
	if err != nil {
		s.logger.Error("list shift history failed", zap.String("initiator", actor.Username), zap.Error(err))
		return nil, err
	}
	return toShiftResponses(shifts, s.now()), nil
}
