package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lyipi/4bpchoquecoe/internal/dto"
	"github.com/lyipi/4bpchoquecoe/internal/lifecycle"
	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/repository"
)

// ── Report errors ──

var (
	ErrReportNotFound = errors.New("report not found")
	ErrNotReportOwner = errors.New("only the author can do this")
)

// DefaultMemberRole role recorded for a report member when none is given.
const DefaultMemberRole = "Membro"

// ReportService incident reports of the calling member.
type ReportService interface {
	Submit(ctx context.Context, actor Actor, req *dto.SubmitReportRequest) (*dto.ReportResponse, error)
	// Get the author and staff may read a report.
	Get(ctx context.Context, actor Actor, id string) (*dto.ReportResponse, error)
	ListMine(ctx context.Context, actor Actor, req *dto.ReportListRequest) ([]dto.ReportResponse, int64, error)
	// Delete only the author may delete a report.
	Delete(ctx context.Context, actor Actor, id string) error
}

type reportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewReportService creates a ReportService.
func NewReportService(repo *repository.Repository, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

// storedMember shape of a member inside reports.members.
type storedMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank string `json:"rank"`
	Role string `json:"role"`
}

// ────────────────────── Submit ──────────────────────

func (s *reportService) Submit(ctx context.Context, actor Actor, req *dto.SubmitReportRequest) (*dto.ReportResponse, error) {
	prefix := strings.TrimSpace(req.UnitPrefix)
	roster := toRoster(req.Members)
	if err := lifecycle.ReportLayout.Validate(prefix, roster); err != nil {
		return nil, err
	}

	// Members are stored as a flat list in slot order; every member of the
	// team is credited with the report's items.
	var members []storedMember
	for _, sm := range lifecycle.ReportLayout.Ordered(roster) {
		role := strings.TrimSpace(req.Members[sm.Slot.Key].Role)
		if role == "" {
			role = DefaultMemberRole
		}
		members = append(members, storedMember{ID: sm.Member.ID, Name: sm.Member.Name, Rank: sm.Member.Rank, Role: role})
	}
	membersJSON, err := json.Marshal(members)
	if err != nil {
		return nil, err
	}

	userID := actor.UserID
	report := &model.Report{
		UserID:      &userID,
		Author:      actor.DisplayName(),
		AuthorRank:  s.authorRank(ctx, actor),
		UnitPrefix:  prefix,
		Members:     model.JSONB(membersJSON),
		Occurrences: jsonb(req.Occurrences),
		Detained:    jsonb(req.Detained),
		Bombs:       jsonb(req.Bombs),
		Lockpicks:   jsonb(req.Lockpicks),
		Ammo:        jsonb(req.Ammo),
		Weapons:     jsonb(req.Weapons),
		Drugs:       jsonb(req.Drugs),
		MarkedMoney: jsonb(req.MarkedMoney),
		Actions:     req.Actions,
		Status:      model.ApprovalPending,
	}
	if err := s.repo.Report.Create(ctx, report); err != nil {
		s.logger.Error("create report failed", zap.String("author", actor.Username), zap.Error(err))
		return nil, err
	}

	s.logger.Info("report submitted",
		zap.String("report_id", report.ID),
		zap.String("author", actor.Username),
		zap.Int("members", len(members)),
	)
	return toReportResponse(report), nil
}

// authorRank the author's rank from the directory, falling back to the role
// carried by the token.
func (s *reportService) authorRank(ctx context.Context, actor Actor) string {
	u, err := s.repo.User.GetByID(ctx, actor.UserID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("lookup author rank failed", zap.String("user_id", actor.UserID), zap.Error(err))
		}
		return actor.Role
	}
	if u.Rank != "" {
		return u.Rank
	}
	return actor.Role
}

func jsonb(raw json.RawMessage) model.JSONB {
	if len(raw) == 0 {
		return nil
	}
	return model.JSONB(raw)
}

// ────────────────────── Get ──────────────────────

func (s *reportService) Get(ctx context.Context, actor Actor, id string) (*dto.ReportResponse, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(report, actor) && !actor.CanApprove() {
		return nil, ErrForbidden
	}
	return toReportResponse(report), nil
}

func (s *reportService) load(ctx context.Context, id string) (*model.Report, error) {
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

func isOwner(r *model.Report, actor Actor) bool {
	return r.UserID != nil && *r.UserID == actor.UserID
}

// ────────────────────── ListMine ──────────────────────

func (s *reportService) ListMine(ctx context.Context, actor Actor, req *dto.ReportListRequest) ([]dto.ReportResponse, int64, error) {
	reports, total, err := s.repo.Report.List(ctx, repository.ReportFilter{
		UserID: actor.UserID,
		Status: req.Status,
		Offset: req.GetOffset(),
		Limit:  req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("list reports failed", zap.String("user_id", actor.UserID), zap.Error(err))
		return nil, 0, err
	}
	return toReportResponses(reports), total, nil
}

// ────────────────────── Delete ──────────────────────

func (s *reportService) Delete(ctx context.Context, actor Actor, id string) error {
	report, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !isOwner(report, actor) {
		return ErrNotReportOwner
	}

	if err := s.repo.Report.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		s.logger.Error("delete report failed", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("report deleted", zap.String("report_id", id), zap.String("author", actor.Username))
	return nil
}
