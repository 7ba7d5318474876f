package service

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lyipi/4bpchoquecoe/config"
	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/repository"
	"github.com/lyipi/4bpchoquecoe/pkg/metrics"
)

// ── Shared errors ──

var (
	ErrForbidden = errors.New("operation requires staff privileges")
	// ErrConflict a concurrent writer changed the record first and the intended
	// state was not reached.
	ErrConflict = errors.New("record was changed concurrently, reload and retry")
)

// Actor the authenticated caller, passed explicitly to every operation.
type Actor struct {
	UserID   string
	Username string
	FullName string
	Role     string
}

// CanApprove staff and admins review shifts and reports.
func (a Actor) CanApprove() bool {
	return a.Role == model.RoleStaff || a.Role == model.RoleAdmin
}

// DisplayName full name, falling back to the username.
func (a Actor) DisplayName() string {
	if a.FullName != "" {
		return a.FullName
	}
	return a.Username
}

// Service aggregate of every service.
type Service struct {
	Shift    ShiftService
	Report   ReportService
	Approval ApprovalService
	Ranking  RankingService
	User     UserService
	Export   ExportService
}

// NewService wires the services. cache may be nil.
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache SnapshotCache,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	rankingSvc := NewRankingService(repo, cache, cfg.Ranking, m, logger)
	return &Service{
		Shift:    NewShiftService(repo, m, logger),
		Report:   NewReportService(repo, logger),
		Approval: NewApprovalService(repo, m, logger),
		Ranking:  rankingSvc,
		User:     NewUserService(repo, logger),
		Export:   NewExportService(repo, rankingSvc, logger),
	}
}

// now store timestamps carry microseconds; truncating keeps values written and
// read back comparable.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
