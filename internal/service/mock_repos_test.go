package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lyipi/4bpchoquecoe/internal/lifecycle"
	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/repository"
	pkgerrors "github.com/lyipi/4bpchoquecoe/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users []model.User
	err   error
}

func newMockUserRepo(users ...model.User) *mockUserRepo {
	return &mockUserRepo{users: users}
}

func (m *mockUserRepo) List(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	return append([]model.User(nil), m.users...), nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			u := u
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Search(_ context.Context, q string, limit int) ([]model.User, error) {
	var out []model.User
	q = strings.ToLower(q)
	for _, u := range m.users {
		if q == "" || strings.Contains(strings.ToLower(u.FullName), q) || strings.Contains(strings.ToLower(u.Username), q) {
			out = append(out, u)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ── Mock ShiftRepository ──

// mockShiftRepo in-memory shifts honoring the conditional-write contract of
// the real store. endErr / patchErr inject failures; with *Applies set the
// write lands before the error is returned, as when a confirmation is lost.
type mockShiftRepo struct {
	mu     sync.Mutex
	shifts map[string]*model.Shift
	seq    int
	audit  *mockAuditRepo

	createErr    error
	endErr       error
	endApplies   bool
	patchErr     error
	patchApplies bool
	listErr      error
}

func newMockShiftRepo(audit *mockAuditRepo) *mockShiftRepo {
	return &mockShiftRepo{shifts: make(map[string]*model.Shift), audit: audit}
}

func (m *mockShiftRepo) put(s model.Shift) *model.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		m.seq++
		s.ID = fmt.Sprintf("shift-%d", m.seq)
	}
	m.shifts[s.ID] = &s
	return &s
}

func (m *mockShiftRepo) Create(_ context.Context, shift *model.Shift) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, s := range m.shifts {
		if s.StartedBy == shift.StartedBy && s.Status == model.ShiftStatusActive {
			return gorm.ErrDuplicatedKey
		}
	}
	m.seq++
	shift.ID = fmt.Sprintf("shift-%d", m.seq)
	cp := *shift
	m.shifts[shift.ID] = &cp
	return nil
}

func (m *mockShiftRepo) GetByID(_ context.Context, id string) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockShiftRepo) GetActiveByInitiator(_ context.Context, startedBy string) (*model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.shifts {
		if s.StartedBy == startedBy && s.Status == model.ShiftStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockShiftRepo) UpdateMembers(_ context.Context, id string, members model.JSONB) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.shifts[id]
	if !ok || s.Status != model.ShiftStatusActive {
		return pkgerrors.ErrOptimisticLock
	}
	s.Members = members
	return nil
}

func (m *mockShiftRepo) End(_ context.Context, id string, closure lifecycle.Closure) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.endErr != nil && !m.endApplies {
		return m.endErr
	}
	s, ok := m.shifts[id]
	if !ok || s.Status != model.ShiftStatusActive {
		return pkgerrors.ErrOptimisticLock
	}
	applyClosure(s, closure)
	return m.endErr
}

func (m *mockShiftRepo) ApplyPatch(_ context.Context, id, expectedStatus, expectedApproval string,
	patch lifecycle.ShiftPatch, review repository.Review, audit *model.ApprovalAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.patchErr != nil && !m.patchApplies {
		return m.patchErr
	}
	s, ok := m.shifts[id]
	if !ok || s.Status != expectedStatus || s.ApprovalStatus != expectedApproval {
		return pkgerrors.ErrOptimisticLock
	}
	s.Status = patch.Status
	s.ApprovalStatus = patch.ApprovalStatus
	if patch.Closure != nil {
		applyClosure(s, *patch.Closure)
	}
	by, at := review.By, review.At
	s.ReviewedBy, s.ReviewedAt = &by, &at
	m.audit.add(*audit)
	return m.patchErr
}

func applyClosure(s *model.Shift, c lifecycle.Closure) {
	end, d, f := c.EndTime, c.DurationSeconds, c.FinalDuration
	s.Status = model.ShiftStatusCompleted
	s.EndTime, s.DurationSeconds, s.FinalDuration = &end, &d, &f
}

func (m *mockShiftRepo) ListApprovedWithDuration(_ context.Context) ([]model.Shift, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []model.Shift
	for _, s := range m.sorted() {
		if s.ApprovalStatus == model.ApprovalApproved && s.DurationSeconds != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockShiftRepo) List(_ context.Context, f repository.ShiftFilter) ([]model.Shift, int64, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var out []model.Shift
	for _, s := range m.sorted() {
		if (f.Status == "" || s.Status == f.Status) &&
			(f.ApprovalStatus == "" || s.ApprovalStatus == f.ApprovalStatus) &&
			(f.StartedBy == "" || s.StartedBy == f.StartedBy) {
			out = append(out, s)
		}
	}
	// newest first
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	total := int64(len(out))
	if f.Offset < len(out) {
		out = out[f.Offset:]
	} else {
		out = nil
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *mockShiftRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, s := range m.sorted() {
		if s.Status == model.ShiftStatusActive {
			n++
		}
	}
	return n, nil
}

// sorted snapshot in id order.
func (m *mockShiftRepo) sorted() []model.Shift {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Shift, 0, len(m.shifts))
	for _, s := range m.shifts {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ── Mock ReportRepository ──

type mockReportRepo struct {
	mu      sync.Mutex
	reports map[string]*model.Report
	seq     int
	audit   *mockAuditRepo

	patchErr     error
	patchApplies bool
}

func newMockReportRepo(audit *mockAuditRepo) *mockReportRepo {
	return &mockReportRepo{reports: make(map[string]*model.Report), audit: audit}
}

func (m *mockReportRepo) Create(_ context.Context, report *model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	report.ID = fmt.Sprintf("report-%02d", m.seq)
	cp := *report
	m.reports[report.ID] = &cp
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id string) (*model.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *mockReportRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *mockReportRepo) ApplyStatus(_ context.Context, id, expected, next string,
	review repository.Review, audit *model.ApprovalAudit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.patchErr != nil && !m.patchApplies {
		return m.patchErr
	}
	r, ok := m.reports[id]
	if !ok || r.Status != expected {
		return pkgerrors.ErrOptimisticLock
	}
	r.Status = next
	by, at := review.By, review.At
	r.ReviewedBy, r.ReviewedAt = &by, &at
	m.audit.add(*audit)
	return m.patchErr
}

func (m *mockReportRepo) ListApproved(_ context.Context) ([]model.Report, error) {
	var out []model.Report
	for _, r := range m.sorted() {
		if r.Status == model.ApprovalApproved {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReportRepo) List(_ context.Context, f repository.ReportFilter) ([]model.Report, int64, error) {
	var out []model.Report
	for _, r := range m.sorted() {
		if (f.Status == "" || r.Status == f.Status) && (f.UserID == "" || (r.UserID != nil && *r.UserID == f.UserID)) {
			out = append(out, r)
		}
	}
	total := int64(len(out))
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *mockReportRepo) sorted() []model.Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Report, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ── Mock AuditRepository ──

type mockAuditRepo struct {
	mu      sync.Mutex
	entries []model.ApprovalAudit
}

func (m *mockAuditRepo) add(e model.ApprovalAudit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

func (m *mockAuditRepo) ListByRecord(_ context.Context, recordType, recordID string) ([]model.ApprovalAudit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ApprovalAudit
	for _, e := range m.entries {
		if e.RecordType == recordType && e.RecordID == recordID {
			out = append(out, e)
		}
	}
	return out, nil
}

// ── Fixtures ──

type mockRepos struct {
	user   *mockUserRepo
	shift  *mockShiftRepo
	report *mockReportRepo
	audit  *mockAuditRepo
}

func newMockRepository(users ...model.User) (*repository.Repository, *mockRepos) {
	audit := &mockAuditRepo{}
	m := &mockRepos{
		user:   newMockUserRepo(users...),
		shift:  newMockShiftRepo(audit),
		report: newMockReportRepo(audit),
		audit:  audit,
	}
	return &repository.Repository{
		User:   m.user,
		Shift:  m.shift,
		Report: m.report,
		Audit:  m.audit,
	}, m
}

var (
	member = Actor{UserID: "u-member", Username: "silva", FullName: "Sd. Silva", Role: model.RoleMember}
	staff  = Actor{UserID: "u-staff", Username: "souza", FullName: "Sgt. Souza", Role: model.RoleStaff}
)

func testLogger() *zap.Logger { return zap.NewNop() }
