package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lyipi/4bpchoquecoe/config"
	"github.com/lyipi/4bpchoquecoe/internal/lifecycle"
	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/pkg/metrics"
	"github.com/lyipi/4bpchoquecoe/pkg/redis"
)

var rankingCfg = config.RankingConfig{ItemsLimit: 2, CacheTTL: time.Minute}

func rankingUsers() []model.User {
	return []model.User{
		{ID: "u1", FullName: "Silva", Username: "silva"},
		{ID: "u2", FullName: "Souza", Username: "souza"},
		{ID: "u3", FullName: "Lima", Username: "lima"},
	}
}

// seedActivity one approved 90 minute shift crewed by u1 and u2, one active
// shift, and two approved reports.
func seedActivity(t *testing.T, mocks *mockRepos) {
	t.Helper()
	c, _ := lifecycle.Close(t0, t0.Add(90*time.Minute))
	approved := model.Shift{
		StartedBy:      "silva",
		VehiclePrefix:  "BPC-1",
		Members:        model.JSONB(`{"boat_chief":{"id":"u1"},"driver":{"id":"u2"},"aux_1":{"id":"x9"}}`),
		StartTime:      t0,
		ApprovalStatus: model.ApprovalApproved,
	}
	applyClosure(&approved, c)
	mocks.shift.put(approved)
	mocks.shift.put(model.Shift{StartedBy: "lima", StartTime: t0, Status: model.ShiftStatusActive, ApprovalStatus: model.ApprovalPending})

	ctx := context.Background()
	for _, r := range []*model.Report{
		{Members: model.JSONB(`[{"id":"u1"},{"id":"u3"}]`), Bombs: model.JSONB(`3`), Status: model.ApprovalApproved},
		{Members: model.JSONB(`[{"id":"u3"}]`), Weapons: model.JSONB(`["a","b"]`), Status: model.ApprovalApproved},
		{Members: model.JSONB(`[{"id":"u2"}]`), Bombs: model.JSONB(`50`), Status: model.ApprovalPending},
	} {
		if err := mocks.report.Create(ctx, r); err != nil {
			t.Fatalf("seed report: %v", err)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// Reads
// ═══════════════════════════════════════════════════════════

func TestRankingService_ColdReadComputes(t *testing.T) {
	repo, mocks := newMockRepository(rankingUsers()...)
	seedActivity(t, mocks)
	m := metrics.New(prometheus.NewRegistry())
	svc := NewRankingService(repo, nil, rankingCfg, m, testLogger())
	ctx := context.Background()

	hours, err := svc.HoursRanking(ctx)
	if err != nil {
		t.Fatalf("HoursRanking: %v", err)
	}
	if len(hours.Entries) != 3 {
		t.Fatalf("expected 3 hours entries, got %d", len(hours.Entries))
	}
	if e := hours.Entries[0]; e.UserID != "u1" || e.TotalHours != 1.5 {
		t.Errorf("first hours entry = %+v", e)
	}
	if hours.Entries[1].UserID != "u2" {
		t.Errorf("second hours entry = %s, want u2", hours.Entries[1].UserID)
	}
	if hours.Entries[2].TotalSeconds != 0 {
		t.Errorf("u3 served no shift, got %d seconds", hours.Entries[2].TotalSeconds)
	}

	items, err := svc.ItemsRanking(ctx, 0)
	if err != nil {
		t.Fatalf("ItemsRanking: %v", err)
	}
	if items.Total != 2 || len(items.Entries) != 2 {
		t.Fatalf("items total=%d entries=%d, want 2/2", items.Total, len(items.Entries))
	}
	if e := items.Entries[0]; e.UserID != "u3" || e.TotalItems != 5 || e.Name != "Lima" {
		t.Errorf("first items entry = %+v", e)
	}

	dash, err := svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if dash.ActiveShifts != 1 {
		t.Errorf("ActiveShifts = %d, want 1", dash.ActiveShifts)
	}
	if dash.ApprovedShifts != 1 || dash.ApprovedReports != 2 {
		t.Errorf("approved shifts/reports = %d/%d, want 1/2", dash.ApprovedShifts, dash.ApprovedReports)
	}
	if dash.TotalItems != 5 || dash.ActiveMembers != 2 {
		t.Errorf("items/members = %v/%d, want 5/2", dash.TotalItems, dash.ActiveMembers)
	}

	if got := testutil.ToFloat64(m.ActiveShifts); got != 1 {
		t.Errorf("active shifts gauge = %v, want 1", got)
	}
}

func TestRankingService_ItemsLimitIsCapped(t *testing.T) {
	repo, mocks := newMockRepository(rankingUsers()...)
	seedActivity(t, mocks)
	svc := NewRankingService(repo, nil, config.RankingConfig{ItemsLimit: 1}, nil, testLogger())

	items, err := svc.ItemsRanking(context.Background(), 50)
	if err != nil {
		t.Fatalf("ItemsRanking: %v", err)
	}
	if len(items.Entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(items.Entries))
	}
	if items.Total != 2 {
		t.Errorf("Total = %d, want the uncapped 2", items.Total)
	}
}

func TestRankingService_ColdReadOutlivesCallerContext(t *testing.T) {
	repo, mocks := newMockRepository(rankingUsers()...)
	seedActivity(t, mocks)
	svc := NewRankingService(repo, nil, rankingCfg, nil, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hours, err := svc.HoursRanking(ctx)
	if err != nil {
		t.Fatalf("a caller that left must not fail the shared computation: %v", err)
	}
	if len(hours.Entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(hours.Entries))
	}
}

// ═══════════════════════════════════════════════════════════
// Refresh
// ═══════════════════════════════════════════════════════════

func TestRankingService_FailedRefreshKeepsSnapshot(t *testing.T) {
	repo, mocks := newMockRepository(rankingUsers()...)
	seedActivity(t, mocks)
	svc := NewRankingService(repo, nil, rankingCfg, nil, testLogger())
	ctx := context.Background()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	before, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	mocks.shift.listErr = errors.New("connection reset")
	if err := svc.Refresh(ctx); err == nil {
		t.Error("expected refresh error")
	}

	after, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if after != before {
		t.Error("a failed refresh must keep the previous snapshot")
	}
}

func TestRankingService_ColdReadFailsWithoutSnapshot(t *testing.T) {
	repo, mocks := newMockRepository(rankingUsers()...)
	mocks.user.err = errors.New("connection reset")
	svc := NewRankingService(repo, nil, rankingCfg, nil, testLogger())

	if _, err := svc.HoursRanking(context.Background()); err == nil {
		t.Error("expected error when nothing was ever computed")
	}
}

func TestRankingService_SharedCache(t *testing.T) {
	s := miniredis.RunT(t)
	cache, err := redis.NewClient(&config.RedisConfig{Addr: s.Addr()}, testLogger())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	ctx := context.Background()

	repo, mocks := newMockRepository(rankingUsers()...)
	seedActivity(t, mocks)
	writer := NewRankingService(repo, cache, rankingCfg, nil, testLogger())
	if err := writer.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !s.Exists(snapshotKey) {
		t.Fatal("snapshot not written to the cache")
	}

	// a fresh instance whose store is unreachable serves the cached projection
	emptyRepo, emptyMocks := newMockRepository()
	emptyMocks.user.err = errors.New("connection reset")
	reader := NewRankingService(emptyRepo, cache, rankingCfg, nil, testLogger())

	hours, err := reader.HoursRanking(ctx)
	if err != nil {
		t.Fatalf("HoursRanking: %v", err)
	}
	if len(hours.Entries) != 3 || hours.Entries[0].UserID != "u1" {
		t.Errorf("cached ranking = %+v", hours.Entries)
	}
}
