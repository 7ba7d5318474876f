package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/lyipi/4bpchoquecoe/config"
	"github.com/lyipi/4bpchoquecoe/internal/dto"
	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/ranking"
	"github.com/lyipi/4bpchoquecoe/internal/repository"
	"github.com/lyipi/4bpchoquecoe/pkg/metrics"
)

// snapshotKey cache key of the last published projection.
const snapshotKey = "bpc:ranking:snapshot"

// coldRefreshTimeout bounds the first computation on a cold instance.
const coldRefreshTimeout = 30 * time.Second

// SnapshotCache shared cache for the ranking projection. *redis.Client
// satisfies it.
type SnapshotCache interface {
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
	GetJSON(ctx context.Context, key string, dst interface{}) error
}

// Snapshot one complete recomputation of every ranking.
type Snapshot struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	ActiveShifts int64                `json:"active_shifts"`
	Hours        []ranking.HoursEntry `json:"hours"`
	Items        []ranking.ItemsEntry `json:"items"`
	Dashboard    ranking.Dashboard    `json:"dashboard"`
}

// RankingService read-only leaderboards and the dashboard.
//
// Reads are served from the last computed snapshot. Refresh replaces it as a
// whole; a failed refresh keeps the previous snapshot. The first read on a
// cold instance takes the shared cache, or computes once for every waiting
// caller.
type RankingService interface {
	HoursRanking(ctx context.Context) (*dto.HoursRankingResponse, error)
	// ItemsRanking top limit members; limit <= 0 applies the configured cap.
	ItemsRanking(ctx context.Context, limit int) (*dto.ItemsRankingResponse, error)
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
	// Snapshot the full current projection.
	Snapshot(ctx context.Context) (*Snapshot, error)
	// Refresh recomputes from the store and publishes the result.
	Refresh(ctx context.Context) error
}

type rankingService struct {
	repo    *repository.Repository
	cache   SnapshotCache
	cfg     config.RankingConfig
	metrics *metrics.Metrics
	logger  *zap.Logger

	current atomic.Pointer[Snapshot]
	group   singleflight.Group
}

// NewRankingService creates a RankingService. cache may be nil.
func NewRankingService(
	repo *repository.Repository,
	cache SnapshotCache,
	cfg config.RankingConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) RankingService {
	return &rankingService{repo: repo, cache: cache, cfg: cfg, metrics: m, logger: logger}
}

// ────────────────────── Reads ──────────────────────

func (s *rankingService) HoursRanking(ctx context.Context) (*dto.HoursRankingResponse, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.HoursRankingResponse{GeneratedAt: snap.GeneratedAt, Entries: snap.Hours}, nil
}

func (s *rankingService) ItemsRanking(ctx context.Context, limit int) (*dto.ItemsRankingResponse, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > s.cfg.ItemsLimit {
		limit = s.cfg.ItemsLimit
	}
	return &dto.ItemsRankingResponse{
		GeneratedAt: snap.GeneratedAt,
		Total:       len(snap.Items),
		Entries:     ranking.Top(snap.Items, limit),
	}, nil
}

func (s *rankingService) Dashboard(ctx context.Context) (*dto.DashboardResponse, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.DashboardResponse{
		GeneratedAt:  snap.GeneratedAt,
		ActiveShifts: snap.ActiveShifts,
		Dashboard:    snap.Dashboard,
	}, nil
}

func (s *rankingService) Snapshot(ctx context.Context) (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	v, err, _ := s.group.Do("cold", func() (interface{}, error) {
		if snap := s.current.Load(); snap != nil {
			return snap, nil
		}
		// shared by every waiting caller; the first one leaving must not end it
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), coldRefreshTimeout)
		defer cancel()

		if snap := s.fromCache(ctx); snap != nil {
			s.current.CompareAndSwap(nil, snap)
			return s.current.Load(), nil
		}
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
		return s.current.Load(), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (s *rankingService) fromCache(ctx context.Context) *Snapshot {
	if s.cache == nil {
		return nil
	}
	var snap Snapshot
	if err := s.cache.GetJSON(ctx, snapshotKey, &snap); err != nil {
		return nil
	}
	s.logger.Debug("ranking snapshot loaded from cache", zap.Time("generated_at", snap.GeneratedAt))
	return &snap
}

// ────────────────────── Recompute ──────────────────────

func (s *rankingService) Refresh(ctx context.Context) (err error) {
	started := time.Now()
	defer func() { s.metrics.Recompute(time.Since(started).Seconds(), err) }()

	var (
		users   []model.User
		shifts  []model.Shift
		reports []model.Report
		active  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.repo.User.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		shifts, err = s.repo.Shift.ListApprovedWithDuration(gctx)
		return err
	})
	g.Go(func() (err error) {
		reports, err = s.repo.Report.ListApproved(gctx)
		return err
	})
	g.Go(func() (err error) {
		active, err = s.repo.Shift.CountActive(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("ranking recompute failed, keeping previous snapshot", zap.Error(err))
		return err
	}

	hours := ranking.Hours(users, shifts)
	snap := &Snapshot{
		GeneratedAt:  now(),
		ActiveShifts: active,
		Hours:        hours,
		Items:        ranking.Items(reports, users),
		Dashboard:    ranking.Summarize(hours, shifts, reports),
	}
	s.current.Store(snap)
	if s.metrics != nil {
		s.metrics.ActiveShifts.Set(float64(active))
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, snapshotKey, snap, s.cfg.CacheTTL); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Warn("cache ranking snapshot failed", zap.Error(err))
		}
	}

	s.logger.Debug("ranking recomputed",
		zap.Int("users", len(users)),
		zap.Int("shifts", len(shifts)),
		zap.Int("reports", len(reports)),
		zap.Duration("took", time.Since(started)),
	)
	return nil
}
