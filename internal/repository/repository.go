package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lyipi/4bpchoquecoe/internal/realtime"
	pkgerrors "github.com/lyipi/4bpchoquecoe/pkg/errors"
)

// Repository aggregate of every repository.
type Repository struct {
	User   UserRepository
	Shift  ShiftRepository
	Report ReportRepository
	Audit  AuditRepository
}

// NewRepository builds the repositories over db. Every call is bounded by
// timeout; committed writes are announced on feed (may be nil).
func NewRepository(db *gorm.DB, timeout time.Duration, feed realtime.Publisher, logger *zap.Logger) *Repository {
	s := &store{db: db, timeout: timeout, feed: feed, logger: logger}
	return &Repository{
		User:   &userRepo{store: s},
		Shift:  &shiftRepo{store: s},
		Report: &reportRepo{store: s},
		Audit:  &auditRepo{store: s},
	}
}

// store state shared by the gorm repositories.
type store struct {
	db      *gorm.DB
	timeout time.Duration
	feed    realtime.Publisher
	logger  *zap.Logger
}

// conn a session bound to ctx under the store timeout.
func (s *store) conn(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	if s.timeout <= 0 {
		return s.db.WithContext(ctx), func() {}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

// wrap turns infrastructure failures into StoreError. Outcomes callers branch
// on (not found, unique violation, lost conditional update) pass through.
func wrap(op, table string, err error) error {
	if err == nil ||
		errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, gorm.ErrDuplicatedKey) ||
		errors.Is(err, pkgerrors.ErrOptimisticLock) {
		return err
	}
	return pkgerrors.Store(op, table, err)
}

// publish announces a committed write. The write already succeeded, so a feed
// failure is logged and swallowed.
func (s *store) publish(ctx context.Context, table, typ, id string) {
	if s.feed == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout())
	defer cancel()
	ev := realtime.Event{Table: table, Type: typ, RecordID: id, At: time.Now().UTC()}
	if err := s.feed.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish change event failed",
			zap.String("table", table), zap.String("id", id), zap.Error(err))
	}
}

func (s *store) publishTimeout() time.Duration {
	if s.timeout > 0 {
		return s.timeout
	}
	return 5 * time.Second
}
