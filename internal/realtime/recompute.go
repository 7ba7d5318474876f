package realtime

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RefreshFunc recomputes every projection from the store. On error the
// previous projection must stay in place.
type RefreshFunc func(ctx context.Context) error

// resubscribeDelay wait before re-opening a feed subscription that failed or
// closed while the pipeline is still running.
const resubscribeDelay = 5 * time.Second

// Recomputer turns change events into full recomputations. Bursts of events
// within the debounce window collapse into one refresh; a refresh is never
// run concurrently with another.
type Recomputer struct {
	feed     Feed
	refresh  RefreshFunc
	debounce time.Duration
	logger   *zap.Logger
	trigger  chan struct{}

	// resubscribe defaults to resubscribeDelay.
	resubscribe time.Duration
}

// NewRecomputer creates a Recomputer. Nothing runs until Run is called.
func NewRecomputer(feed Feed, refresh RefreshFunc, debounce time.Duration, logger *zap.Logger) *Recomputer {
	return &Recomputer{
		feed:     feed,
		refresh:  refresh,
		debounce: debounce,
		logger:   logger,
		trigger:  make(chan struct{}, 1),

		resubscribe: resubscribeDelay,
	}
}

// Trigger schedules a refresh as if a change had been observed.
func (r *Recomputer) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

// Run refreshes once, then follows the feed until ctx is cancelled. A feed
// that cannot be subscribed to is retried every resubscribeDelay; triggers
// still refresh in the meantime.
func (r *Recomputer) Run(ctx context.Context) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
		retry <-chan time.Time
	)

	events, err := r.feed.Subscribe(ctx, TableShifts, TableReports, TableUsers)
	if err != nil {
		r.logger.Warn("change feed subscribe failed, retrying", zap.Duration("after", r.resubscribe), zap.Error(err))
		events = nil
		retry = time.After(r.resubscribe)
	}

	r.runRefresh(ctx)

	arm := func() {
		if fire != nil {
			return
		}
		timer = time.NewTimer(r.debounce)
		fire = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				r.logger.Warn("change feed closed, resubscribing", zap.Duration("after", r.resubscribe))
				events = nil
				retry = time.After(r.resubscribe)
				continue
			}
			arm()

		case <-retry:
			retry = nil
			ch, err := r.feed.Subscribe(ctx, TableShifts, TableReports, TableUsers)
			if err != nil {
				r.logger.Warn("resubscribe failed", zap.Error(err))
				retry = time.After(r.resubscribe)
				continue
			}
			events = ch
			// changes may have been missed while unsubscribed
			arm()

		case <-r.trigger:
			arm()

		case <-fire:
			timer, fire = nil, nil
			r.runRefresh(ctx)
		}
	}
}

func (r *Recomputer) runRefresh(ctx context.Context) {
	if err := r.refresh(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("ranking refresh failed, keeping last projection", zap.Error(err))
	}
}
