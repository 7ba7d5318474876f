// Package realtime carries per-table change notifications and drives the
// ranking recomputation from them.
package realtime

import (
	"context"
	"time"
)

// Watched tables.
const (
	TableShifts  = "shifts"
	TableReports = "reports"
	TableUsers   = "users"
)

// Change types.
const (
	TypeInsert = "insert"
	TypeUpdate = "update"
	TypeDelete = "delete"
)

// Event one committed change.
type Event struct {
	Table    string    `json:"table"`
	Type     string    `json:"type"`
	RecordID string    `json:"record_id"`
	At       time.Time `json:"at"`
}

// Publisher announces committed changes.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Feed a publisher that can also be subscribed to.
//
// Subscribe delivers events for the given tables until ctx is done, then
// closes the channel. Delivery is at-most-once; consumers treat every event as
// "something changed" and re-read the store.
type Feed interface {
	Publisher
	Subscribe(ctx context.Context, tables ...string) (<-chan Event, error)
}
