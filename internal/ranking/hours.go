// Package ranking derives read-only leaderboards from the activity log.
//
// All functions are full recomputations over the records they are given and
// are deterministic: the same input slice yields the same ordering.
package ranking

import (
	"math"
	"sort"

	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/normalize"
)

// HoursEntry one user's standing in the hours ranking.
type HoursEntry struct {
	Position     int     `json:"position"`
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	TotalSeconds int64   `json:"total_seconds"`
	TotalHours   float64 `json:"total_hours"`
	Shifts       int     `json:"shifts"`
}

type shiftKey struct {
	startedBy string
	start     int64
	prefix    string
}

// DedupShifts keeps approved shifts with a duration, dropping later records
// that repeat (startedBy, startTime, vehiclePrefix).
func DedupShifts(shifts []model.Shift) []model.Shift {
	seen := make(map[shiftKey]struct{}, len(shifts))
	out := make([]model.Shift, 0, len(shifts))
	for _, s := range shifts {
		if s.ApprovalStatus != model.ApprovalApproved || s.DurationSeconds == nil {
			continue
		}
		k := shiftKey{startedBy: s.StartedBy, start: s.StartTime.UnixMicro(), prefix: s.VehiclePrefix}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Hours distributes approved shift durations to the directory users who
// served on them.
//
// Every user is ranked, including those without shifts. Members that are not
// directory users are skipped. Ordering is by total seconds descending; ties
// keep the order of users as given.
func Hours(users []model.User, shifts []model.Shift) []HoursEntry {
	entries := make([]HoursEntry, len(users))
	index := make(map[string]int, len(users))
	for i, u := range users {
		entries[i] = HoursEntry{UserID: u.ID, Name: u.DisplayName(), Username: u.Username}
		index[u.ID] = i
	}

	for _, s := range DedupShifts(shifts) {
		duration := *s.DurationSeconds
		// a member listed in two slots is credited for each entry
		for _, m := range normalize.Members(normalize.Decode(s.Members)) {
			i, ok := index[m.ID]
			if !ok {
				continue
			}
			entries[i].TotalSeconds += duration
			entries[i].Shifts++
		}
	}

	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].TotalSeconds > entries[b].TotalSeconds
	})
	for i := range entries {
		entries[i].Position = i + 1
		entries[i].TotalHours = hours(entries[i].TotalSeconds)
	}
	return entries
}

// hours seconds → hours rounded to two decimals, display only.
func hours(seconds int64) float64 {
	return math.Round(float64(seconds)/3600*100) / 100
}
