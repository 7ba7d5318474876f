package ranking

import (
	"math"

	"github.com/lyipi/4bpchoquecoe/internal/model"
)

// Dashboard battalion-wide totals.
type Dashboard struct {
	TotalSeconds    int64     `json:"total_seconds"`
	TotalHours      float64   `json:"total_hours"`
	ActiveMembers   int       `json:"active_members"`
	ApprovedShifts  int       `json:"approved_shifts"`
	ApprovedReports int       `json:"approved_reports"`
	Occurrences     float64   `json:"occurrences"`
	TotalItems      float64   `json:"total_items"`
	Items           Breakdown `json:"items"`
}

// Summarize reduces approved shifts and reports. Hours count once per shift,
// not once per crew member; active members are ranked users with any time.
func Summarize(hoursRanking []HoursEntry, shifts []model.Shift, reports []model.Report) Dashboard {
	var d Dashboard
	for _, s := range DedupShifts(shifts) {
		d.TotalSeconds += *s.DurationSeconds
		d.ApprovedShifts++
	}
	d.TotalHours = math.Round(float64(d.TotalSeconds)/3600*10) / 10

	for _, e := range hoursRanking {
		if e.TotalSeconds > 0 {
			d.ActiveMembers++
		}
	}

	for _, r := range reports {
		if r.Status != model.ApprovalApproved {
			continue
		}
		p := PayloadOf(r)
		d.ApprovedReports++
		d.Occurrences += p.Occurrences
		d.TotalItems += p.TotalItems()
		d.Items.add(p)
	}
	return d
}
