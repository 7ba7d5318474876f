package ranking

import (
	"sort"

	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/normalize"
)

// UnknownName shown when neither the report nor the directory names a member.
const UnknownName = "Unknown"

// Breakdown per-category seized item totals.
type Breakdown struct {
	Bombs     float64 `json:"bombs"`
	Lockpicks float64 `json:"lockpicks"`
	Detained  float64 `json:"detained"`
	Weapons   float64 `json:"weapons"`
	Drugs     float64 `json:"drugs"`
	Ammo      float64 `json:"ammo"`
	Money     float64 `json:"money"`
}

func (b *Breakdown) add(p normalize.Payload) {
	b.Bombs += p.Bombs
	b.Lockpicks += p.Lockpicks
	b.Detained += p.Detained
	b.Weapons += p.Weapons
	b.Drugs += p.Drugs
	b.Ammo += p.Ammo
	b.Money += p.Money
}

// ItemsEntry one member's standing in the seized items ranking.
type ItemsEntry struct {
	Position   int       `json:"position"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	TotalItems float64   `json:"total_items"`
	Reports    int       `json:"reports"`
	Breakdown  Breakdown `json:"item_breakdown"`
}

// PayloadOf normalizes a stored report.
func PayloadOf(r model.Report) normalize.Payload {
	return normalize.Normalize(normalize.Fields{
		Occurrences: r.Occurrences,
		Detained:    r.Detained,
		Bombs:       r.Bombs,
		Lockpicks:   r.Lockpicks,
		Ammo:        r.Ammo,
		Ammunition:  r.Ammunition,
		Municao:     r.Municao,
		Weapons:     r.Weapons,
		Drugs:       r.Drugs,
		MarkedMoney: r.MarkedMoney,
		Members:     r.Members,
	})
}

// Items credits every member entry of every approved report with that report's
// items, so a member listed twice is credited twice. Entries are created on
// first sight; ties keep first-seen order.
func Items(reports []model.Report, users []model.User) []ItemsEntry {
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.DisplayName()
	}

	var entries []*ItemsEntry
	index := make(map[string]*ItemsEntry)
	for _, r := range reports {
		if r.Status != model.ApprovalApproved {
			continue
		}
		p := PayloadOf(r)
		total := p.TotalItems()
		for _, m := range p.Members {
			e, ok := index[m.ID]
			if !ok {
				e = &ItemsEntry{UserID: m.ID, Name: memberName(m, names)}
				index[m.ID] = e
				entries = append(entries, e)
			}
			e.TotalItems += total
			e.Reports++
			e.Breakdown.add(p)
		}
	}

	out := make([]ItemsEntry, len(entries))
	for i, e := range entries {
		out[i] = *e
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].TotalItems > out[b].TotalItems
	})
	for i := range out {
		out[i].Position = i + 1
	}
	return out
}

// Top caps a ranking for display. Totals are unaffected.
func Top(entries []ItemsEntry, n int) []ItemsEntry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[:n]
}

func memberName(m normalize.Member, directory map[string]string) string {
	if m.Name != "" {
		return m.Name
	}
	if n := directory[m.ID]; n != "" {
		return n
	}
	return UnknownName
}
