package service

import (
	"encoding/json"
	"time"

	"github.com/lyipi/4bpchoquecoe/internal/dto"
	"github.com/lyipi/4bpchoquecoe/internal/lifecycle"
	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/ranking"
)

func toRoster(in map[string]dto.MemberInput) model.Roster {
	r := make(model.Roster, len(in))
	for slot, m := range in {
		r[slot] = model.Member{ID: m.ID, Name: m.Name, Rank: m.Rank}
	}
	return r
}

func rosterSlots(layout lifecycle.Layout, roster model.Roster) []dto.RosterSlot {
	out := make([]dto.RosterSlot, len(layout))
	for i, s := range layout {
		out[i] = dto.RosterSlot{Key: s.Key, Label: s.Label, Required: s.Required}
		if m, ok := roster[s.Key]; ok && m.ID != "" {
			out[i].Member = &dto.MemberInput{ID: m.ID, Name: m.Name, Rank: m.Rank}
		}
	}
	return out
}

// toShiftResponse lays the roster out by slot. Legacy list-shaped rosters are
// not slot addressed and show every slot empty.
func toShiftResponse(s *model.Shift, at time.Time) *dto.ShiftResponse {
	roster, err := s.Roster()
	if err != nil {
		roster = model.Roster{}
	}
	resp := &dto.ShiftResponse{
		ID:              s.ID,
		StartedBy:       s.StartedBy,
		VehiclePrefix:   s.VehiclePrefix,
		Roster:          rosterSlots(lifecycle.ShiftLayout, roster),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationSeconds: s.DurationSeconds,
		FinalDuration:   s.FinalDuration,
		Status:          s.Status,
		ApprovalStatus:  s.ApprovalStatus,
		ReviewedBy:      s.ReviewedBy,
		ReviewedAt:      s.ReviewedAt,
	}
	if s.Status == model.ShiftStatusActive {
		d := at.Sub(s.StartTime)
		resp.Elapsed = lifecycle.FormatElapsed(d)
		if d > 0 {
			resp.ElapsedSeconds = int64(d / time.Second)
		}
	}
	return resp
}

func toShiftResponses(shifts []model.Shift, at time.Time) []dto.ShiftResponse {
	out := make([]dto.ShiftResponse, len(shifts))
	for i := range shifts {
		out[i] = *toShiftResponse(&shifts[i], at)
	}
	return out
}

func toReportResponse(r *model.Report) *dto.ReportResponse {
	p := ranking.PayloadOf(*r)

	members := make([]dto.ReportMember, len(p.Members))
	for i, m := range p.Members {
		members[i] = dto.ReportMember{ID: m.ID, Name: m.Name, Rank: m.Rank, Role: m.Role}
	}

	raw := make(map[string]json.RawMessage)
	for key, col := range map[string]model.JSONB{
		"occurrences":  r.Occurrences,
		"detained":     r.Detained,
		"bombs":        r.Bombs,
		"lockpicks":    r.Lockpicks,
		"ammo":         r.Ammo,
		"ammunition":   r.Ammunition,
		"municao":      r.Municao,
		"weapons":      r.Weapons,
		"drugs":        r.Drugs,
		"marked_money": r.MarkedMoney,
	} {
		if !col.IsNull() {
			raw[key] = col.Raw()
		}
	}
	payload, _ := json.Marshal(raw)

	return &dto.ReportResponse{
		ID:         r.ID,
		UserID:     r.UserID,
		Author:     r.Author,
		AuthorRank: r.AuthorRank,
		UnitPrefix: r.UnitPrefix,
		Members:    members,
		Payload:    payload,
		Totals: dto.ReportTotals{
			Occurrences: p.Occurrences,
			Detained:    p.Detained,
			Bombs:       p.Bombs,
			Lockpicks:   p.Lockpicks,
			Ammo:        p.Ammo,
			Weapons:     p.Weapons,
			Drugs:       p.Drugs,
			Money:       p.Money,
			TotalItems:  p.TotalItems(),
		},
		Actions:    r.Actions,
		Status:     r.Status,
		ReviewedBy: r.ReviewedBy,
		ReviewedAt: r.ReviewedAt,
		CreatedAt:  r.CreatedAt,
	}
}

func toReportResponses(reports []model.Report) []dto.ReportResponse {
	out := make([]dto.ReportResponse, len(reports))
	for i := range reports {
		out[i] = *toReportResponse(&reports[i])
	}
	return out
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID,
		FullName: u.FullName,
		Username: u.Username,
		Role:     u.Role,
		Rank:     u.Rank,
	}
}
