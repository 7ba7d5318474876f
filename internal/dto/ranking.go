package dto

import (
	"time"

	"github.com/lyipi/4bpchoquecoe/internal/ranking"
)

// ItemsRankingRequest items ranking query.
type ItemsRankingRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=1000"`
}

// HoursRankingResponse hours leaderboard.
type HoursRankingResponse struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Entries     []ranking.HoursEntry `json:"entries"`
}

// ItemsRankingResponse items leaderboard. Total counts every ranked member
// before the display cap.
type ItemsRankingResponse struct {
	GeneratedAt time.Time            `json:"generated_at"`
	Total       int                  `json:"total"`
	Entries     []ranking.ItemsEntry `json:"entries"`
}

// DashboardResponse battalion summary.
type DashboardResponse struct {
	GeneratedAt  time.Time `json:"generated_at"`
	ActiveShifts int64     `json:"active_shifts"`
	ranking.Dashboard
}
