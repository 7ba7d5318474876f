package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lyipi/4bpchoquecoe/internal/dto"
	"github.com/lyipi/4bpchoquecoe/internal/service"
	"github.com/lyipi/4bpchoquecoe/pkg/response"
)

// RankingHandler leaderboards and the dashboard.
type RankingHandler struct {
	rankingSvc service.RankingService
}

// NewRankingHandler creates a RankingHandler.
func NewRankingHandler(rankingSvc service.RankingService) *RankingHandler {
	return &RankingHandler{rankingSvc: rankingSvc}
}

// Hours hours ranking of every directory user.
// GET /api/v1/rankings/hours
func (h *RankingHandler) Hours(c *gin.Context) {
	resp, err := h.rankingSvc.HoursRanking(c.Request.Context())
	if err != nil {
		h.handleRankingError(c, err)
		return
	}
	response.OK(c, resp)
}

// Items seized items ranking.
// GET /api/v1/rankings/items?limit=
func (h *RankingHandler) Items(c *gin.Context) {
	var req dto.ItemsRankingRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "limit must be between 1 and 1000")
		return
	}

	resp, err := h.rankingSvc.ItemsRanking(c.Request.Context(), req.Limit)
	if err != nil {
		h.handleRankingError(c, err)
		return
	}
	response.OK(c, resp)
}

// Dashboard battalion totals.
// GET /api/v1/dashboard
func (h *RankingHandler) Dashboard(c *gin.Context) {
	resp, err := h.rankingSvc.Dashboard(c.Request.Context())
	if err != nil {
		h.handleRankingError(c, err)
		return
	}
	response.OK(c, resp)
}

// handleRankingError a ranking is only unavailable before the first
// successful computation.
func (h *RankingHandler) handleRankingError(c *gin.Context, err error) {
	_ = c.Error(err)
	response.Unavailable(c, 24001, "rankings are not available yet, try again")
}
