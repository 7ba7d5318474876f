package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lyipi/4bpchoquecoe/internal/dto"
	"github.com/lyipi/4bpchoquecoe/internal/lifecycle"
	"github.com/lyipi/4bpchoquecoe/internal/service"
	"github.com/lyipi/4bpchoquecoe/pkg/response"
)

// ReportHandler incident reports.
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// Submit files a report for review.
// POST /api/v1/reports
func (h *ReportHandler) Submit(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.SubmitReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	resp, err := h.reportSvc.Submit(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.Created(c, resp)
}

// ListMine the caller's reports.
// GET /api/v1/reports/mine?status=&page=&page_size=
func (h *ReportHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, total, err := h.reportSvc.ListMine(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Get one report.
// GET /api/v1/reports/:id
func (h *ReportHandler) Get(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.reportSvc.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, resp)
}

// Delete removes one of the caller's reports.
// DELETE /api/v1/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.reportSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.handleReportError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrMissingUnitTag):
		response.BadRequest(c, 22001, "unit prefix is required")
	case errors.Is(err, lifecycle.ErrIncompleteRoster):
		response.ErrorWithDetails(c, http.StatusBadRequest, 22002, "required team slots are not filled", err.Error())
	case errors.Is(err, lifecycle.ErrDuplicateMember):
		response.ErrorWithDetails(c, http.StatusBadRequest, 22003, "member already assigned to another slot", err.Error())
	case errors.Is(err, lifecycle.ErrUnknownSlot):
		response.BadRequest(c, 22004, "unknown team slot")
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, 22005, "report not found")
	case errors.Is(err, service.ErrNotReportOwner):
		response.Forbidden(c, 22006, "only the author can delete a report")
	default:
		handleCommonError(c, err)
	}
}
