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

// ApprovalHandler staff review of shifts and reports.
type ApprovalHandler struct {
	approvalSvc service.ApprovalService
}

// NewApprovalHandler creates an ApprovalHandler.
func NewApprovalHandler(approvalSvc service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalSvc: approvalSvc}
}

// ListShifts shifts awaiting or past review.
// GET /api/v1/approvals/shifts?status=&approval_status=&page=&page_size=
func (h *ApprovalHandler) ListShifts(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ShiftListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, total, err := h.approvalSvc.ListShifts(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleApprovalError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// TransitionShift approve, reject or reopen a shift.
// POST /api/v1/approvals/shifts/:id/:action
func (h *ApprovalHandler) TransitionShift(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	action, err := lifecycle.ParseAction(c.Param("action"))
	if err != nil {
		h.handleApprovalError(c, err)
		return
	}

	resp, err := h.approvalSvc.TransitionShift(c.Request.Context(), actor, c.Param("id"), action)
	if err != nil {
		h.handleApprovalError(c, err)
		return
	}
	response.OK(c, resp)
}

// ListReports reports awaiting or past review.
// GET /api/v1/approvals/reports?status=&page=&page_size=
func (h *ApprovalHandler) ListReports(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.ReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	list, total, err := h.approvalSvc.ListReports(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleApprovalError(c, err)
		return
	}
	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// TransitionReport approve, reject or reopen a report.
// POST /api/v1/approvals/reports/:id/:action
func (h *ApprovalHandler) TransitionReport(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	action, err := lifecycle.ParseAction(c.Param("action"))
	if err != nil {
		h.handleApprovalError(c, err)
		return
	}

	resp, err := h.approvalSvc.TransitionReport(c.Request.Context(), actor, c.Param("id"), action)
	if err != nil {
		h.handleApprovalError(c, err)
		return
	}
	response.OK(c, resp)
}

// AuditTrail transitions recorded for one shift or report.
// GET /api/v1/approvals/:type/:id/audit
func (h *ApprovalHandler) AuditTrail(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	recordType := c.Param("type")
	switch recordType {
	case "shifts":
		recordType = "shift"
	case "reports":
		recordType = "report"
	}

	resp, err := h.approvalSvc.AuditTrail(c.Request.Context(), actor, recordType, c.Param("id"))
	if err != nil {
		h.handleApprovalError(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *ApprovalHandler) handleApprovalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrUnknownAction):
		response.BadRequest(c, 23001, "unknown action, use approve, reject or reopen")
	case errors.Is(err, lifecycle.ErrBlockedAction):
		response.ErrorWithDetails(c, http.StatusConflict, 23002, "action not allowed in the current state", err.Error())
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 23003, "shift not found")
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, 23004, "report not found")
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, 23005, "record was changed concurrently, reload and retry")
	case errors.Is(err, service.ErrUnknownRecordType):
		response.BadRequest(c, 23006, "unknown record type")
	case errors.Is(err, lifecycle.ErrClockAnomaly):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, 23007, "shift end precedes its start")
	default:
		handleCommonError(c, err)
	}
}
