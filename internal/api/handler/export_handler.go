package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/lyipi/4bpchoquecoe/internal/service"
	"github.com/lyipi/4bpchoquecoe/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler file downloads.
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler creates an ExportHandler.
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

type exportFunc func(ctx context.Context, actor service.Actor) (*bytes.Buffer, string, error)

// Shifts GET /api/v1/export/shifts.xlsx
func (h *ExportHandler) Shifts(c *gin.Context) { h.serve(c, h.exportSvc.ExportShifts, contentTypeXLSX) }

// Reports GET /api/v1/export/reports.xlsx
func (h *ExportHandler) Reports(c *gin.Context) { h.serve(c, h.exportSvc.ExportReports, contentTypeXLSX) }

// Hours GET /api/v1/export/hours.xlsx
func (h *ExportHandler) Hours(c *gin.Context) { h.serve(c, h.exportSvc.ExportHours, contentTypeXLSX) }

// Items GET /api/v1/export/items.xlsx
func (h *ExportHandler) Items(c *gin.Context) { h.serve(c, h.exportSvc.ExportItems, contentTypeXLSX) }

// ShiftCalendar the caller's completed shifts as iCalendar.
// GET /api/v1/shifts/history.ics
func (h *ExportHandler) ShiftCalendar(c *gin.Context) {
	h.serve(c, h.exportSvc.ShiftCalendar, contentTypeICS)
}

func (h *ExportHandler) serve(c *gin.Context, export exportFunc, contentType string) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	buf, filename, err := export(c.Request.Context(), actor)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportEmpty):
		response.NotFound(c, 25001, "nothing to export")
	case errors.Is(err, service.ErrExportGenerateFail):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, 25002, "failed to generate export file")
	default:
		handleCommonError(c, err)
	}
}
