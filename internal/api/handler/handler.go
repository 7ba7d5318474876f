package handler

import "github.com/lyipi/4bpchoquecoe/internal/service"

// Handler aggregate of every handler.
type Handler struct {
	Shift    *ShiftHandler
	Report   *ReportHandler
	Approval *ApprovalHandler
	Ranking  *RankingHandler
	User     *UserHandler
	Export   *ExportHandler
}

// NewHandler creates the handlers.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Shift:    NewShiftHandler(svc.Shift),
		Report:   NewReportHandler(svc.Report),
		Approval: NewApprovalHandler(svc.Approval),
		Ranking:  NewRankingHandler(svc.Ranking),
		User:     NewUserHandler(svc.User),
		Export:   NewExportHandler(svc.Export),
	}
}
