package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/lyipi/4bpchoquecoe/internal/model"
	"github.com/lyipi/4bpchoquecoe/internal/ranking"
	"github.com/lyipi/4bpchoquecoe/internal/repository"
)

// ── Export errors ──

var (
	ErrExportEmpty        = errors.New("nothing to export")
	ErrExportGenerateFail = errors.New("failed to generate export file")
)

// ExportService spreadsheet and calendar downloads.
//
// Files are returned as a buffer plus a suggested filename; the handler sets
// the response headers. Spreadsheets are staff only, the calendar covers the
// caller's own completed shifts.
type ExportService interface {
	ExportShifts(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
	ExportReports(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
	ExportHours(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
	ExportItems(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
	// ShiftCalendar iCalendar of the caller's completed shifts.
	ShiftCalendar(ctx context.Context, actor Actor) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo    *repository.Repository
	ranking RankingService
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService creates an ExportService.
func NewExportService(repo *repository.Repository, rankingSvc RankingService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, ranking: rankingSvc, logger: logger, now: now}
}

// ────────────────────── Spreadsheets ──────────────────────

func (s *exportService) ExportShifts(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	if !actor.CanApprove() {
		return nil, "", ErrForbidden
	}
	shifts, _, err := s.repo.Shift.List(ctx, repository.ShiftFilter{})
	if err != nil {
		s.logger.Error("load shifts for export failed", zap.Error(err))
		return nil, "", err
	}
	if len(shifts) == 0 {
		return nil, "", ErrExportEmpty
	}

	t := table{
		title:   "Shifts",
		headers: []string{"Start", "End", "Initiator", "Vehicle", "Duration", "Status", "Approval", "Reviewed by"},
		widths:  []float64{20, 20, 18, 14, 12, 12, 12, 18},
	}
	for _, sh := range shifts {
		t.rows = append(t.rows, []interface{}{
			formatTime(&sh.StartTime),
			formatTime(sh.EndTime),
			sh.StartedBy,
			sh.VehiclePrefix,
			deref(sh.FinalDuration),
			sh.Status,
			sh.ApprovalStatus,
			deref(sh.ReviewedBy),
		})
	}
	return s.write(t, "shifts")
}

func (s *exportService) ExportReports(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	if !actor.CanApprove() {
		return nil, "", ErrForbidden
	}
	reports, _, err := s.repo.Report.List(ctx, repository.ReportFilter{})
	if err != nil {
		s.logger.Error("load reports for export failed", zap.Error(err))
		return nil, "", err
	}
	if len(reports) == 0 {
		return nil, "", ErrExportEmpty
	}

	t := table{
		title: "Reports",
		headers: []string{"Created", "Author", "Rank", "Unit", "Status", "Occurrences", "Detained",
			"Bombs", "Lockpicks", "Weapons", "Drugs", "Ammo", "Money", "Total items", "Actions"},
		widths: []float64{20, 20, 12, 12, 12, 12, 10, 10, 10, 10, 10, 10, 14, 12, 40},
	}
	for _, r := range reports {
		p := ranking.PayloadOf(r)
		t.rows = append(t.rows, []interface{}{
			formatTime(&r.CreatedAt),
			r.Author,
			r.AuthorRank,
			r.UnitPrefix,
			r.Status,
			p.Occurrences,
			p.Detained,
			p.Bombs,
			p.Lockpicks,
			p.Weapons,
			p.Drugs,
			p.Ammo,
			p.Money,
			p.TotalItems(),
			r.Actions,
		})
	}
	return s.write(t, "reports")
}

func (s *exportService) ExportHours(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	if !actor.CanApprove() {
		return nil, "", ErrForbidden
	}
	snap, err := s.ranking.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(snap.Hours) == 0 {
		return nil, "", ErrExportEmpty
	}

	t := table{
		title:   "Hours ranking",
		headers: []string{"#", "Name", "Username", "Hours", "Shifts"},
		widths:  []float64{6, 28, 18, 10, 10},
	}
	for _, e := range snap.Hours {
		t.rows = append(t.rows, []interface{}{e.Position, e.Name, e.Username, e.TotalHours, e.Shifts})
	}
	return s.write(t, "hours_ranking")
}

func (s *exportService) ExportItems(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	if !actor.CanApprove() {
		return nil, "", ErrForbidden
	}
	snap, err := s.ranking.Snapshot(ctx)
	if err != nil {
		return nil, "", err
	}
	if len(snap.Items) == 0 {
		return nil, "", ErrExportEmpty
	}

	t := table{
		title: "Items ranking",
		headers: []string{"#", "Name", "Total items", "Reports", "Bombs", "Lockpicks", "Detained",
			"Weapons", "Drugs", "Ammo", "Money"},
		widths: []float64{6, 28, 12, 10, 10, 10, 10, 10, 10, 10, 14},
	}
	for _, e := range snap.Items {
		b := e.Breakdown
		t.rows = append(t.rows, []interface{}{e.Position, e.Name, e.TotalItems, e.Reports,
			b.Bombs, b.Lockpicks, b.Detained, b.Weapons, b.Drugs, b.Ammo, b.Money})
	}
	return s.write(t, "items_ranking")
}

// ── Workbook ──

type table struct {
	title   string
	headers []string
	widths  []float64
	rows    [][]interface{}
}

// write renders t as a single-sheet workbook: merged title row, header row,
// then one row per record.
func (s *exportService) write(t table, name string) (*bytes.Buffer, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.title
	idx, err := f.NewSheet(sheet)
	if err != nil {
		s.logger.Error("create sheet failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	for i, w := range t.widths {
		col := colName(i)
		f.SetColWidth(sheet, col, col, w)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	at := s.now()
	f.SetCellValue(sheet, "A1", fmt.Sprintf("%s (%s)", t.title, at.Format("2006-01-02 15:04 UTC")))
	f.MergeCell(sheet, "A1", cell(colName(len(t.headers)-1), 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	for i, h := range t.headers {
		f.SetCellValue(sheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheet, "A2", cell(colName(len(t.headers)-1), 2), headerStyle)

	for r, values := range t.rows {
		for c, v := range values {
			f.SetCellValue(sheet, cell(colName(c), r+3), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write workbook failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("%s_%s.xlsx", name, at.Format("20060102")), nil
}

// ────────────────────── Calendar ──────────────────────

func (s *exportService) ShiftCalendar(ctx context.Context, actor Actor) (*bytes.Buffer, string, error) {
	shifts, _, err := s.repo.Shift.List(ctx, repository.ShiftFilter{
		Status:    model.ShiftStatusCompleted,
		StartedBy: actor.Username,
	})
	if err != nil {
		s.logger.Error("load shifts for calendar failed", zap.String("actor", actor.Username), zap.Error(err))
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//4BPChoque//Duty portal//EN")
	cal.SetXWRCalName("Shifts " + actor.Username)

	stamp := s.now()
	for _, sh := range shifts {
		if sh.EndTime == nil {
			continue
		}
		event := cal.AddEvent(sh.ID + "@4bpchoque")
		event.SetDtStampTime(stamp)
		event.SetStartAt(sh.StartTime)
		event.SetEndAt(*sh.EndTime)
		event.SetSummary("Shift " + sh.VehiclePrefix)
		event.SetDescription(fmt.Sprintf("Duration %s, approval %s", deref(sh.FinalDuration), sh.ApprovalStatus))
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, fmt.Sprintf("shifts_%s.ics", actor.Username), nil
}

// ── Helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
