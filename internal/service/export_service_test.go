package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lyipi/4bpchoquecoe/config"
	"github.com/lyipi/4bpchoquecoe/internal/model"
)

func setupTestExportService(t *testing.T) (*exportService, *mockRepos) {
	repo, mocks := newMockRepository(rankingUsers()...)
	rankingSvc := NewRankingService(repo, nil, config.RankingConfig{ItemsLimit: 100}, nil, testLogger())
	svc := NewExportService(repo, rankingSvc, testLogger()).(*exportService)
	svc.now = func() time.Time { return t0 }
	return svc, mocks
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheet)
	if err != nil {
		t.Fatalf("read sheet %q: %v", sheet, err)
	}
	return rows
}

func TestExportService_StaffOnly(t *testing.T) {
	svc, _ := setupTestExportService(t)
	ctx := context.Background()

	for name, fn := range map[string]func() error{
		"shifts":  func() error { _, _, err := svc.ExportShifts(ctx, member); return err },
		"reports": func() error { _, _, err := svc.ExportReports(ctx, member); return err },
		"hours":   func() error { _, _, err := svc.ExportHours(ctx, member); return err },
		"items":   func() error { _, _, err := svc.ExportItems(ctx, member); return err },
	} {
		if err := fn(); !errors.Is(err, ErrForbidden) {
			t.Errorf("%s: expected ErrForbidden, got %v", name, err)
		}
	}
}

func TestExportService_ExportShifts(t *testing.T) {
	svc, mocks := setupTestExportService(t)
	ctx := context.Background()

	if _, _, err := svc.ExportShifts(ctx, staff); !errors.Is(err, ErrExportEmpty) {
		t.Errorf("expected ErrExportEmpty, got %v", err)
	}

	seedActivity(t, mocks)
	buf, filename, err := svc.ExportShifts(ctx, staff)
	if err != nil {
		t.Fatalf("ExportShifts: %v", err)
	}
	if filename != "shifts_20260301.xlsx" {
		t.Errorf("filename = %s", filename)
	}

	rows := readRows(t, buf.Bytes(), "Shifts")
	if len(rows) != 4 {
		t.Fatalf("expected title + header + 2 rows, got %d rows", len(rows))
	}
	if rows[1][0] != "Start" || rows[1][2] != "Initiator" {
		t.Errorf("unexpected header %v", rows[1])
	}
}

func TestExportService_ExportItems(t *testing.T) {
	svc, mocks := setupTestExportService(t)
	seedActivity(t, mocks)

	buf, _, err := svc.ExportItems(context.Background(), staff)
	if err != nil {
		t.Fatalf("ExportItems: %v", err)
	}
	rows := readRows(t, buf.Bytes(), "Items ranking")
	if len(rows) != 4 {
		t.Fatalf("expected title + header + 2 rows, got %d", len(rows))
	}
	if rows[2][1] != "Lima" || rows[2][2] != "5" {
		t.Errorf("first ranked row = %v", rows[2])
	}
}

func TestExportService_ShiftCalendar(t *testing.T) {
	svc, mocks := setupTestExportService(t)
	seedActivity(t, mocks)
	mocks.shift.put(model.Shift{StartedBy: "souza", StartTime: t0, Status: model.ShiftStatusCompleted,
		EndTime: ptrTime(t0.Add(time.Hour))})

	buf, filename, err := svc.ShiftCalendar(context.Background(), member)
	if err != nil {
		t.Fatalf("ShiftCalendar: %v", err)
	}
	if filename != "shifts_silva.ics" {
		t.Errorf("filename = %s", filename)
	}

	body := buf.String()
	if n := strings.Count(body, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("expected one event for silva, got %d", n)
	}
	if !strings.Contains(body, "SUMMARY:Shift BPC-1") {
		t.Errorf("missing summary in\n%s", body)
	}
	if !strings.Contains(body, "DTSTART:20260301T200000Z") {
		t.Errorf("missing start in\n%s", body)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
