package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lyipi/4bpchoquecoe/internal/dto"
	"github.com/lyipi/4bpchoquecoe/internal/lifecycle"
	"github.com/lyipi/4bpchoquecoe/internal/model"
	pkgerrors "github.com/lyipi/4bpchoquecoe/pkg/errors"
)

var t0 = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func setupTestShiftService() (*shiftService, *mockRepos, *time.Time) {
	repo, mocks := newMockRepository()
	svc := NewShiftService(repo, nil, testLogger()).(*shiftService)
	clock := t0
	svc.now = func() time.Time { return clock }
	return svc, mocks, &clock
}

func fullCrew() *dto.StartShiftRequest {
	return &dto.StartShiftRequest{
		VehiclePrefix: " BPC-1021 ",
		Members: map[string]dto.MemberInput{
			"boat_chief": {ID: "u1", Name: "Silva", Rank: "Sgt"},
			"driver":     {ID: "u2", Name: "Souza"},
			"aux_1":      {ID: "u3", Name: "Lima"},
		},
	}
}

func slotMember(resp *dto.ShiftResponse, key string) *dto.MemberInput {
	for _, s := range resp.Roster {
		if s.Key == key {
			return s.Member
		}
	}
	return nil
}

// ════════════════════════════════════════
// Start
// ════════════════════════════════════════

func TestShiftService_Start_Success(t *testing.T) {
	svc, mocks, clock := setupTestShiftService()

	resp, err := svc.Start(context.Background(), member, fullCrew())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if resp.Status != model.ShiftStatusActive || resp.ApprovalStatus != model.ApprovalPending {
		t.Errorf("expected active/pending, got %s/%s", resp.Status, resp.ApprovalStatus)
	}
	if resp.StartedBy != "silva" || resp.VehiclePrefix != "BPC-1021" {
		t.Errorf("unexpected initiator/prefix %q %q", resp.StartedBy, resp.VehiclePrefix)
	}
	if !resp.StartTime.Equal(*clock) {
		t.Errorf("StartTime = %s, want %s", resp.StartTime, *clock)
	}
	if len(resp.Roster) != len(lifecycle.ShiftLayout) {
		t.Fatalf("roster has %d slots, want %d", len(resp.Roster), len(lifecycle.ShiftLayout))
	}
	if m := slotMember(resp, "boat_chief"); m == nil || m.ID != "u1" {
		t.Errorf("boat_chief = %+v", m)
	}
	if m := slotMember(resp, "aux_2"); m != nil {
		t.Errorf("aux_2 should be empty, got %+v", m)
	}
	if resp.Elapsed != "00:00:00" {
		t.Errorf("Elapsed = %q", resp.Elapsed)
	}

	stored, err := mocks.shift.GetActiveByInitiator(context.Background(), "silva")
	if err != nil {
		t.Fatalf("shift not stored: %v", err)
	}
	if stored.UserID == nil || *stored.UserID != member.UserID {
		t.Errorf("UserID not recorded")
	}
}

func TestShiftService_Start_Validation(t *testing.T) {
	svc, _, _ := setupTestShiftService()
	ctx := context.Background()

	noPrefix := fullCrew()
	noPrefix.VehiclePrefix = "   "
	if _, err := svc.Start(ctx, member, noPrefix); !errors.Is(err, lifecycle.ErrMissingUnitTag) {
		t.Errorf("expected ErrMissingUnitTag, got %v", err)
	}

	short := fullCrew()
	delete(short.Members, "driver")
	if _, err := svc.Start(ctx, member, short); !errors.Is(err, lifecycle.ErrIncompleteRoster) {
		t.Errorf("expected ErrIncompleteRoster, got %v", err)
	}

	dup := fullCrew()
	dup.Members["aux_2"] = dto.MemberInput{ID: "u1"}
	if _, err := svc.Start(ctx, member, dup); !errors.Is(err, lifecycle.ErrDuplicateMember) {
		t.Errorf("expected ErrDuplicateMember, got %v", err)
	}
}

func TestShiftService_Start_SecondActiveRefused(t *testing.T) {
	svc, _, _ := setupTestShiftService()
	ctx := context.Background()

	if _, err := svc.Start(ctx, member, fullCrew()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if _, err := svc.Start(ctx, member, fullCrew()); !errors.Is(err, lifecycle.ErrConcurrentShift) {
		t.Errorf("expected ErrConcurrentShift, got %v", err)
	}
	// another initiator is unaffected
	if _, err := svc.Start(ctx, staff, fullCrew()); err != nil {
		t.Errorf("other initiator: %v", err)
	}
}

func TestShiftService_Start_ConcurrentOnlyOneWins(t *testing.T) {
	svc, mocks, _ := setupTestShiftService()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Start(context.Background(), member, fullCrew())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, lifecycle.ErrConcurrentShift):
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("expected exactly one successful start, got %d", succeeded)
	}
	if n, _ := mocks.shift.CountActive(context.Background()); n != 1 {
		t.Errorf("expected one active shift, got %d", n)
	}
}

// ════════════════════════════════════════
// Roster edits
// ════════════════════════════════════════

func TestShiftService_AssignAndClearSlot(t *testing.T) {
	svc, _, _ := setupTestShiftService()
	ctx := context.Background()
	if _, err := svc.Start(ctx, member, fullCrew()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := svc.AssignSlot(ctx, member, "aux_2", dto.MemberInput{ID: " u4 ", Name: "Costa"})
	if err != nil {
		t.Fatalf("AssignSlot: %v", err)
	}
	if m := slotMember(resp, "aux_2"); m == nil || m.ID != "u4" {
		t.Errorf("aux_2 = %+v", m)
	}

	if _, err := svc.AssignSlot(ctx, member, "aux_3", dto.MemberInput{ID: "u4"}); !errors.Is(err, lifecycle.ErrDuplicateMember) {
		t.Errorf("expected ErrDuplicateMember, got %v", err)
	}
	if _, err := svc.AssignSlot(ctx, member, "cook", dto.MemberInput{ID: "u9"}); !errors.Is(err, lifecycle.ErrUnknownSlot) {
		t.Errorf("expected ErrUnknownSlot, got %v", err)
	}

	resp, err = svc.ClearSlot(ctx, member, "aux_2")
	if err != nil {
		t.Fatalf("ClearSlot: %v", err)
	}
	if m := slotMember(resp, "aux_2"); m != nil {
		t.Errorf("aux_2 should be empty after clear, got %+v", m)
	}

	got, _ := svc.GetActive(ctx, member)
	if m := slotMember(got, "aux_2"); m != nil {
		t.Errorf("clear was not persisted")
	}
}

func TestShiftService_AssignSlot_NoActiveShift(t *testing.T) {
	svc, _, _ := setupTestShiftService()

	_, err := svc.AssignSlot(context.Background(), member, "aux_2", dto.MemberInput{ID: "u4"})
	if !errors.Is(err, ErrNoActiveShift) {
		t.Errorf("expected ErrNoActiveShift, got %v", err)
	}
}

func TestShiftService_AssignSlot_LegacyRoster(t *testing.T) {
	svc, mocks, _ := setupTestShiftService()
	mocks.shift.put(model.Shift{
		StartedBy:      "silva",
		VehiclePrefix:  "BPC-1",
		Members:        model.JSONB(`[{"id":"u1","name":"Silva"}]`),
		StartTime:      t0,
		Status:         model.ShiftStatusActive,
		ApprovalStatus: model.ApprovalPending,
	})

	_, err := svc.AssignSlot(context.Background(), member, "aux_2", dto.MemberInput{ID: "u4"})
	if !errors.Is(err, ErrLegacyRoster) {
		t.Errorf("expected ErrLegacyRoster, got %v", err)
	}
}

// ════════════════════════════════════════
// End
// ════════════════════════════════════════

func TestShiftService_End_Success(t *testing.T) {
	svc, _, clock := setupTestShiftService()
	ctx := context.Background()
	if _, err := svc.Start(ctx, member, fullCrew()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	*clock = t0.Add(2*time.Hour + 15*time.Minute + 30*time.Second)
	resp, err := svc.End(ctx, member)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if resp.Status != model.ShiftStatusCompleted || resp.ApprovalStatus != model.ApprovalPending {
		t.Errorf("expected completed/pending, got %s/%s", resp.Status, resp.ApprovalStatus)
	}
	if resp.DurationSeconds == nil || *resp.DurationSeconds != 8130 {
		t.Errorf("DurationSeconds = %v, want 8130", resp.DurationSeconds)
	}
	if resp.FinalDuration == nil || *resp.FinalDuration != "2h 15m" {
		t.Errorf("FinalDuration = %v", resp.FinalDuration)
	}
	if resp.Elapsed != "" {
		t.Errorf("completed shift must not carry a running clock")
	}

	if _, err := svc.End(ctx, member); !errors.Is(err, ErrNoActiveShift) {
		t.Errorf("second End: expected ErrNoActiveShift, got %v", err)
	}
}

func TestShiftService_End_LostConfirmation(t *testing.T) {
	svc, mocks, clock := setupTestShiftService()
	ctx := context.Background()
	if _, err := svc.Start(ctx, member, fullCrew()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	*clock = t0.Add(time.Hour)
	mocks.shift.endErr = pkgerrors.Store("end", "shifts", context.DeadlineExceeded)
	mocks.shift.endApplies = true

	resp, err := svc.End(ctx, member)
	if err != nil {
		t.Fatalf("write landed, End must succeed: %v", err)
	}
	if resp.Status != model.ShiftStatusCompleted {
		t.Errorf("expected completed, got %s", resp.Status)
	}
}

func TestShiftService_End_StoreFailure(t *testing.T) {
	svc, mocks, clock := setupTestShiftService()
	ctx := context.Background()
	if _, err := svc.Start(ctx, member, fullCrew()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	*clock = t0.Add(time.Hour)
	mocks.shift.endErr = pkgerrors.Store("end", "shifts", context.DeadlineExceeded)

	if _, err := svc.End(ctx, member); !pkgerrors.IsStore(err) {
		t.Errorf("expected store error, got %v", err)
	}
	if _, err := svc.GetActive(ctx, member); err != nil {
		t.Errorf("shift must still be active: %v", err)
	}
}

func TestShiftService_End_ClockAnomaly(t *testing.T) {
	svc, _, clock := setupTestShiftService()
	ctx := context.Background()
	if _, err := svc.Start(ctx, member, fullCrew()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	*clock = t0.Add(-time.Minute)
	if _, err := svc.End(ctx, member); !errors.Is(err, lifecycle.ErrClockAnomaly) {
		t.Errorf("expected ErrClockAnomaly, got %v", err)
	}
}

// ════════════════════════════════════════
// History
// ════════════════════════════════════════

func TestShiftService_History(t *testing.T) {
	svc, mocks, _ := setupTestShiftService()
	for i := 0; i < 12; i++ {
		mocks.shift.put(model.Shift{
			StartedBy:      "silva",
			VehiclePrefix:  "BPC-1",
			StartTime:      t0.Add(time.Duration(i) * time.Hour),
			Status:         model.ShiftStatusCompleted,
			ApprovalStatus: model.ApprovalPending,
		})
	}
	mocks.shift.put(model.Shift{StartedBy: "souza", StartTime: t0, Status: model.ShiftStatusCompleted})

	got, err := svc.History(context.Background(), member, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != DefaultHistoryLimit {
		t.Fatalf("expected %d shifts, got %d", DefaultHistoryLimit, len(got))
	}
	if !got[0].StartTime.Equal(t0.Add(11 * time.Hour)) {
		t.Errorf("history must be newest first, got %s", got[0].StartTime)
	}
	for _, s := range got {
		if s.StartedBy != "silva" {
			t.Errorf("foreign shift in history: %s", s.StartedBy)
		}
	}
}
