package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lyipi/4bpchoquecoe/internal/model"
)

func fullRoster() model.Roster {
	return model.Roster{
		"boat_chief": {ID: "u1", Name: "Silva", Rank: "Sargento"},
		"driver":     {ID: "u2", Name: "Souza", Rank: "Cabo"},
		"aux_1":      {ID: "u3", Name: "Lima", Rank: "Soldado"},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, ShiftLayout.Validate("BPC-01", fullRoster()))
}

func TestValidate_MissingUnitTagFirst(t *testing.T) {
	err := ShiftLayout.Validate("  ", model.Roster{})
	assert.ErrorIs(t, err, ErrMissingUnitTag)
}

func TestValidate_IncompleteRoster(t *testing.T) {
	for _, slot := range []string{"boat_chief", "driver", "aux_1"} {
		r := fullRoster()
		delete(r, slot)
		err := ShiftLayout.Validate("BPC-01", r)
		assert.ErrorIs(t, err, ErrIncompleteRoster, slot)
		assert.Contains(t, err.Error(), slot)
	}
}

func TestValidate_EmptyMemberCountsAsUnfilled(t *testing.T) {
	r := fullRoster()
	r["driver"] = model.Member{Name: "no id"}
	assert.ErrorIs(t, ShiftLayout.Validate("BPC-01", r), ErrIncompleteRoster)
}

func TestValidate_DuplicateAndUnknown(t *testing.T) {
	r := fullRoster()
	r["aux_2"] = model.Member{ID: "u1"}
	assert.ErrorIs(t, ShiftLayout.Validate("BPC-01", r), ErrDuplicateMember)

	r = fullRoster()
	r["cook"] = model.Member{ID: "u9"}
	assert.ErrorIs(t, ShiftLayout.Validate("BPC-01", r), ErrUnknownSlot)
}

func TestAssignAndClear(t *testing.T) {
	r := fullRoster()

	next, err := ShiftLayout.Assign(r, "aux_2", model.Member{ID: "u4", Name: "Costa"})
	require.NoError(t, err)
	assert.Equal(t, "u4", next["aux_2"].ID)
	_, untouched := r["aux_2"]
	assert.False(t, untouched, "input roster must not change")

	_, err = ShiftLayout.Assign(next, "aux_3", model.Member{ID: "u4"})
	assert.ErrorIs(t, err, ErrDuplicateMember)

	same, err := ShiftLayout.Assign(next, "aux_2", model.Member{ID: "u4", Name: "Costa"})
	require.NoError(t, err)
	assert.Equal(t, next, same)

	_, err = ShiftLayout.Assign(next, "gunner", model.Member{ID: "u5"})
	assert.ErrorIs(t, err, ErrUnknownSlot)

	_, err = ShiftLayout.Assign(next, "aux_3", model.Member{})
	assert.ErrorIs(t, err, ErrInvalidMember)

	cleared, err := ShiftLayout.Clear(next, "aux_2")
	require.NoError(t, err)
	assert.NotContains(t, cleared, "aux_2")
	assert.Contains(t, next, "aux_2")
}

func TestOrdered(t *testing.T) {
	r := fullRoster()
	r["aux_3"] = model.Member{ID: "u5"}
	got := ShiftLayout.Ordered(r)
	require.Len(t, got, 4)
	assert.Equal(t, "boat_chief", got[0].Slot.Key)
	assert.Equal(t, "aux_3", got[3].Slot.Key)
}

func TestClose(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

	c, err := Close(start, start.Add(5025*time.Second+900*time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int64(5025), c.DurationSeconds)
	assert.Equal(t, "1h 23m", c.FinalDuration)

	c, err = Close(start, start)
	require.NoError(t, err)
	assert.Equal(t, "0h 0m", c.FinalDuration)

	_, err = Close(start, start.Add(-time.Second))
	assert.ErrorIs(t, err, ErrClockAnomaly)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "01:23:45", FormatElapsed(time.Hour+23*time.Minute+45*time.Second))
	assert.Equal(t, "26:00:00", FormatElapsed(26*time.Hour))
	assert.Equal(t, "00:00:00", FormatElapsed(-time.Minute))
}

func TestPlanShift(t *testing.T) {
	start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	now := start.Add(2 * time.Hour)

	_, err := PlanShift(model.ShiftStatusActive, model.ApprovalPending, start, ActionApprove, now)
	assert.ErrorIs(t, err, ErrBlockedAction)

	p, err := PlanShift(model.ShiftStatusCompleted, model.ApprovalPending, start, ActionApprove, now)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, p.ApprovalStatus)
	assert.Nil(t, p.Closure)

	p, err = PlanShift(model.ShiftStatusActive, model.ApprovalPending, start, ActionReject, now)
	require.NoError(t, err)
	assert.Equal(t, model.ShiftStatusCompleted, p.Status)
	assert.Equal(t, model.ApprovalRejected, p.ApprovalStatus)
	require.NotNil(t, p.Closure)
	assert.Equal(t, int64(7200), p.Closure.DurationSeconds)
	assert.Equal(t, "2h 0m", p.Closure.FinalDuration)
	assert.Equal(t, now, p.Closure.EndTime)

	p, err = PlanShift(model.ShiftStatusCompleted, model.ApprovalApproved, start, ActionReject, now)
	require.NoError(t, err)
	assert.Nil(t, p.Closure)
	assert.Equal(t, model.ApprovalRejected, p.ApprovalStatus)

	p, err = PlanShift(model.ShiftStatusCompleted, model.ApprovalRejected, start, ActionReopen, now)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalPending, p.ApprovalStatus)
	assert.Equal(t, model.ShiftStatusCompleted, p.Status)

	_, err = PlanShift(model.ShiftStatusCompleted, model.ApprovalPending, start, ActionReopen, now)
	assert.ErrorIs(t, err, ErrBlockedAction)

	_, err = PlanShift(model.ShiftStatusActive, model.ApprovalPending, start, ActionReject, start.Add(-time.Minute))
	assert.ErrorIs(t, err, ErrClockAnomaly)

	_, err = PlanShift("archived", model.ApprovalPending, start, ActionReject, now)
	assert.ErrorIs(t, err, ErrBlockedAction)
}

func TestPlanReport(t *testing.T) {
	next, err := PlanReport(model.ApprovalPending, ActionApprove)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalApproved, next)

	next, err = PlanReport(model.ApprovalApproved, ActionReopen)
	require.NoError(t, err)
	assert.Equal(t, model.ApprovalPending, next)

	_, err = PlanReport(model.ApprovalPending, ActionReopen)
	assert.ErrorIs(t, err, ErrBlockedAction)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction("reject")
	require.NoError(t, err)
	assert.Equal(t, ActionReject, a)

	_, err = ParseAction("delete")
	assert.ErrorIs(t, err, ErrUnknownAction)
}
