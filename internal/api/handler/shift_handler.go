package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lyipi/4bpchoquecoe/internal/dto"
	"github.com/lyipi/4bpchoquecoe/internal/lifecycle"
	"github.com/lyipi/4bpchoquecoe/internal/service"
	"github.com/lyipi/4bpchoquecoe/pkg/response"
)

// ShiftHandler shift lifecycle of the calling initiator.
type ShiftHandler struct {
	shiftSvc service.ShiftService
	// tick and revalidate pace the elapsed stream.
	tick       time.Duration
	revalidate time.Duration
}

// NewShiftHandler creates a ShiftHandler.
func NewShiftHandler(shiftSvc service.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftSvc: shiftSvc, tick: time.Second, revalidate: 30 * time.Second}
}

// Start starts a shift.
// POST /api/v1/shifts
func (h *ShiftHandler) Start(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.StartShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	resp, err := h.shiftSvc.Start(c.Request.Context(), actor, &req)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.Created(c, resp)
}

// GetActive the caller's active shift with its running clock.
// GET /api/v1/shifts/active
func (h *ShiftHandler) GetActive(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.shiftSvc.GetActive(c.Request.Context(), actor)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, resp)
}

// Elapsed streams the running clock of the active shift, one "tick" event per
// second. The shift is re-read periodically; once it is no longer active an
// "ended" event closes the stream.
// GET /api/v1/shifts/active/elapsed
func (h *ShiftHandler) Elapsed(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	shift, err := h.shiftSvc.GetActive(ctx, actor)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	tick := func(now time.Time) dto.ElapsedTick {
		d := now.Sub(shift.StartTime)
		secs := int64(0)
		if d > 0 {
			secs = int64(d / time.Second)
		}
		return dto.ElapsedTick{ShiftID: shift.ID, Elapsed: lifecycle.FormatElapsed(d), ElapsedSeconds: secs}
	}

	c.SSEvent("tick", tick(time.Now()))
	c.Writer.Flush()

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()
	checked := time.Now()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case now := <-ticker.C:
			if now.Sub(checked) >= h.revalidate {
				checked = now
				// other read errors keep the local clock running until the next check
				cur, err := h.shiftSvc.GetActive(ctx, actor)
				if errors.Is(err, service.ErrNoActiveShift) || (err == nil && cur.ID != shift.ID) {
					c.SSEvent("ended", gin.H{"shift_id": shift.ID})
					return false
				}
			}
			c.SSEvent("tick", tick(now))
			return true
		}
	})
}

// AssignSlot places a member on a slot of the active shift.
// PUT /api/v1/shifts/active/slots/:slot
func (h *ShiftHandler) AssignSlot(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	var req dto.AssignSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request body")
		return
	}

	resp, err := h.shiftSvc.AssignSlot(c.Request.Context(), actor, c.Param("slot"), req.MemberInput)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, resp)
}

// ClearSlot empties a slot of the active shift.
// DELETE /api/v1/shifts/active/slots/:slot
func (h *ShiftHandler) ClearSlot(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.shiftSvc.ClearSlot(c.Request.Context(), actor, c.Param("slot"))
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, resp)
}

// End ends the active shift.
// POST /api/v1/shifts/active/end
func (h *ShiftHandler) End(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	resp, err := h.shiftSvc.End(c.Request.Context(), actor)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, resp)
}

// History the caller's latest shifts.
// GET /api/v1/shifts/history?limit=
func (h *ShiftHandler) History(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	limit := service.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			response.BadRequest(c, 10001, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	resp, err := h.shiftSvc.History(c.Request.Context(), actor, limit)
	if err != nil {
		h.handleShiftError(c, err)
		return
	}
	response.OK(c, resp)
}

func (h *ShiftHandler) handleShiftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrMissingUnitTag):
		response.BadRequest(c, 21001, "vehicle prefix is required")
	case errors.Is(err, lifecycle.ErrIncompleteRoster):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21002, "required roster slots are not filled", err.Error())
	case errors.Is(err, lifecycle.ErrDuplicateMember):
		response.ErrorWithDetails(c, http.StatusBadRequest, 21003, "member already assigned to another slot", err.Error())
	case errors.Is(err, lifecycle.ErrUnknownSlot):
		response.BadRequest(c, 21004, "unknown roster slot")
	case errors.Is(err, lifecycle.ErrInvalidMember):
		response.BadRequest(c, 21005, "member id is required")
	case errors.Is(err, lifecycle.ErrConcurrentShift):
		response.Conflict(c, 21006, "an active shift already exists")
	case errors.Is(err, service.ErrNoActiveShift):
		response.NotFound(c, 21007, "no active shift")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 21008, "shift not found")
	case errors.Is(err, service.ErrLegacyRoster):
		response.Conflict(c, 21009, "shift roster is in a legacy format and cannot be edited")
	case errors.Is(err, service.ErrConflict):
		response.Conflict(c, 21010, "shift was changed concurrently, reload and retry")
	case errors.Is(err, lifecycle.ErrClockAnomaly):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, 21011, "shift end precedes its start")
	default:
		handleCommonError(c, err)
	}
}
