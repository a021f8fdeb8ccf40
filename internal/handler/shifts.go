package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpos/internal/dto"
	"tillpos/internal/middleware"
	"tillpos/internal/shift"
)

type ShiftHandler struct {
	shifts *shift.Ledger
}

func NewShiftHandler(shifts *shift.Ledger) *ShiftHandler {
	return &ShiftHandler{shifts: shifts}
}

func (h *ShiftHandler) Start(c *gin.Context) {
	var req dto.StartShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	s, err := h.shifts.Start(c.Request.Context(), claims.UserID, req.BranchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *ShiftHandler) End(c *gin.Context) {
	s, err := h.shifts.End(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// Active returns the caller's open shift at the given branch, or 204 when
// there is none — absence is not an error here.
func (h *ShiftHandler) Active(c *gin.Context) {
	claims := middleware.GetClaims(c)
	s, err := h.shifts.ActiveFor(c.Request.Context(), claims.UserID, c.Query("branchId"))
	if err != nil {
		respondError(c, err)
		return
	}
	if s == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *ShiftHandler) List(c *gin.Context) {
	shifts, err := h.shifts.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, shifts)
}
