package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpos/internal/apperror"
	"tillpos/internal/branch"
	"tillpos/internal/model"
	"tillpos/internal/session"
)

// SessionHandler exposes the persisted UI state: who is logged in, which
// branch the till is scoped to, and the in-progress cart. All of it survives
// a process restart.
type SessionHandler struct {
	session  *session.Service
	branches *branch.Service
}

func NewSessionHandler(session *session.Service, branches *branch.Service) *SessionHandler {
	return &SessionHandler{session: session, branches: branches}
}

func (h *SessionHandler) Current(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.session.CurrentUser(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	branch, err := h.session.CurrentBranch(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	cart, err := h.session.Cart(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	if user != nil {
		*user = user.Public()
	}
	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"branch": branch,
		"cart":   cart,
	})
}

type setBranchRequest struct {
	BranchID string `json:"branchId" validate:"required"`
}

func (h *SessionHandler) SetBranch(c *gin.Context) {
	var req setBranchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ctx := c.Request.Context()
	branches, err := h.branches.List(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	for i := range branches {
		if branches[i].ID == req.BranchID {
			if err := h.session.SetCurrentBranch(ctx, &branches[i]); err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, branches[i])
			return
		}
	}
	respondError(c, &apperror.NotFoundError{Entity: "branch", ID: req.BranchID})
}

type setCartRequest struct {
	Items []model.OrderItem `json:"items"`
}

// SetCart replaces the persisted cart; an empty items list clears it.
func (h *SessionHandler) SetCart(c *gin.Context) {
	var req setCartRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.session.SetCart(c.Request.Context(), req.Items); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": req.Items})
}
