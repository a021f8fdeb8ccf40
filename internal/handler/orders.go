package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpos/internal/dto"
	"tillpos/internal/middleware"
	"tillpos/internal/model"
	"tillpos/internal/order"
	"tillpos/internal/session"
	"tillpos/internal/storage"
)

type OrderHandler struct {
	orders  *order.Ledger
	session *session.Service
}

func NewOrderHandler(orders *order.Ledger, session *session.Service) *OrderHandler {
	return &OrderHandler{orders: orders, session: session}
}

func (h *OrderHandler) branchID(c *gin.Context) string {
	if id := c.Query("branchId"); id != "" {
		return id
	}
	if b, err := h.session.CurrentBranch(c.Request.Context()); err == nil && b != nil {
		return b.ID
	}
	return storage.DefaultBranchID
}

// Submit finalizes the cart: stock is re-checked against the branch, the sale
// is recorded, and the persisted cart is cleared — all in one store pass.
func (h *OrderHandler) Submit(c *gin.Context) {
	var req dto.SubmitOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	cashier := model.CashierSnapshot{
		ID:   claims.UserID,
		Name: claims.Name,
		Role: model.Role(claims.Role),
	}
	completed, err := h.orders.Submit(c.Request.Context(), req, cashier, h.branchID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.session.SetCart(c.Request.Context(), nil); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, completed)
}

func (h *OrderHandler) History(c *gin.Context) {
	orders, err := h.orders.History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
