package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpos/internal/catalog"
	"tillpos/internal/dto"
	"tillpos/internal/session"
	"tillpos/internal/storage"
)

type ProductHandler struct {
	catalog *catalog.Service
	session *session.Service
}

func NewProductHandler(catalog *catalog.Service, session *session.Service) *ProductHandler {
	return &ProductHandler{catalog: catalog, session: session}
}

// branchID resolves the branch scope of a stock-touching request: explicit
// ?branchId= wins, then the persisted session branch, then the default.
func (h *ProductHandler) branchID(c *gin.Context) string {
	if id := c.Query("branchId"); id != "" {
		return id
	}
	if b, err := h.session.CurrentBranch(c.Request.Context()); err == nil && b != nil {
		return b.ID
	}
	return storage.DefaultBranchID
}

func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context(), h.branchID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) Save(c *gin.Context) {
	var req dto.SaveProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	created := req.ID == ""
	product, err := h.catalog.SaveProduct(c.Request.Context(), req, h.branchID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) Restock(c *gin.Context) {
	var req dto.RestockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	stock, err := h.catalog.Restock(c.Request.Context(), c.Param("id"), h.branchID(c), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}
