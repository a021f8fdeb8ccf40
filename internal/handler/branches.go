package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpos/internal/branch"
	"tillpos/internal/dto"
)

type BranchHandler struct {
	branches *branch.Service
}

func NewBranchHandler(branches *branch.Service) *BranchHandler {
	return &BranchHandler{branches: branches}
}

func (h *BranchHandler) List(c *gin.Context) {
	branches, err := h.branches.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

func (h *BranchHandler) Create(c *gin.Context) {
	var req dto.CreateBranchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	b, err := h.branches.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}
