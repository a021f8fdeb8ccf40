package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpos/internal/infra"
	"tillpos/internal/storage"
)

type HealthHandler struct {
	store   *storage.Store
	breaker *infra.CircuitBreaker
}

func NewHealthHandler(store *storage.Store, breaker *infra.CircuitBreaker) *HealthHandler {
	return &HealthHandler{store: store, breaker: breaker}
}

func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if err := h.store.Ping(c.Request.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":       status,
		"sync_breaker": h.breaker.State().String(),
	})
}
