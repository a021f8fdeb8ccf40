package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpos/internal/syncer"
	"tillpos/internal/worker"
)

type SyncHandler struct {
	coord  *syncer.Coordinator
	worker *worker.SyncWorker
}

func NewSyncHandler(coord *syncer.Coordinator, worker *worker.SyncWorker) *SyncHandler {
	return &SyncHandler{coord: coord, worker: worker}
}

// Pending reports what the next export would carry, without sending anything.
func (h *SyncHandler) Pending(c *gin.Context) {
	doc, err := h.coord.Pending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Run triggers one export cycle immediately instead of waiting for the timer.
func (h *SyncHandler) Run(c *gin.Context) {
	if err := h.worker.SyncOnce(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	mark, err := h.coord.Watermark(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "synced", "lastSyncTimestamp": mark})
}
