package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/socialnomad/nomadblog/internal/backup"
	"github.com/socialnomad/nomadblog/internal/cache"
	"github.com/socialnomad/nomadblog/internal/config"
	"github.com/socialnomad/nomadblog/internal/observability"
)

type BackupEngine interface {
	Export(ctx context.Context) (backup.Snapshot, error)
	Restore(ctx context.Context, raw []byte) error
}

type BackupHandler struct {
	engine BackupEngine
	cache  *cache.PostList
	prom   *observability.Prom
}

func NewBackupHandler(engine BackupEngine, postCache *cache.PostList, prom *observability.Prom) *BackupHandler {
	return &BackupHandler{engine: engine, cache: postCache, prom: prom}
}

// Backup dumps the whole dataset, password hashes included. The owner
// gate sits in the middleware chain.
func (h *BackupHandler) Backup(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(10 * time.Second)
	defer cancel()

	snap, err := h.engine.Export(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not create backup")
		return
	}

	ctx.JSON(http.StatusOK, snap)
}

// Restore replaces the dataset from the request body. Destructive and
// irreversible; the only undo is a backup taken beforehand.
func (h *BackupHandler) Restore(ctx *gin.Context) {
	raw, err := ctx.GetRawData()

	if err != nil {
		RespondBadRequest(ctx, "Invalid backup format", nil)
		return
	}

	// the batch commit blocks until the store acknowledges
	cctx, cancel := config.WithTimeout(30 * time.Second)
	defer cancel()

	err = h.engine.Restore(cctx, raw)

	switch {
	case errors.Is(err, backup.ErrInvalidFormat):
		h.countRestore("invalid")
		RespondBadRequest(ctx, "Invalid backup format", nil)
		return
	case err != nil:
		h.countRestore("aborted")
		RespondError(ctx, http.StatusInternalServerError, "restore_failed", "Failed to restore backup: "+err.Error(), nil)
		return
	}

	h.countRestore("committed")
	h.cache.Invalidate(cctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Backup restored successfully"})
}

func (h *BackupHandler) countRestore(result string) {
	if h.prom != nil {
		h.prom.RestoreResults.WithLabelValues(result).Inc()
	}
}
