package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/snapshot"
)

// SnapshotLoader 读取最近一次发布的快照
type SnapshotLoader interface {
	Load(ctx context.Context) (*snapshot.Snapshot, error)
}

// SnapshotHandler 快照处理器
type SnapshotHandler struct {
	loader SnapshotLoader
}

// NewSnapshotHandler 创建快照处理器
func NewSnapshotHandler(loader SnapshotLoader) *SnapshotHandler {
	return &SnapshotHandler{loader: loader}
}

// Get 最近一次监控事件后写入 Redis 的快照
// @Summary 最近快照
// @Description 仅在启用 Redis 时注册
// @Tags Server
// @Produce json
// @Success 200 {object} snapshot.Snapshot
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/v1/snapshot [get]
func (h *SnapshotHandler) Get(c *gin.Context) {
	snap, err := h.loader.Load(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if snap == nil {
		respondError(c, errors.New(errors.ErrNotFound, "暂无快照"))
		return
	}
	c.JSON(http.StatusOK, snap)
}
