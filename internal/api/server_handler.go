package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/minecraft-monitor/internal/repository"
)

// ServerHandler 服务器状态处理器
type ServerHandler struct {
	status repository.ServerStatusRepository
}

// NewServerHandler 创建服务器状态处理器
func NewServerHandler(status repository.ServerStatusRepository) *ServerHandler {
	return &ServerHandler{status: status}
}

// GetStatus 最近一次轮询得到的服务器状态
// @Summary 服务器状态
// @Tags Server
// @Produce json
// @Success 200 {object} models.ServerStatus
// @Router /api/v1/server [get]
func (h *ServerHandler) GetStatus(c *gin.Context) {
	status, err := h.status.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
