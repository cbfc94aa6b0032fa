package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/minecraft-monitor/internal/middleware"
	"go.uber.org/zap"
)

// MonitorController 监控服务的启停控制
type MonitorController interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
}

// MonitorHandler 监控控制处理器
type MonitorHandler struct {
	monitor MonitorController
	logger  *zap.Logger
}

// NewMonitorHandler 创建监控控制处理器
func NewMonitorHandler(monitor MonitorController, logger *zap.Logger) *MonitorHandler {
	return &MonitorHandler{monitor: monitor, logger: logger}
}

type monitorState struct {
	Running bool `json:"running"`
}

// Status 是否正在轮询
// @Summary 监控状态
// @Tags Monitor
// @Security Bearer
// @Produce json
// @Router /api/v1/monitor [get]
func (h *MonitorHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, monitorState{Running: h.monitor.IsRunning()})
}

// Start 开始轮询
// @Summary 开始监控
// @Tags Monitor
// @Security Bearer
// @Router /api/v1/monitor/start [post]
func (h *MonitorHandler) Start(c *gin.Context) {
	if err := h.monitor.Start(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	h.logOperator(c, "开始监控")
	c.JSON(http.StatusOK, monitorState{Running: h.monitor.IsRunning()})
}

// Stop 停止轮询，等待当前周期结束
// @Summary 停止监控
// @Tags Monitor
// @Security Bearer
// @Router /api/v1/monitor/stop [post]
func (h *MonitorHandler) Stop(c *gin.Context) {
	if err := h.monitor.Stop(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	h.logOperator(c, "停止监控")
	c.JSON(http.StatusOK, monitorState{Running: h.monitor.IsRunning()})
}

func (h *MonitorHandler) logOperator(c *gin.Context, action string) {
	username, _ := middleware.GetUsername(c)
	h.logger.Info(action, zap.String("operator", username), zap.String("ip", c.ClientIP()))
}
