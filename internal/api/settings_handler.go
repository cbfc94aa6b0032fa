package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/minecraft-monitor/internal/service"
)

// SettingsHandler 设置处理器
type SettingsHandler struct {
	settings service.SettingsService
}

// NewSettingsHandler 创建设置处理器
func NewSettingsHandler(settings service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get 当前设置
// @Summary 获取设置
// @Tags Settings
// @Security Bearer
// @Produce json
// @Success 200 {object} service.SettingsResponse
// @Router /api/v1/settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	resp, err := h.settings.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update 修改远程控制台地址
// @Summary 修改远程控制台地址
// @Tags Settings
// @Security Bearer
// @Accept json
// @Produce json
// @Param request body service.UpdateRCONRequest true "连接参数"
// @Success 200 {object} service.SettingsResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/settings [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req service.UpdateRCONRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	resp, err := h.settings.UpdateRCON(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
