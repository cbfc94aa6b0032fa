package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wfunc/minecraft-monitor/internal/middleware"
	"github.com/wfunc/minecraft-monitor/internal/repository"
	"github.com/wfunc/minecraft-monitor/internal/service"
	"github.com/wfunc/minecraft-monitor/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 路由依赖
type Deps struct {
	DB       *gorm.DB
	Services *service.Services
	Monitor  MonitorController
	Hub      *websocket.Hub
	// RCON 远程控制台连接状态，可为 nil
	RCON RCONState
	// Snapshot 未启用 Redis 时为 nil，不注册快照接口
	Snapshot SnapshotLoader
	// MetricsPath 为空时不暴露指标
	MetricsPath string
	Log         *zap.Logger
}

// RCONState 远程控制台连接状态
type RCONState interface {
	Connected() bool
}

// Router API路由器
type Router struct {
	engine         *gin.Engine
	db             *gorm.DB
	hub            *websocket.Hub
	monitor        MonitorController
	rcon           RCONState
	authMiddleware *middleware.AuthMiddleware

	authHandler     *AuthHandler
	serverHandler   *ServerHandler
	playerHandler   *PlayerHandler
	monitorHandler  *MonitorHandler
	settingsHandler *SettingsHandler
	snapshotHandler *SnapshotHandler

	metricsPath string
	log         *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(deps Deps) *Router {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger())

	router := &Router{
		engine:         engine,
		db:             deps.DB,
		hub:            deps.Hub,
		monitor:        deps.Monitor,
		rcon:           deps.RCON,
		authMiddleware: middleware.NewAuthMiddleware(deps.Services.Auth),

		authHandler:     NewAuthHandler(deps.Services.Auth),
		serverHandler:   NewServerHandler(repository.NewServerStatusRepository(deps.DB)),
		playerHandler:   NewPlayerHandler(repository.NewPlayerRepository(deps.DB)),
		monitorHandler:  NewMonitorHandler(deps.Monitor, deps.Log),
		settingsHandler: NewSettingsHandler(deps.Services.Settings),

		metricsPath: deps.MetricsPath,
		log:         deps.Log,
	}

	if deps.Snapshot != nil {
		router.snapshotHandler = NewSnapshotHandler(deps.Snapshot)
	}

	router.setupRoutes()
	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	r.engine.GET("/health", r.healthCheck)
	if r.metricsPath != "" {
		r.engine.GET(r.metricsPath, gin.WrapH(promhttp.Handler()))
	}
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	v1 := r.engine.Group("/api/v1")
	{
		v1.POST("/auth/login", r.authHandler.Login)

		// 只读接口不需要认证
		v1.GET("/server", r.serverHandler.GetStatus)
		v1.GET("/players", r.playerHandler.List)
		v1.GET("/players/:id", r.playerHandler.Get)
		v1.GET("/players/:id/inventory", r.playerHandler.Inventory)
		if r.snapshotHandler != nil {
			v1.GET("/snapshot", r.snapshotHandler.Get)
		}

		admin := v1.Group("")
		admin.Use(r.authMiddleware.RequireAuth())
		{
			admin.GET("/monitor", r.monitorHandler.Status)
			admin.POST("/monitor/start", r.monitorHandler.Start)
			admin.POST("/monitor/stop", r.monitorHandler.Stop)
			admin.GET("/settings", r.settingsHandler.Get)
			admin.PUT("/settings", r.settingsHandler.Update)
		}
	}

	if r.hub != nil {
		r.engine.GET("/ws", websocket.ServeWS(r.hub))
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Code: 1002, Message: "接口不存在"})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	sqlDB, err := r.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	resp := gin.H{
		"status":          "healthy",
		"monitor_running": r.monitor.IsRunning(),
	}
	if r.hub != nil {
		resp["ws_clients"] = r.hub.GetOnlineCount()
	}
	if r.rcon != nil {
		resp["rcon_connected"] = r.rcon.Connected()
	}
	c.JSON(http.StatusOK, resp)
}

// Handler 返回 http.Handler，供 http.Server 使用
func (r *Router) Handler() http.Handler {
	return r.engine
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
