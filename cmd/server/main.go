package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/wfunc/minecraft-monitor/internal/api"
	"github.com/wfunc/minecraft-monitor/internal/config"
	"github.com/wfunc/minecraft-monitor/internal/database"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/logger"
	"github.com/wfunc/minecraft-monitor/internal/monitor"
	"github.com/wfunc/minecraft-monitor/internal/rcon"
	"github.com/wfunc/minecraft-monitor/internal/repository"
	"github.com/wfunc/minecraft-monitor/internal/service"
	"github.com/wfunc/minecraft-monitor/internal/snapshot"
	"github.com/wfunc/minecraft-monitor/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db        *gorm.DB
	store     *repository.Store
	session   *rcon.Session
	monitor   *monitor.Service
	hub       *websocket.Hub
	redis     *redis.Client
	snapshots *snapshot.Publisher
	services  *service.Services
	http      *http.Server

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
	)
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	setupSystem(&cfg.System)

	server := NewServer(cfg)
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	server.WaitForShutdown()

	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动 Minecraft 监控服务...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}
	s.startServices()

	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...", zap.String("file", config.ConfigFile()))
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功", zap.String("http", s.cfg.Server.Addr()))
	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	if err := s.initDatabase(); err != nil {
		return err
	}
	s.store = repository.NewStore(s.db)

	s.session = rcon.NewSession(
		rcon.NewGorconDialer(s.cfg.RCON.DialTimeout, s.cfg.RCON.CommandTimeout),
		settingsEndpoint(s.store),
		rcon.WithTimeout(s.cfg.RCON.CommandTimeout),
	)

	s.monitor = monitor.New(s.session, s.store, monitor.Options{
		Interval:          s.cfg.Monitor.Interval,
		InventoryInterval: s.cfg.Monitor.InventoryInterval,
		EventBuffer:       s.cfg.Monitor.EventBuffer,
	})

	s.services = service.NewServices(s.db, &service.Config{
		JWTSecret:   s.cfg.Security.JWT.Secret,
		TokenExpiry: time.Duration(s.cfg.Security.JWT.ExpireHours) * time.Hour,
	}, s.session, logger.GetModuleLogger("api"))
	if err := s.services.Auth.EnsureAdmin(s.ctx, s.cfg.Security.Admin.Username, s.cfg.Security.Admin.Password); err != nil {
		return err
	}

	s.hub = websocket.NewHub(logger.GetModuleLogger("websocket"))

	if s.cfg.Redis.Enabled {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     s.cfg.Redis.Addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		if err := s.redis.Ping(s.ctx).Err(); err != nil {
			// Redis 不可用时继续运行，发布失败只记录日志
			s.logger.Warn("Redis 连接失败", zap.String("addr", s.cfg.Redis.Addr), zap.Error(err))
		}
		s.snapshots = snapshot.NewPublisher(s.redis, s.store, s.cfg.Redis.SnapshotKey, s.cfg.Redis.Channel).
			WithTTL(s.cfg.Redis.SnapshotTTL)
	}

	metricsPath := ""
	if s.cfg.Metrics.Enabled {
		metricsPath = s.cfg.Metrics.Path
	}
	gin.SetMode(s.cfg.Server.Mode)
	deps := api.Deps{
		DB:          s.db,
		Services:    s.services,
		Monitor:     s.monitor,
		Hub:         s.hub,
		RCON:        s.session,
		MetricsPath: metricsPath,
		Log:         logger.GetModuleLogger("api"),
	}
	if s.snapshots != nil {
		deps.Snapshot = s.snapshots
	}
	router := api.NewRouter(deps)
	s.http = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}
	s.db = database.GetDB()

	if s.cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(s.db, database.Seed{
			RCONHost:      s.cfg.RCON.Host,
			RCONPort:      s.cfg.RCON.Port,
			RCONPassword:  s.cfg.RCON.Password,
			AdminUsername: s.cfg.Security.Admin.Username,
		}); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return errors.New(errors.ErrDatabaseConnect, "数据库连接检查失败")
	}
	return nil
}

// settingsEndpoint 每次建连时从设置表读取地址
func settingsEndpoint(store *repository.Store) rcon.EndpointFunc {
	return func(ctx context.Context) (rcon.Endpoint, error) {
		settings, err := store.GetSettings(ctx)
		if err != nil {
			return rcon.Endpoint{}, err
		}
		return rcon.Endpoint{Address: settings.RCONAddress(), Password: settings.RCONPassword}, nil
	}
}

// startServices 启动后台任务
func (s *Server) startServices() {
	s.goRun("websocket", func() { s.hub.Run(s.ctx) })

	wsEvents, cancelWS := s.monitor.Subscribe()
	s.goRun("forward", func() {
		defer cancelWS()
		s.hub.Forward(s.ctx, wsEvents)
	})

	if s.snapshots != nil {
		snapEvents, cancelSnap := s.monitor.Subscribe()
		s.goRun("snapshot", func() {
			defer cancelSnap()
			s.snapshots.Run(s.ctx, snapEvents)
		})
	}

	s.goRun("monitor", func() {
		if err := s.monitor.Run(s.ctx); err != nil {
			s.logger.Error("监控循环异常退出", zap.Error(err))
		}
	})

	s.goRun("http", func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP 服务异常退出", zap.Error(err))
		}
	})
}

func (s *Server) goRun(name string, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("后台任务崩溃", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		fn()
	}()
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
	close(s.shutdownCh)
}

// Shutdown 优雅关闭服务器
// 正在执行的远程命令不会被打断，最长等待一个命令超时
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP 服务关闭失败", zap.Error(err))
	}

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	s.closeComponents()
	return nil
}

// closeComponents 关闭组件
func (s *Server) closeComponents() {
	if err := s.session.Close(); err != nil {
		s.logger.Warn("关闭远程控制台连接失败", zap.Error(err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Warn("关闭 Redis 失败", zap.Error(err))
		}
	}
	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}
}

// reloadConfig 热更新只影响日志级别，其余配置需要重启
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)
	s.logger.Info("配置重新加载完成", zap.String("log_level", logger.Level()))
}

// setupSystem 设置系统参数
func setupSystem(cfg *config.SystemConfig) {
	if cfg.Timezone != "" {
		if loc, err := time.LoadLocation(cfg.Timezone); err == nil {
			time.Local = loc
		}
	}
	if cfg.MaxProcs > 0 {
		runtime.GOMAXPROCS(cfg.MaxProcs)
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("Minecraft 监控服务\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
