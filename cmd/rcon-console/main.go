// rcon-console 通过与监控服务相同的会话执行一条或多条命令，用于排查连接和响应格式
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wfunc/minecraft-monitor/internal/config"
	"github.com/wfunc/minecraft-monitor/internal/database"
	"github.com/wfunc/minecraft-monitor/internal/logger"
	"github.com/wfunc/minecraft-monitor/internal/nbt"
	"github.com/wfunc/minecraft-monitor/internal/parser"
	"github.com/wfunc/minecraft-monitor/internal/rcon"
	"github.com/wfunc/minecraft-monitor/internal/repository"
)

func main() {
	var (
		configPath = flag.String("config", "", "配置文件路径")
		addr       = flag.String("addr", "", "服务器地址 host:port，为空时读取设置表")
		password   = flag.String("password", "", "远程控制台密码")
		timeout    = flag.Duration("timeout", rcon.DefaultTimeout, "单条命令超时")
		inventory  = flag.Bool("inventory", false, "把参数当作玩家名，输出规整后的背包")
	)
	flag.Parse()

	commands := flag.Args()
	if len(commands) == 0 {
		fmt.Fprintln(os.Stderr, "用法: rcon-console [选项] <命令>...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	cfg.Log.Output = "stdout"
	cfg.Log.Level = "warn"
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Cleanup()

	endpoint, err := resolveEndpoint(cfg, *addr, *password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取连接参数失败: %v\n", err)
		os.Exit(1)
	}

	session := rcon.NewSession(
		rcon.NewGorconDialer(cfg.RCON.DialTimeout, *timeout),
		rcon.StaticEndpoint(endpoint.Address, endpoint.Password),
		rcon.WithTimeout(*timeout),
	)
	defer session.Close()

	exit := 0
	for _, arg := range commands {
		if err := run(session, arg, *inventory); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", arg, err)
			exit = 1
		}
	}
	os.Exit(exit)
}

func run(session *rcon.Session, arg string, inventory bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	command := arg
	if inventory {
		command = parser.InventoryCommand(arg)
	}

	text, err := session.Execute(ctx, command)
	if err != nil {
		return err
	}
	if !inventory {
		fmt.Println(text)
		return nil
	}

	if parser.IsNoEntity(text) {
		fmt.Println("玩家不在线")
		return nil
	}
	normalized, ok := nbt.Normalize(parser.StripEcho(text, arg))
	if !ok {
		return fmt.Errorf("背包数据无法解析: %s", text)
	}
	fmt.Println(normalized)
	return nil
}

// resolveEndpoint 优先使用命令行参数，其次读取设置表
func resolveEndpoint(cfg *config.Config, addr, password string) (rcon.Endpoint, error) {
	if addr != "" {
		if !strings.Contains(addr, ":") {
			addr = net.JoinHostPort(addr, strconv.Itoa(cfg.RCON.Port))
		}
		return rcon.Endpoint{Address: addr, Password: password}, nil
	}

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return rcon.Endpoint{}, err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	settings, err := repository.NewSettingsRepository(db).Get(context.Background())
	if err != nil {
		return rcon.Endpoint{}, err
	}
	if settings.RCONHost == "" {
		return rcon.Endpoint{Address: net.JoinHostPort(cfg.RCON.Host, strconv.Itoa(cfg.RCON.Port)), Password: cfg.RCON.Password}, nil
	}
	if password == "" {
		password = settings.RCONPassword
	}
	return rcon.Endpoint{Address: settings.RCONAddress(), Password: password}, nil
}
