package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"github.com/wfunc/minecraft-monitor/internal/monitor"
	"github.com/wfunc/minecraft-monitor/internal/nbt"
	"github.com/wfunc/minecraft-monitor/internal/repository"
	"github.com/wfunc/minecraft-monitor/internal/service"
	"github.com/wfunc/minecraft-monitor/internal/snapshot"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

const (
	aliceID = "11111111-1111-1111-1111-111111111111"
	bobID   = "22222222-2222-2222-2222-222222222222"
)

type fakeMonitor struct {
	running bool
	err     error
}

func (m *fakeMonitor) Start(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.running = true
	return nil
}

func (m *fakeMonitor) Stop(ctx context.Context) error {
	if m.err != nil {
		return m.err
	}
	m.running = false
	return nil
}

func (m *fakeMonitor) IsRunning() bool { return m.running }

type fakeRCON bool

func (f fakeRCON) Connected() bool { return bool(f) }

type resetCounter struct{ n int }

func (r *resetCounter) Reset() { r.n++ }

// RouterTestSuite HTTP接口测试套件
type RouterTestSuite struct {
	suite.Suite
	db      *gorm.DB
	deps    Deps
	router  *Router
	monitor *fakeMonitor
	resets  *resetCounter
	token   string
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	s.db = repository.SetupTestDB(s.T())
	s.monitor = &fakeMonitor{}
	s.resets = &resetCounter{}
	services := service.NewServices(s.db, &service.Config{JWTSecret: "test", TokenExpiry: time.Hour}, s.resets, zap.NewNop())
	s.Require().NoError(services.Auth.EnsureAdmin(ctx, "admin", "secret"))

	s.deps = Deps{
		DB:          s.db,
		Services:    services,
		Monitor:     s.monitor,
		MetricsPath: "/metrics",
		Log:         zap.NewNop(),
	}
	s.router = NewRouter(s.deps)

	players := repository.NewPlayerRepository(s.db)
	inventory, ok := nbt.Normalize(`[{Slot: 0b, id: "minecraft:diamond_sword", Count: 1b, tag: {Damage: 12}}]`)
	s.Require().True(ok)
	alice := repository.CreateTestPlayer(aliceID, "Alice", 10, 64, -5, "minecraft:overworld")
	alice.Inventory = &inventory
	s.Require().NoError(players.Upsert(ctx, alice))

	bob := repository.CreateTestPlayer(bobID, "Bob", 1, 70, 2, "minecraft:the_end")
	bob.IsOnline = false
	s.Require().NoError(players.Upsert(ctx, bob))

	s.token = s.login("admin", "secret")
}

func (s *RouterTestSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.GetEngine().ServeHTTP(w, req)
	return w
}

func (s *RouterTestSuite) decode(w *httptest.ResponseRecorder, v interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (s *RouterTestSuite) login(username, password string) string {
	w := s.do(http.MethodPost, "/api/v1/auth/login", service.LoginRequest{Username: username, Password: password}, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var resp service.LoginResponse
	s.decode(w, &resp)
	return resp.Token
}

func (s *RouterTestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "healthy")
	s.NotContains(w.Body.String(), "rcon_connected")
}

func (s *RouterTestSuite) TestHealthReportsRCON() {
	for _, connected := range []bool{true, false} {
		deps := s.deps
		deps.RCON = fakeRCON(connected)
		s.router = NewRouter(deps)

		var body map[string]interface{}
		s.decode(s.do(http.MethodGet, "/health", nil, ""), &body)
		s.Equal(connected, body["rcon_connected"])
	}
}

func (s *RouterTestSuite) TestMetrics() {
	w := s.do(http.MethodGet, "/metrics", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "go_goroutines")
}

func (s *RouterTestSuite) TestLoginFailure() {
	w := s.do(http.MethodPost, "/api/v1/auth/login", service.LoginRequest{Username: "admin", Password: "nope"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "admin"}, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestServerStatus() {
	status := repository.NewServerStatusRepository(s.db)
	s.Require().NoError(status.Save(context.Background(), &models.ServerStatus{IsRunning: true, GameTime: 42, DayTime: 7, LastUpdate: time.Now()}))

	w := s.do(http.MethodGet, "/api/v1/server", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var got models.ServerStatus
	s.decode(w, &got)
	s.True(got.IsRunning)
	s.Equal(int64(42), got.GameTime)
}

func (s *RouterTestSuite) TestListPlayers() {
	var all []map[string]interface{}
	w := s.do(http.MethodGet, "/api/v1/players", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &all)
	s.Len(all, 2)
	s.Equal("Alice", all[0]["name"])
	s.Equal(true, all[0]["has_inventory"])
	s.NotContains(w.Body.String(), "diamond_sword")

	var online []map[string]interface{}
	w = s.do(http.MethodGet, "/api/v1/players?online=true", nil, "")
	s.decode(w, &online)
	s.Len(online, 1)

	w = s.do(http.MethodGet, "/api/v1/players?online=maybe", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestGetPlayer() {
	w := s.do(http.MethodGet, "/api/v1/players/"+bobID, nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var got models.Player
	s.decode(w, &got)
	s.Equal("Bob", got.Name)
	s.False(got.IsOnline)
	s.Equal("minecraft:the_end", got.Coordinates.Dimension)

	w = s.do(http.MethodGet, "/api/v1/players/33333333-3333-3333-3333-333333333333", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/players/not-a-uuid", nil, "")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestInventory() {
	w := s.do(http.MethodGet, "/api/v1/players/"+aliceID+"/inventory", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var items []nbt.Item
	s.decode(w, &items)
	s.Require().Len(items, 1)
	s.Equal("minecraft:diamond_sword", items[0].ID)
	s.Equal(1, items[0].Count)

	w = s.do(http.MethodGet, "/api/v1/players/"+bobID+"/inventory", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *RouterTestSuite) TestMonitorRequiresAuth() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/monitor/start", nil, "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/settings", nil, "bogus").Code)
	s.False(s.monitor.running)
}

func (s *RouterTestSuite) TestMonitorStartStop() {
	w := s.do(http.MethodPost, "/api/v1/monitor/start", nil, s.token)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"running":true}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/monitor", nil, s.token)
	s.JSONEq(`{"running":true}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/monitor/stop", nil, s.token)
	s.JSONEq(`{"running":false}`, w.Body.String())

	s.monitor.err = errors.New(errors.ErrMonitorNotStarted)
	w = s.do(http.MethodPost, "/api/v1/monitor/start", nil, s.token)
	s.Equal(http.StatusInternalServerError, w.Code)
}

func (s *RouterTestSuite) TestMonitorLogsOperator() {
	core, logs := observer.New(zap.InfoLevel)
	deps := s.deps
	deps.Log = zap.New(core)
	s.router = NewRouter(deps)

	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/v1/monitor/start", nil, s.token).Code)
	s.Require().Equal(http.StatusOK, s.do(http.MethodPost, "/api/v1/monitor/stop", nil, s.token).Code)

	for _, msg := range []string{"开始监控", "停止监控"} {
		entries := logs.FilterMessage(msg).All()
		s.Require().Len(entries, 1, msg)
		s.Equal("admin", entries[0].ContextMap()["operator"])
	}

	// 失败的请求不记录操作
	s.monitor.err = errors.New(errors.ErrMonitorNotStarted)
	s.do(http.MethodPost, "/api/v1/monitor/start", nil, s.token)
	s.Len(logs.FilterMessage("开始监控").All(), 1)
}

func (s *RouterTestSuite) TestSettings() {
	w := s.do(http.MethodPut, "/api/v1/settings", service.UpdateRCONRequest{Host: "mc.local", Port: 25580, Password: "pw"}, s.token)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.NotContains(w.Body.String(), `"pw"`)
	s.Equal(1, s.resets.n)

	var got service.SettingsResponse
	w = s.do(http.MethodGet, "/api/v1/settings", nil, s.token)
	s.decode(w, &got)
	s.Equal("mc.local", got.RCONHost)
	s.Equal(25580, got.RCONPort)
	s.True(got.HasRCONPassword)

	w = s.do(http.MethodPut, "/api/v1/settings", map[string]interface{}{"host": "mc", "port": 0}, s.token)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterTestSuite) TestNoRoute() {
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/nope", nil, "").Code)
	// 未启用 Redis 时不注册快照接口
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/v1/snapshot", nil, "").Code)
}

func (s *RouterTestSuite) TestSnapshot() {
	mr := miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	publisher := snapshot.NewPublisher(client, repository.NewStore(s.db), "mc:snapshot", "mc:events")
	deps := s.deps
	deps.Snapshot = publisher
	s.router = NewRouter(deps)

	w := s.do(http.MethodGet, "/api/v1/snapshot", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	ev := monitor.Event{Type: monitor.EventUpdated, Running: true, ServerUp: true, PlayersOnline: 1, Time: time.Now()}
	s.Require().NoError(publisher.Publish(context.Background(), ev))

	w = s.do(http.MethodGet, "/api/v1/snapshot", nil, "")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var got snapshot.Snapshot
	s.decode(w, &got)
	s.Equal(monitor.EventUpdated, got.Event.Type)
	s.Equal(1, got.Event.PlayersOnline)
	s.Len(got.Players, 2)
	s.NotContains(w.Body.String(), "diamond_sword")

	mr.Close()
	w = s.do(http.MethodGet, "/api/v1/snapshot", nil, "")
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *RouterTestSuite) TestOpenAPIDocumentsEveryRoute() {
	w := s.do(http.MethodGet, "/openapi", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "yaml")

	var doc struct {
		OpenAPI string                            `yaml:"openapi"`
		Paths   map[string]map[string]interface{} `yaml:"paths"`
	}
	s.Require().NoError(yaml.Unmarshal(w.Body.Bytes(), &doc))
	s.Equal("3.0.3", doc.OpenAPI)

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	deps := s.deps
	deps.Snapshot = snapshot.NewPublisher(client, repository.NewStore(s.db), "k", "c")
	for _, route := range NewRouter(deps).GetEngine().Routes() {
		if !strings.HasPrefix(route.Path, "/api/") {
			continue
		}
		path := route.Path
		for _, seg := range strings.Split(route.Path, "/") {
			if strings.HasPrefix(seg, ":") {
				path = strings.Replace(path, seg, "{"+seg[1:]+"}", 1)
			}
		}
		ops, ok := doc.Paths[path]
		if s.True(ok, "文档缺少路径 %s", path) {
			s.Contains(ops, strings.ToLower(route.Method), "文档缺少 %s %s", route.Method, path)
		}
	}

	w = s.do(http.MethodGet, "/docs/redoc", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `spec-url="/openapi"`)
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}
