package websocket

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/minecraft-monitor/internal/monitor"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, string) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws", ServeWS(hub))
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return hub, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestConnectAndForward(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)

	assert.Equal(t, MessageTypeConnected, readMessage(t, conn).Type)
	assert.Eventually(t, func() bool { return hub.GetOnlineCount() == 1 }, time.Second, 5*time.Millisecond)

	events := make(chan monitor.Event, 2)
	events <- monitor.Event{Type: monitor.EventUpdated, Running: true, ServerUp: true, PlayersOnline: 3, Time: time.Now()}
	close(events)
	hub.Forward(context.Background(), events)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeUpdated, msg.Type)

	var ev monitor.Event
	require.NoError(t, json.Unmarshal(msg.Data, &ev))
	assert.True(t, ev.ServerUp)
	assert.Equal(t, 3, ev.PlayersOnline)
}

func TestClientPing(t *testing.T) {
	_, url := startHub(t)
	conn := dial(t, url)
	readMessage(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"subscribe"}`)))
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	readMessage(t, conn)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetOnlineCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(exited)
	}()

	client := &Client{ID: "c1", Hub: hub, Send: make(chan []byte, 4)}
	hub.Register(client)
	<-client.Send // connected

	cancel()
	<-exited

	_, ok := <-client.Send
	assert.False(t, ok)

	// 退出后的调用不会阻塞
	hub.Broadcast(&Message{Type: MessageTypePing})
	hub.Unregister(client)
	late := &Client{ID: "c2", Hub: hub, Send: make(chan []byte, 1)}
	hub.Register(late)
	_, ok = <-late.Send
	assert.False(t, ok)
}
