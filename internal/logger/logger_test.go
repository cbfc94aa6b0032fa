package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/minecraft-monitor/internal/config"
)

func TestInitFileOutput(t *testing.T) {
	dir := t.TempDir()
	err := Init(&config.LogConfig{
		Level:  "debug",
		Format: "json",
		Output: "file",
		File: config.LogFileConfig{
			Path:     dir,
			Filename: "monitor.log",
			MaxSize:  1,
		},
		Modules: map[string]string{"rcon": "debug"},
	})
	require.NoError(t, err)

	LogRCONCommand("time query gametime", 12*time.Millisecond, nil)
	LogRCONCommand("list uuids", time.Second, errors.New("i/o timeout"))
	LogWebSocketMessage("receive", "ping", `{"type":"ping"}`)
	LogDatabaseOperation("upsert", "players", 3*time.Millisecond, nil)
	LogDatabaseOperation("save", "server_status", time.Millisecond, errors.New("database is locked"))
	Info("started")
	require.NoError(t, Sync())
	_ = GetModuleLogger("rcon").Sync()

	data, err := os.ReadFile(filepath.Join(dir, "monitor.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "rcon_command")
	assert.Contains(t, string(data), "i/o timeout")
	assert.Contains(t, string(data), "started")
	assert.Contains(t, string(data), "ws_message")
	assert.Contains(t, string(data), "database_operation")
	assert.Contains(t, string(data), "database is locked")

	t.Run("动态调整级别", func(t *testing.T) {
		SetLevel("error")
		assert.Equal(t, "error", Level())
		SetLevel("info")
		assert.Equal(t, "info", Level())
	})

	t.Run("未配置的模块回退到主日志器", func(t *testing.T) {
		assert.NotNil(t, GetModuleLogger("snapshot"))
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("debug").String())
	assert.Equal(t, "warn", parseLevel("warn").String())
	assert.Equal(t, "info", parseLevel("bogus").String())
}
