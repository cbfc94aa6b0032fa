package models

import "time"

// ServerStatus 游戏服务器状态（单例，每个轮询周期更新）
type ServerStatus struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	IsRunning  bool      `json:"is_running"`
	GameTime   int64     `json:"game_time"`
	DayTime    int64     `json:"day_time"`
	LastUpdate time.Time `json:"last_update"`
}

// TableName 指定表名
func (ServerStatus) TableName() string {
	return "server_status"
}
