package models

import (
	"net"
	"strconv"
	"time"
)

// SingletonID 单例表固定主键
const SingletonID uint = 1

// Settings 系统设置（单例）
type Settings struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	RCONHost          string    `gorm:"column:rcon_host;size:255" json:"rcon_host"`
	RCONPort          int       `gorm:"column:rcon_port" json:"rcon_port"`
	RCONPassword      string    `gorm:"column:rcon_password;size:255" json:"-"`
	MonitorRunning    bool      `gorm:"default:false" json:"monitor_running"`
	AdminUsername     string    `gorm:"size:50" json:"admin_username"`
	AdminPasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Settings) TableName() string {
	return "settings"
}

// RCONAddress 远程控制台地址 host:port
func (s *Settings) RCONAddress() string {
	return net.JoinHostPort(s.RCONHost, strconv.Itoa(s.RCONPort))
}
