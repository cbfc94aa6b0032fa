package models

import (
	"time"

	"github.com/google/uuid"
)

// Player 玩家记录，首次出现在在线列表时创建，之后只更新不删除
type Player struct {
	ID           uuid.UUID    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name         string       `gorm:"size:64;index" json:"name"`
	IsOnline     bool         `gorm:"index" json:"is_online"`
	LastOnlineAt time.Time    `json:"last_online_at"`
	Inventory    *string      `gorm:"type:text" json:"-"`
	Coordinates  *Coordinates `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE" json:"coordinates,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TableName 指定表名
func (Player) TableName() string {
	return "players"
}

// HasInventory 是否有背包快照
func (p *Player) HasInventory() bool {
	return p.Inventory != nil && *p.Inventory != ""
}

// Coordinates 玩家坐标，离线时保留最后已知位置
type Coordinates struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PlayerID  uuid.UUID `gorm:"type:varchar(36);uniqueIndex;not null" json:"-"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Z         int       `json:"z"`
	Dimension string    `gorm:"size:64" json:"dimension"`
}

// TableName 指定表名
func (Coordinates) TableName() string {
	return "coordinates"
}
