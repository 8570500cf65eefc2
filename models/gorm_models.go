// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormRoundRecord 局记录模型
type GormRoundRecord struct {
	gorm.Model
	RoomID        string `gorm:"index;not null"`
	RoundID       string `gorm:"uniqueIndex;not null"`
	RoundNumber   int    `gorm:"not null"`
	Dice          []byte `gorm:"type:jsonb;not null"`
	Results       []byte `gorm:"type:jsonb;not null"`
	BankerDelta   int64  `gorm:"not null"`
	BankerBalance int64  `gorm:"not null"`
}

// GormRoomSnapshot 房间快照模型
type GormRoomSnapshot struct {
	gorm.Model
	RoomID        string `gorm:"index;not null"`
	HostName      string `gorm:"not null"`
	Phase         string `gorm:"not null"`
	BankerBalance int64  `gorm:"not null"`
	PlayerCount   int    `gorm:"default:0"`
	RoundsPlayed  int    `gorm:"default:0"`
}
