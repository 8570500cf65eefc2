// models/models.go
package models

import (
	"time"
)

// RoundRecord 一局结算的归档记录
type RoundRecord struct {
	RoomID        string              `json:"room_id"`
	RoundID       string              `json:"round_id"`
	RoundNumber   int                 `json:"round_number"`
	Dice          []string            `json:"dice"`
	Results       []RoundPlayerEntry  `json:"results"`
	BankerDelta   int64               `json:"banker_delta"`
	BankerBalance int64               `json:"banker_balance"`
	CreatedAt     time.Time           `json:"created_at"`
}

// RoundPlayerEntry 归档记录里的单个玩家结算行
type RoundPlayerEntry struct {
	PlayerID   string           `json:"player_id"`
	PlayerName string           `json:"player_name"`
	Stakes     map[string]int64 `json:"stakes"`
	TotalStake int64            `json:"total_stake"`
	WinAmount  int64            `json:"win_amount"`
	Profit     int64            `json:"profit"`
}

// RoomSnapshot 房间关闭时的最终快照，仅用于事后查账
type RoomSnapshot struct {
	RoomID        string    `json:"room_id"`
	HostName      string    `json:"host_name"`
	Phase         string    `json:"phase"`
	BankerBalance int64     `json:"banker_balance"`
	PlayerCount   int       `json:"player_count"`
	RoundsPlayed  int       `json:"rounds_played"`
	ClosedAt      time.Time `json:"closed_at"`
}

// RoomStats 单个房间的聚合统计
type RoomStats struct {
	RoomID           string `json:"room_id"`
	TotalRounds      int64  `json:"total_rounds"`
	TotalBankerDelta int64  `json:"total_banker_delta"`
}
