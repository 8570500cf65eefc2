// room/types.go
package room

import (
	"time"

	"github.com/wfunc/baucua-server/state"
)

// Player 房间内的一个玩家座位。庄家不占 Player 记录。
type Player struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Balance     int64  `json:"balance"`
	IsConnected bool   `json:"is_connected"`
	IsConfirmed bool   `json:"is_confirmed"`
}

// RoundPlayerResult is one player's settled outcome for a single round.
type RoundPlayerResult struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
	Stakes     Stakes `json:"stakes"`
	TotalStake int64  `json:"total_stake"`
	WinAmount  int64  `json:"win_amount"` // gross winnings, excluding refunded stakes
	Profit     int64  `json:"profit"`     // net against the stake debited at roll start
}

// RoundHistory 一个已结算回合的不可变记录
type RoundHistory struct {
	ID            string              `json:"id"`
	RoundNumber   int                 `json:"round_number"`
	Dice          [DiceCount]Symbol   `json:"dice"`
	Results       []RoundPlayerResult `json:"results"`
	BankerDelta   int64               `json:"banker_delta"`
	BankerBalance int64               `json:"banker_balance"`
	Timestamp     time.Time           `json:"timestamp"`
}

// RollResult is the settlement payload the transport layer broadcasts to the
// whole room after FinishRoll.
type RollResult struct {
	Dice           [DiceCount]Symbol   `json:"dice"`
	Results        []RoundPlayerResult `json:"results"`
	History        RoundHistory        `json:"history"`
	BankerBalance  int64               `json:"banker_balance"`
	UpdatedPlayers []Player            `json:"updated_players"`
}

// RoomSummary 房间浏览列表使用的只读投影
type RoomSummary struct {
	ID          string      `json:"id"`
	HostName    string      `json:"host_name"`
	PlayerCount int         `json:"player_count"`
	MaxPlayers  int         `json:"max_players"`
	Phase       state.Phase `json:"phase"`
}

// RoomState is the full serializable snapshot of a room. It is both the
// payload sent on join and the round-trip format accepted by Restore.
type RoomState struct {
	ID            string            `json:"id"`
	HostID        string            `json:"host_id"`
	HostName      string            `json:"host_name"`
	HostConnected bool              `json:"host_connected"`
	Phase         state.Phase       `json:"phase"`
	BankerBalance int64             `json:"banker_balance"`
	Players       []Player          `json:"players"` // join order
	Stakes        map[string]Stakes `json:"stakes"`
	Confirmed     []string          `json:"confirmed"`
	Dice          [DiceCount]Symbol `json:"dice"`
	History       []RoundHistory    `json:"history"` // newest first
	CurrentRound  int               `json:"current_round"`
}
