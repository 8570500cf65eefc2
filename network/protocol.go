package network

import (
	"math"

	"github.com/wfunc/baucua-server/room"
)

const (
	MsgTypeHeartbeat = 1
	MsgTypeError     = 2

	MsgTypeCreateRoom = 101
	MsgTypeJoinRoom   = 102
	MsgTypeLeaveRoom  = 103
	MsgTypeReconnect  = 104
	MsgTypeRoomList   = 105

	MsgTypeSetWager       = 201
	MsgTypeResetWager     = 202
	MsgTypeConfirmWager   = 203
	MsgTypeUnconfirmWager = 204
	MsgTypeStartRoll      = 205

	MsgTypeSetBalance       = 301
	MsgTypeSetBankerBalance = 302

	MsgTypeRoomJoined         = 401
	MsgTypePlayerJoined       = 403
	MsgTypePlayerLeft         = 404
	MsgTypePlayerDisconnected = 405
	MsgTypePlayerReconnected  = 406
	MsgTypeWagerUpdated       = 407
	MsgTypeConfirmUpdated     = 408
	MsgTypeRollingStarted     = 409
	MsgTypeRollResolved       = 410
	MsgTypeHostChanged        = 411
	MsgTypeRoomClosed         = 412
	MsgTypeBalanceUpdated     = 413
)

// Amount 客户端金额一律按JSON数值发送，入站时验证后转int64。
// 拒绝负数、小数、NaN/Inf，防止结算被污染。
type Amount float64

// Int64 validates and converts a wire amount. ok is false for anything
// that is not a non-negative integer representable in int64.
func (a Amount) Int64() (int64, bool) {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// ---- 入站 ----

type CreateRoomRequest struct {
	HostName      string `json:"host_name"`
	BankerBalance Amount `json:"banker_balance,omitempty"`
}

type JoinRoomRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
	PlayerID   string `json:"player_id,omitempty"` // 带上已有座位id即走重连路径
	Balance    Amount `json:"balance,omitempty"`
}

type ReconnectRequest struct {
	PlayerID string `json:"player_id"`
}

type SetWagerRequest struct {
	Symbol string `json:"symbol"`
	Amount Amount `json:"amount"`
}

type SetBalanceRequest struct {
	PlayerID string `json:"player_id"`
	Amount   Amount `json:"amount"`
}

type SetBankerBalanceRequest struct {
	Amount Amount `json:"amount"`
}

// ---- 出站 ----

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal,omitempty"`
}

type RoomJoinedResponse struct {
	PlayerID string         `json:"player_id"`
	IsHost   bool           `json:"is_host"`
	Room     room.RoomState `json:"room"`
}

type RoomListResponse struct {
	Rooms []room.RoomSummary `json:"rooms"`
}

type PlayerJoinedNotify struct {
	Player room.Player `json:"player"`
}

type PlayerLeftNotify struct {
	PlayerID string `json:"player_id"`
}

type PlayerPresenceNotify struct {
	PlayerID string `json:"player_id"`
	IsHost   bool   `json:"is_host"`
}

type WagerUpdatedNotify struct {
	PlayerID string      `json:"player_id"`
	Stakes   room.Stakes `json:"stakes"`
}

type ConfirmUpdatedNotify struct {
	PlayerID  string   `json:"player_id"`
	Confirmed bool     `json:"confirmed"`
	Players   []string `json:"players"`
}

type RollingStartedNotify struct {
	Players []string `json:"players"`
}

type RollResolvedNotify struct {
	Dice           [room.DiceCount]room.Symbol `json:"dice"`
	Results        []room.RoundPlayerResult `json:"results"`
	History        room.RoundHistory        `json:"history"`
	BankerBalance  int64                    `json:"banker_balance"`
	UpdatedPlayers []room.Player            `json:"updated_players"`
}

type HostChangedNotify struct {
	NewHostID   string `json:"new_host_id"`
	NewHostName string `json:"new_host_name"`
}

type RoomClosedNotify struct {
	RoomID string `json:"room_id"`
	Reason string `json:"reason,omitempty"`
}

type BalanceUpdatedNotify struct {
	PlayerID string `json:"player_id,omitempty"`
	Balance  int64  `json:"balance"`
	Banker   bool   `json:"banker,omitempty"`
}
