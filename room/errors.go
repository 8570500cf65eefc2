// room/errors.go
package room

// Error 可预期的业务失败。Code 面向机器，Message 面向用户；Fatal 标记
// 需要整房处理的失败（房间不存在/已关闭），其余都只回给发起请求的客户端。
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"-"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	ErrRoomFull            = &Error{Code: "room_full", Message: "Room is full"}
	ErrRoomNotFound        = &Error{Code: "room_not_found", Message: "Room not found", Fatal: true}
	ErrRoomClosed          = &Error{Code: "room_closed", Message: "Host left and no player could take over", Fatal: true}
	ErrPlayerNotFound      = &Error{Code: "player_not_found", Message: "Player not found"}
	ErrHostCannotBet       = &Error{Code: "host_cannot_bet", Message: "Host cannot bet"}
	ErrNotBettingPhase     = &Error{Code: "not_betting_phase", Message: "Not in betting phase"}
	ErrAlreadyConfirmed    = &Error{Code: "already_confirmed", Message: "Wager already confirmed"}
	ErrInvalidAmount       = &Error{Code: "invalid_amount", Message: "Invalid amount"}
	ErrInvalidBalance      = &Error{Code: "invalid_balance", Message: "Balance must be >= 0"}
	ErrInsufficientBalance = &Error{Code: "insufficient_balance", Message: "Insufficient balance"}
	ErrNoWagerPlaced       = &Error{Code: "no_wager_placed", Message: "Place a wager before confirming"}
	ErrNotHost             = &Error{Code: "not_host", Message: "Only host can roll"}
	ErrAlreadyRolling      = &Error{Code: "already_rolling", Message: "Roll already in flight"}
	ErrNoRollInFlight      = &Error{Code: "no_roll_in_flight", Message: "No roll in flight"}
	ErrNoPlayersConfirmed  = &Error{Code: "no_players_confirmed", Message: "No players confirmed"}
)
