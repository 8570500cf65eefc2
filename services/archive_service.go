// services/archive_service.go
package services

import (
	"time"

	"github.com/wfunc/baucua-server/logger"
	"github.com/wfunc/baucua-server/models"
	"github.com/wfunc/baucua-server/persistence"
	"github.com/wfunc/baucua-server/room"
)

// RoundArchiver 把结算结果写入归档库。归档失败只记日志，
// 绝不阻塞或回滚已经广播给玩家的结算。
type RoundArchiver struct {
	db persistence.Database
}

func NewRoundArchiver(db persistence.Database) *RoundArchiver {
	return &RoundArchiver{db: db}
}

// Enabled reports whether an archive database is attached.
func (s *RoundArchiver) Enabled() bool {
	return s != nil && s.db != nil
}

// ArchiveRound converts a settled round into its archive record and stores it.
func (s *RoundArchiver) ArchiveRound(roomID string, history room.RoundHistory) {
	if !s.Enabled() {
		return
	}

	record := &models.RoundRecord{
		RoomID:        roomID,
		RoundID:       history.ID,
		RoundNumber:   history.RoundNumber,
		Dice:          make([]string, 0, len(history.Dice)),
		Results:       make([]models.RoundPlayerEntry, 0, len(history.Results)),
		BankerDelta:   history.BankerDelta,
		BankerBalance: history.BankerBalance,
		CreatedAt:     history.Timestamp,
	}
	for _, d := range history.Dice {
		record.Dice = append(record.Dice, d.String())
	}
	for _, res := range history.Results {
		entry := models.RoundPlayerEntry{
			PlayerID:   res.PlayerID,
			PlayerName: res.PlayerName,
			Stakes:     make(map[string]int64),
			TotalStake: res.TotalStake,
			WinAmount:  res.WinAmount,
			Profit:     res.Profit,
		}
		for sym := room.Symbol(0); sym < room.NumSymbols; sym++ {
			if amount := res.Stakes[sym]; amount > 0 {
				entry.Stakes[sym.String()] = amount
			}
		}
		record.Results = append(record.Results, entry)
	}

	if err := s.db.SaveRoundRecord(record); err != nil {
		logger.Log.Errorw("round archive failed", "room_id", roomID, "round_id", history.ID, "error", err)
	}
}

// ArchiveRoomClose stores the final snapshot of a closing room.
func (s *RoundArchiver) ArchiveRoomClose(st room.RoomState) {
	if !s.Enabled() {
		return
	}

	snapshot := &models.RoomSnapshot{
		RoomID:        st.ID,
		HostName:      st.HostName,
		Phase:         string(st.Phase),
		BankerBalance: st.BankerBalance,
		PlayerCount:   len(st.Players),
		RoundsPlayed:  st.CurrentRound,
		ClosedAt:      time.Now(),
	}
	if err := s.db.SaveRoomSnapshot(snapshot); err != nil {
		logger.Log.Errorw("room snapshot archive failed", "room_id", st.ID, "error", err)
	}
}

// Stats returns the archived aggregate for a room.
func (s *RoundArchiver) Stats(roomID string) (*models.RoomStats, error) {
	if !s.Enabled() {
		return nil, persistence.ErrRecordNotFound
	}
	return s.db.RoomStats(roomID)
}
