// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"

	"github.com/wfunc/baucua-server/logger"
	"github.com/wfunc/baucua-server/session"
)

// 广播接口
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, payload interface{}) error
	BroadcastToRoomExcept(roomID, excludePlayerID string, msgID uint16, payload interface{}) error
	BroadcastToPlayer(playerID string, msgID uint16, payload interface{}) error
}

// 基于房间的广播器。房间成员关系由session维护，广播不碰Room本身。
type RoomBroadcaster struct {
	sessions *session.Manager
}

func NewRoomBroadcaster(sessions *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{sessions: sessions}
}

func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, payload interface{}) error {
	return b.BroadcastToRoomExcept(roomID, "", msgID, payload)
}

func (b *RoomBroadcaster) BroadcastToRoomExcept(roomID, excludePlayerID string, msgID uint16, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	for _, s := range b.sessions.GetByRoomID(roomID) {
		if excludePlayerID != "" && s.PlayerID() == excludePlayerID {
			continue
		}
		if err := s.Send(msgID, data); err != nil {
			// 发送失败由读循环统一处理掉线，这里只记日志
			logger.Log.Debugw("broadcast send failed", "session_id", s.ID, "msg_id", msgID, "error", err)
			continue
		}
	}
	return nil
}

func (b *RoomBroadcaster) BroadcastToPlayer(playerID string, msgID uint16, payload interface{}) error {
	s, exists := b.sessions.GetByPlayerID(playerID)
	if !exists {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.Send(msgID, data)
}
