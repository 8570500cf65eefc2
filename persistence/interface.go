// persistence/interface.go
package persistence

import (
	"fmt"

	"github.com/wfunc/baucua-server/models"
)

// Database 归档数据库接口。只写不读回：房间从不从库里恢复，
// 记录仅用于事后查账和统计。
type Database interface {
	SaveRoundRecord(record *models.RoundRecord) error
	SaveRoomSnapshot(snapshot *models.RoomSnapshot) error
	RoomStats(roomID string) (*models.RoomStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
)
