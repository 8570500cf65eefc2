// persistence/gorm_postgresql.go
package persistence

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wfunc/baucua-server/models"
)

// GormPostgreSQL 使用GORM的PostgreSQL实现
type GormPostgreSQL struct {
	db *gorm.DB
}

// NewGormPostgreSQL 创建GORM PostgreSQL数据库连接
func NewGormPostgreSQL(host string, port int, user, password, dbname string) (*GormPostgreSQL, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	// 配置GORM日志
	gormLogger := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormlogger.Silent,
			Colorful:      false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// 自动迁移表结构
	if err := db.AutoMigrate(&models.GormRoundRecord{}, &models.GormRoomSnapshot{}); err != nil {
		return nil, err
	}

	return &GormPostgreSQL{db: db}, nil
}

// SaveRoundRecord 保存局记录
func (p *GormPostgreSQL) SaveRoundRecord(record *models.RoundRecord) error {
	dice, err := json.Marshal(record.Dice)
	if err != nil {
		return err
	}
	results, err := json.Marshal(record.Results)
	if err != nil {
		return err
	}

	row := models.GormRoundRecord{
		RoomID:        record.RoomID,
		RoundID:       record.RoundID,
		RoundNumber:   record.RoundNumber,
		Dice:          dice,
		Results:       results,
		BankerDelta:   record.BankerDelta,
		BankerBalance: record.BankerBalance,
	}
	return p.db.Create(&row).Error
}

// SaveRoomSnapshot 保存房间快照
func (p *GormPostgreSQL) SaveRoomSnapshot(snapshot *models.RoomSnapshot) error {
	row := models.GormRoomSnapshot{
		RoomID:        snapshot.RoomID,
		HostName:      snapshot.HostName,
		Phase:         snapshot.Phase,
		BankerBalance: snapshot.BankerBalance,
		PlayerCount:   snapshot.PlayerCount,
		RoundsPlayed:  snapshot.RoundsPlayed,
	}
	return p.db.Create(&row).Error
}

// RoomStats 聚合单个房间的局数与庄家盈亏
func (p *GormPostgreSQL) RoomStats(roomID string) (*models.RoomStats, error) {
	stats := models.RoomStats{RoomID: roomID}

	err := p.db.Raw(
		`
        SELECT
            COUNT(*) as total_rounds,
            COALESCE(SUM(banker_delta), 0) as total_banker_delta
        FROM gorm_round_records
        WHERE room_id = ? AND deleted_at IS NULL`,
		roomID,
	).Row().Scan(&stats.TotalRounds, &stats.TotalBankerDelta)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// Close 关闭数据库连接
func (p *GormPostgreSQL) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
