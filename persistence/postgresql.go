// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// PostgreSQL 驱动
	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/baucua-server/models"
)

// PostgreSQL 数据库实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	// 初始化表结构
	if err := initTables(db); err != nil {
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构
func initTables(db *sql.DB) error {
	// 创建局记录表
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS round_records (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(16) NOT NULL,
            round_id VARCHAR(64) UNIQUE NOT NULL,
            round_number INT NOT NULL,
            dice JSONB NOT NULL,
            results JSONB NOT NULL,
            banker_delta BIGINT NOT NULL,
            banker_balance BIGINT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建房间快照表
	_, err = db.Exec(`
        CREATE TABLE IF NOT EXISTS room_snapshots (
            id SERIAL PRIMARY KEY,
            room_id VARCHAR(16) NOT NULL,
            host_name VARCHAR(255) NOT NULL,
            phase VARCHAR(50) NOT NULL,
            banker_balance BIGINT NOT NULL,
            player_count INT NOT NULL,
            rounds_played INT NOT NULL,
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.Exec(`
        CREATE INDEX IF NOT EXISTS idx_round_records_room_id ON round_records(room_id);
        CREATE INDEX IF NOT EXISTS idx_round_records_created_at ON round_records(created_at);
        CREATE INDEX IF NOT EXISTS idx_room_snapshots_room_id ON room_snapshots(room_id);
    `)

	return err
}

// SaveRoundRecord 保存局记录
func (p *PostgreSQL) SaveRoundRecord(record *models.RoundRecord) error {
	dice, err := json.Marshal(record.Dice)
	if err != nil {
		return err
	}
	results, err := json.Marshal(record.Results)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO round_records (room_id, round_id, round_number, dice, results, banker_delta, banker_balance)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (round_id) DO NOTHING
    `

	_, err = p.db.ExecContext(ctx, query,
		record.RoomID,
		record.RoundID,
		record.RoundNumber,
		dice,
		results,
		record.BankerDelta,
		record.BankerBalance)

	return err
}

// SaveRoomSnapshot 保存房间快照
func (p *PostgreSQL) SaveRoomSnapshot(snapshot *models.RoomSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	query := `
        INSERT INTO room_snapshots (room_id, host_name, phase, banker_balance, player_count, rounds_played)
        VALUES ($1, $2, $3, $4, $5, $6)
    `

	_, err := p.db.ExecContext(ctx, query,
		snapshot.RoomID,
		snapshot.HostName,
		snapshot.Phase,
		snapshot.BankerBalance,
		snapshot.PlayerCount,
		snapshot.RoundsPlayed)

	return err
}

// RoomStats 聚合单个房间的局数与庄家盈亏
func (p *PostgreSQL) RoomStats(roomID string) (*models.RoomStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stats := models.RoomStats{RoomID: roomID}
	query := `
        SELECT COUNT(*), COALESCE(SUM(banker_delta), 0)
        FROM round_records
        WHERE room_id = $1
    `
	err := p.db.QueryRowContext(ctx, query, roomID).Scan(&stats.TotalRounds, &stats.TotalBankerDelta)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &stats, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
