// config/config.go
package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Database DatabaseConfig `mapstructure:"database"`
	Debug    bool           `mapstructure:"debug"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// GameConfig 游戏规则相关参数
type GameConfig struct {
	MaxPlayers           int   `mapstructure:"max_players"`            // 不含庄家
	MaxHistory           int   `mapstructure:"max_history"`
	InitialPlayerBalance int64 `mapstructure:"initial_player_balance"`
	InitialBankerBalance int64 `mapstructure:"initial_banker_balance"`
	RollDurationMS       int   `mapstructure:"roll_duration_ms"`
	DisconnectGraceMS    int   `mapstructure:"disconnect_grace_ms"`
}

// RollDuration is the fixed delay between the roll starting and resolving.
func (g GameConfig) RollDuration() time.Duration {
	return time.Duration(g.RollDurationMS) * time.Millisecond
}

// DisconnectGrace is how long a disconnected seat is held before failover.
func (g GameConfig) DisconnectGrace() time.Duration {
	return time.Duration(g.DisconnectGraceMS) * time.Millisecond
}

// ArchiveConfig 回合归档开关
type ArchiveConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"` // "gorm" or "postgres"
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AutomaticEnv()

	setDefaults()

	if err = viper.ReadInConfig(); err != nil {
		// 没有配置文件时使用默认值
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}

func setDefaults() {
	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("game.max_players", 10)
	viper.SetDefault("game.max_history", 50)
	viper.SetDefault("game.initial_player_balance", 1000)
	viper.SetDefault("game.initial_banker_balance", 1000000)
	viper.SetDefault("game.roll_duration_ms", 2000)
	viper.SetDefault("game.disconnect_grace_ms", 30000)
	viper.SetDefault("archive.enabled", false)
	viper.SetDefault("database.driver", "gorm")
	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", 5432)
}
