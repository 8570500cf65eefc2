package main

import (
	"github.com/wfunc/baucua-server/config"
	"github.com/wfunc/baucua-server/logger"
	"github.com/wfunc/baucua-server/monitor"
	"github.com/wfunc/baucua-server/persistence"
	"github.com/wfunc/baucua-server/server"
	"github.com/wfunc/baucua-server/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		panic(err)
	}

	// Initialize logger
	logger.Init(cfg.Debug)
	defer logger.Sync()

	// Initialize round archive (optional)
	var db persistence.Database
	if cfg.Archive.Enabled {
		switch cfg.Database.Driver {
		case "postgres":
			db, err = persistence.NewPostgreSQL(
				cfg.Database.Postgres.Host,
				cfg.Database.Postgres.Port,
				cfg.Database.Postgres.User,
				cfg.Database.Postgres.Password,
				cfg.Database.Postgres.DBName,
			)
		default:
			db, err = persistence.NewGormPostgreSQL(
				cfg.Database.Postgres.Host,
				cfg.Database.Postgres.Port,
				cfg.Database.Postgres.User,
				cfg.Database.Postgres.Password,
				cfg.Database.Postgres.DBName,
			)
		}
		if err != nil {
			logger.Log.Fatalf("Failed to connect to archive database: %v", err)
		}
		defer db.Close()
		logger.Log.Info("Archive database connection successful.")
	}
	archiver := services.NewRoundArchiver(db)

	// Metrics endpoint
	mon := monitor.NewMonitor("baucua")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, archiver, mon)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
