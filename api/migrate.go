package main

import (
	"database/sql"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/rogerio-castellano/product-management/internal/config"
	"github.com/rogerio-castellano/product-management/internal/db"
	"github.com/rogerio-castellano/product-management/internal/logger"
)

func withDatabase(c *cli.Context, fn func(database *sql.DB, log *zap.Logger) error) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	log, err := logger.Init(cfg.Env, cfg.Log.Level, "migrate")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	database, err := db.Connect(c.Context, cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database, log)
}

func migrateUp(c *cli.Context) error {
	return withDatabase(c, func(database *sql.DB, log *zap.Logger) error {
		if err := db.MigrateUp(database); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	})
}

func migrateDown(c *cli.Context) error {
	return withDatabase(c, func(database *sql.DB, log *zap.Logger) error {
		steps := c.Int("steps")
		if err := db.MigrateDown(database, steps); err != nil {
			return err
		}
		log.Info("migrations rolled back", zap.Int("steps", steps))
		return nil
	})
}

func migrateVersion(c *cli.Context) error {
	return withDatabase(c, func(database *sql.DB, log *zap.Logger) error {
		v, dirty, err := db.Version(database)
		if err != nil {
			return err
		}
		log.Info("schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	})
}
