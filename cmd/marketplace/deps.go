package main

import (
	"context"
	"database/sql"
	"time"

	"nft-marketplace/internal/config"
	"nft-marketplace/internal/infrastructure/mysql"
	"nft-marketplace/pkg/logger"

	redisClient "github.com/go-redis/redis/v8"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const connectTimeout = 5 * time.Second

// normalizeDSN forces parseTime so DATETIME columns scan into time.Time.
func normalizeDSN(dsn string) (string, error) {
	parsed, err := mysqlDriver.ParseDSN(dsn)
	if err != nil {
		return "", errors.Wrap(err, "parse mysql dsn")
	}
	parsed.ParseTime = true
	return parsed.FormatDSN(), nil
}

func openMySQL(ctx context.Context, cfg config.MySQLConfig, log logger.Logger) (*sql.DB, error) {
	dsn, err := normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}
	log.Info("Connected to MySQL")

	if cfg.AutoMigrate {
		if err := mysql.RunMigrations(db); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("Database schema is up to date")
	}
	return db, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (*redisClient.Client, error) {
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrapf(err, "ping redis at %s", cfg.Address)
	}
	log.Info("Connected to Redis", "address", cfg.Address)
	return rdb, nil
}
