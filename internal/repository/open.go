package repository

import (
	"context"
	"fmt"

	"github.com/amiyamandal-dev/topalbums/internal/config"
	"github.com/amiyamandal-dev/topalbums/internal/repository/badger"
	"github.com/amiyamandal-dev/topalbums/internal/repository/redis"
	"github.com/amiyamandal-dev/topalbums/internal/repository/sqlite"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

// Open opens the store selected by cfg.Driver. The caller owns the returned
// store and must Close it.
func Open(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (FeedStore, error) {
	log = log.WithComponent("store")

	switch cfg.Driver {
	case "badger":
		db, err := badger.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Info("Opened badger store", "path", cfg.Path)
		return badger.NewFeedRepo(db), nil

	case "sqlite":
		db, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		log.Info("Opened sqlite store", "path", cfg.Path)
		return sqlite.NewFeedRepo(db), nil

	case "redis":
		client, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Connected to redis store", "addr", cfg.RedisAddr, "prefix", cfg.RedisPrefix)
		return redis.NewFeedRepo(client, cfg.RedisPrefix), nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
