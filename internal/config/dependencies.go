package config

import (
	"context"
	"database/sql"
	"fmt"

	"task-management-api/configs"
	"task-management-api/internal/token"
	"task-management-api/pkg/database"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/go-redis/redis/v8"
)

// Dependencies holds the connections shared by the whole application.
type Dependencies struct {
	DB            *sql.DB
	RedisClient   *redis.Client
	Badger        *badger.DB
	TokenRegistry token.Registry
}

// Connect membuka database dan token registry sesuai cfg.TokenStore.
func Connect(ctx context.Context, cfg configs.Config) (*Dependencies, error) {
	db, err := database.ConnectDB(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	deps := &Dependencies{DB: db}

	switch cfg.TokenStore {
	case configs.TokenStoreBadger:
		deps.Badger, err = database.OpenBadger(cfg.BadgerDir)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.TokenRegistry = token.NewBadgerRegistry(deps.Badger)
	case configs.TokenStoreRedis:
		deps.RedisClient, err = database.ConnectRedis(ctx, cfg.RedisAddr(), cfg.RedisPassword)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.TokenRegistry = token.NewRedisRegistry(deps.RedisClient)
	default:
		deps.Close()
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
	return deps, nil
}

// Close menutup semua koneksi yang sudah terbuka.
func (d *Dependencies) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if d.RedisClient != nil {
		keep(d.RedisClient.Close())
	}
	if d.Badger != nil {
		keep(d.Badger.Close())
	}
	if d.DB != nil {
		keep(d.DB.Close())
	}
	return firstErr
}
