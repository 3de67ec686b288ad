package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	badger "github.com/dgraph-io/badger/v3"
	"github.com/go-redis/redis/v8"
)

// ErrUnknownToken is returned by Registry.Lookup for a token id that was
// never saved or has been deleted.
var ErrUnknownToken = errors.New("token not registered")

// Registry records which token ids are live and who they belong to.
type Registry interface {
	Save(ctx context.Context, tokenID string, userID int) error
	Lookup(ctx context.Context, tokenID string) (int, error)
	Delete(ctx context.Context, tokenID string) error
}

// RedisRegistry keeps tokens in Redis under "token:<id>" without expiry.
type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(client *redis.Client) *RedisRegistry {
	return &RedisRegistry{client: client}
}

func redisKey(tokenID string) string {
	return "token:" + tokenID
}

func (r *RedisRegistry) Save(ctx context.Context, tokenID string, userID int) error {
	if err := r.client.Set(ctx, redisKey(tokenID), userID, 0).Err(); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Lookup(ctx context.Context, tokenID string) (int, error) {
	userID, err := r.client.Get(ctx, redisKey(tokenID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, ErrUnknownToken
	}
	if err != nil {
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	return userID, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, tokenID string) error {
	if err := r.client.Del(ctx, redisKey(tokenID)).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// BadgerRegistry keeps tokens in an embedded Badger store under "token_<id>".
type BadgerRegistry struct {
	db *badger.DB
}

func NewBadgerRegistry(db *badger.DB) *BadgerRegistry {
	return &BadgerRegistry{db: db}
}

func badgerKey(tokenID string) []byte {
	return []byte("token_" + tokenID)
}

func (r *BadgerRegistry) Save(_ context.Context, tokenID string, userID int) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(tokenID), []byte(strconv.Itoa(userID)))
	})
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (r *BadgerRegistry) Lookup(_ context.Context, tokenID string) (int, error) {
	var userID int
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(tokenID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			id, err := strconv.Atoi(string(val))
			if err != nil {
				return err
			}
			userID = id
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, ErrUnknownToken
	}
	if err != nil {
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	return userID, nil
}

func (r *BadgerRegistry) Delete(_ context.Context, tokenID string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(tokenID))
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
