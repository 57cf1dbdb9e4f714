package redisdb

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/censo/core"
)

const maxUpdateRetries = 50

// DB is a redis backed key-value store. Every write publishes the written key on
// channel so other processes can refresh their state.
type DB struct {
	client  *redis.Client
	channel string
}

var (
	_ core.KVStore   = (*DB)(nil)
	_ core.KVWatcher = (*DB)(nil)
)

func Open(ctx context.Context, conf core.StorageConfig) (*DB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return New(client, conf.RedisChannel), nil
}

func New(client *redis.Client, channel string) *DB {
	return &DB{client: client, channel: channel}
}

func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := db.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, core.ErrKeyNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "getting "+key)
	}
	return val, nil
}

func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	if err := db.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "setting "+key)
	}
	db.publish(ctx, key)
	return nil
}

// Update uses optimistic locking (WATCH/MULTI) and retries when the key changed underneath.
func (db *DB) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			current = nil
		} else if err != nil {
			return errors.Wrap(err, "getting "+key)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := db.client.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			return err
		}
		db.publish(ctx, key)
		return nil
	}
	return errors.Errorf("updating %s: too much contention", key)
}

func (db *DB) publish(ctx context.Context, key string) {
	if db.channel == "" {
		return
	}
	// readers also poll, a lost notification only delays them
	_ = db.client.Publish(ctx, db.channel, key).Err()
}

// Watch streams the keys written by any process until ctx is done.
func (db *DB) Watch(ctx context.Context) (<-chan string, error) {
	if db.channel == "" {
		return nil, errors.New("no redis channel configured")
	}
	sub := db.client.Subscribe(ctx, db.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, errors.Wrap(err, "subscribing to "+db.channel)
	}

	keys := make(chan string)
	go func() {
		defer close(keys)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case keys <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return keys, nil
}

func (db *DB) Close() error {
	return db.client.Close()
}
