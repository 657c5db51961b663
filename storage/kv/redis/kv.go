package kvredis

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/shule/core"
)

// Keeper is a Redis-backed core.Keeper. Keys are stored without TTL;
// credential expiry is enforced by the credential itself.
type Keeper struct {
	client redis.UniversalClient
}

var _ core.Keeper = (*Keeper)(nil) // interface compliance check

func New(client redis.UniversalClient) *Keeper {
	return &Keeper{client: client}
}

// NewClient opens a Redis client from the app config.
func NewClient(conf *core.Config) redis.UniversalClient {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

func (k *Keeper) Get(ctx context.Context, key string) (string, error) {
	val, err := k.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", core.ErrKeyNotFound
		}
		return "", errors.Wrap(err, "redis get")
	}
	return val, nil
}

func (k *Keeper) Set(ctx context.Context, key, value string) error {
	if err := k.client.Set(ctx, key, value, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (k *Keeper) Remove(ctx context.Context, key string) error {
	if err := k.client.Del(ctx, key).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}
