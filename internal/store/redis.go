package store

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/yanun0323/errors"
)

// redisCASScript swaps a record only when its current value matches the
// expectation, server-side so concurrent writers cannot interleave.
// KEYS[1] = record key
// ARGV[1] = "1" when the record must be absent, else "0"
// ARGV[2] = expected value (ignored when ARGV[1] == "1")
// ARGV[3] = next value
var redisCASScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if ARGV[1] == "1" then
    if current then
        return 0
    end
elseif current ~= ARGV[2] then
    return 0
end
redis.call("SET", KEYS[1], ARGV[3])
return 1
`)

// Redis backs the store with a redis instance, for deployments where
// multiple short-lived processes share the coordination records.
type Redis struct {
	client *redis.Client
	prefix string
}

// RedisOption configures the redis backend.
type RedisOption struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedis(opt RedisOption) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     opt.Addr,
			Password: opt.Password,
			DB:       opt.DB,
		}),
		prefix: opt.Prefix,
	}
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	return data, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}

func (r *Redis) CompareAndSwap(ctx context.Context, key string, expect, value []byte) (bool, error) {
	mustBeAbsent := "0"
	if expect == nil {
		mustBeAbsent = "1"
	}
	res, err := redisCASScript.Run(ctx, r.client,
		[]string{r.key(key)}, mustBeAbsent, string(expect), string(value)).Int()
	if err != nil {
		return false, errors.Wrap(err, "redis cas")
	}
	return res == 1, nil
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
