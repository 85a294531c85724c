package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix namespaces the keys written by RedisStore.
const RedisKeyPrefix = "blogclient:"

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Close() error
}

// RedisStore keeps the credential and the cookie jar under two keys so that
// every process sharing the session can also refresh it.
type RedisStore struct {
	client     RedisClient
	key        string
	cookiesKey string
}

func NewRedisStore(client RedisClient) *RedisStore {
	return &RedisStore{
		client:     client,
		key:        RedisKeyPrefix + CurrentUserKey,
		cookiesKey: RedisKeyPrefix + cookiesKey,
	}
}

// OpenRedis connects to the server described by a redis:// URL and checks it
// answers PING within five seconds.
func OpenRedis(ctx context.Context, dsn string) (*RedisStore, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", opts.Addr, err)
	}

	return NewRedisStore(client), nil
}

func (r *RedisStore) Get(ctx context.Context) (models.Credential, bool, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Credential{}, false, nil
	}
	if err != nil {
		return models.Credential{}, false, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	cred, err := decode(b)
	if err != nil {
		return models.Credential{}, false, err
	}
	return cred, true, nil
}

func (r *RedisStore) Set(ctx context.Context, cred models.Credential) error {
	b, err := encode(cred)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

// Clear drops the credential and the cookies in one DEL.
func (r *RedisStore) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key, r.cookiesKey).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

// LoadCookies returns the cookies saved by SaveCookies, or nil.
func (r *RedisStore) LoadCookies(ctx context.Context) ([]*http.Cookie, error) {
	b, err := r.client.Get(ctx, r.cookiesKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.cookiesKey, err)
	}
	return decodeCookies(b)
}

// SaveCookies replaces the shared cookie set.
func (r *RedisStore) SaveCookies(ctx context.Context, cookies []*http.Cookie) error {
	b, err := encodeCookies(cookies)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.cookiesKey, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.cookiesKey, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
