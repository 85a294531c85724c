package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/blogclient/internal/apitest"
	"github.com/dmitrijs2005/blogclient/internal/client/client"
	"github.com/dmitrijs2005/blogclient/internal/client/credentials"
)

// mapRedis is a map-backed credentials.RedisClient shared by several
// processes in one test.
type mapRedis struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *mapRedis) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mapRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

func (m *mapRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mapRedis) Close() error { return nil }

// startProcess wires a manager over store the way the CLI does, including
// cookie persistence when the store supports it.
func startProcess(t *testing.T, srv *apitest.Server, store credentials.Store) *Manager {
	t.Helper()
	ctx := context.Background()

	cookies, _ := store.(client.CookieStore)
	jar, err := client.NewJar(ctx, srv.BaseURL(), cookies)
	require.NoError(t, err)
	c, err := client.New(srv.BaseURL(),
		client.WithJar(jar),
		client.WithRequestTransforms(
			client.ReloadCookies(jar, PathRefresh),
			client.BearerToken(credentials.TokenFunc(store)),
			client.CSRF(jar),
		),
	)
	require.NoError(t, err)

	m, err := NewManager(ctx, c, store)
	require.NoError(t, err)
	return m
}

func TestManager_SharedRedisSession_SecondProcessRefreshes(t *testing.T) {
	ctx := context.Background()
	srv := apitest.New(t)
	alice := srv.AddUser("alice", "alice@example.org", "pw", false)
	srv.AddPost(alice.ID, "Hello", "World")

	shared := &mapRedis{data: map[string]string{}}

	first := startProcess(t, srv, credentials.NewRedisStore(shared))
	_, err := first.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	// another machine picks up the session
	second := startProcess(t, srv, credentials.NewRedisStore(shared))
	require.Equal(t, Authenticated, second.State())

	srv.ExpireAccessTokens()

	_, err = second.Do(ctx, getPost(t, "1"))
	require.NoError(t, err)
	require.Equal(t, 1, srv.RefreshCalls())

	_, found, err := credentials.NewRedisStore(shared).Get(ctx)
	require.NoError(t, err)
	require.True(t, found, "the shared credential survives")

	// the first process now holds a rotated-away cookie in memory; it must
	// pick the current one from the store on its next refresh
	srv.ExpireAccessTokens()

	_, err = first.Do(ctx, getPost(t, "1"))
	require.NoError(t, err)
	require.Equal(t, 2, srv.RefreshCalls())
	require.Equal(t, Authenticated, first.State())
}

func TestManager_SQLiteSession_RefreshesAfterRestart(t *testing.T) {
	ctx := context.Background()
	srv := apitest.New(t)
	alice := srv.AddUser("alice", "alice@example.org", "pw", false)
	srv.AddPost(alice.ID, "Hello", "World")
	path := filepath.Join(t.TempDir(), "client.db")

	store, err := credentials.OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = startProcess(t, srv, store).Login(ctx, "alice", "pw")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	srv.ExpireAccessTokens()

	store, err = credentials.OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	m := startProcess(t, srv, store)
	require.Equal(t, Authenticated, m.State(), "session restored from disk")

	_, err = m.Do(ctx, getPost(t, "1"))
	require.NoError(t, err)
	require.Equal(t, 1, srv.RefreshCalls())
}
