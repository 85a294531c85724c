package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dmitrijs2005/blogclient/internal/common"
	"github.com/stretchr/testify/require"
)

type memCookies struct {
	cookies []*http.Cookie
	saves   int
	loadErr error
}

func (m *memCookies) LoadCookies(context.Context) ([]*http.Cookie, error) {
	return m.cookies, m.loadErr
}

func (m *memCookies) SaveCookies(_ context.Context, c []*http.Cookie) error {
	m.cookies = c
	m.saves++
	return nil
}

func TestJar_PersistsAndRestoresRefreshCookie(t *testing.T) {
	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/login/":
			http.SetCookie(w, &http.Cookie{Name: common.RefreshCookieName, Value: "R1", Path: "/", HttpOnly: true})
		case "/api/refresh/":
			if c, err := r.Cookie(common.RefreshCookieName); err == nil {
				sent = c.Value
			}
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	store := &memCookies{}

	j1, err := NewJar(ctx, srv.URL+"/api", store)
	require.NoError(t, err)
	c1, err := New(srv.URL+"/api", WithJar(j1))
	require.NoError(t, err)

	login, _ := NewRequest(http.MethodPost, "/login/", nil)
	_, err = c1.Do(ctx, login)
	require.NoError(t, err)
	require.Equal(t, 1, store.saves)
	require.Len(t, store.cookies, 1)

	// a second process starts from the persisted cookies
	j2, err := NewJar(ctx, srv.URL+"/api", store)
	require.NoError(t, err)
	c2, err := New(srv.URL+"/api", WithJar(j2))
	require.NoError(t, err)

	refresh, _ := NewRequest(http.MethodPost, "/refresh/", nil)
	_, err = c2.Do(ctx, refresh)
	require.NoError(t, err)
	require.Equal(t, "R1", sent)
	require.Equal(t, 1, store.saves, "no Set-Cookie, nothing to save")
}

func TestNewJar_LoadError(t *testing.T) {
	boom := errors.New("disk gone")
	_, err := NewJar(context.Background(), "http://localhost:8000/api", &memCookies{loadErr: boom})
	require.ErrorIs(t, err, boom)
}
