package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/dmitrijs2005/blogclient/internal/common"
	"github.com/dmitrijs2005/blogclient/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newHTTPRequest(t *testing.T, method string) *http.Request {
	t.Helper()
	r, err := http.NewRequest(method, "http://api.example.org/api/posts/", nil)
	require.NoError(t, err)
	return r
}

func TestBearerToken(t *testing.T) {
	ctx := context.Background()

	r := newHTTPRequest(t, http.MethodGet)
	require.NoError(t, BearerToken(func(context.Context) (string, error) { return "T1", nil })(ctx, r))
	require.Equal(t, "Bearer T1", r.Header.Get(common.AuthorizationHeaderName))

	r = newHTTPRequest(t, http.MethodGet)
	require.NoError(t, BearerToken(func(context.Context) (string, error) { return "", nil })(ctx, r))
	require.Empty(t, r.Header.Get(common.AuthorizationHeaderName))

	r = newHTTPRequest(t, http.MethodGet)
	r.Header.Set(common.AuthorizationHeaderName, "Bearer explicit")
	require.NoError(t, BearerToken(func(context.Context) (string, error) { return "T1", nil })(ctx, r))
	require.Equal(t, "Bearer explicit", r.Header.Get(common.AuthorizationHeaderName))

	boom := errors.New("boom")
	r = newHTTPRequest(t, http.MethodGet)
	require.ErrorIs(t, BearerToken(func(context.Context) (string, error) { return "", boom })(ctx, r), boom)
}

func TestCSRF_OnlyUnsafeMethods(t *testing.T) {
	ctx := context.Background()
	j, err := NewJar(ctx, "http://api.example.org/api", nil)
	require.NoError(t, err)

	u, _ := url.Parse("http://api.example.org/")
	j.SetCookies(u, []*http.Cookie{{Name: common.CSRFCookieName, Value: "C1", Path: "/"}})

	post := newHTTPRequest(t, http.MethodPost)
	require.NoError(t, CSRF(j)(ctx, post))
	require.Equal(t, "C1", post.Header.Get(common.CSRFHeaderName))

	get := newHTTPRequest(t, http.MethodGet)
	require.NoError(t, CSRF(j)(ctx, get))
	require.Empty(t, get.Header.Get(common.CSRFHeaderName))
}

func TestCSRF_NoCookie(t *testing.T) {
	j, err := NewJar(context.Background(), "http://api.example.org/api", nil)
	require.NoError(t, err)

	r := newHTTPRequest(t, http.MethodDelete)
	require.NoError(t, CSRF(j)(context.Background(), r))
	require.Empty(t, r.Header.Get(common.CSRFHeaderName))
}

func TestRequestID(t *testing.T) {
	r := newHTTPRequest(t, http.MethodGet)
	require.NoError(t, RequestID()(context.Background(), r))

	id := r.Header.Get(common.RequestIDHeaderName)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	require.NoError(t, RequestID()(context.Background(), r))
	require.Equal(t, id, r.Header.Get(common.RequestIDHeaderName))
}

func TestLogResponses(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(logging.FormatText, "debug", &buf)
	require.NoError(t, err)

	h := LogResponses(l)
	req, _ := NewRequest(http.MethodGet, "/posts/", nil)

	h(context.Background(), RoundTrip{Request: req, Response: &Response{Status: 200}})
	require.Contains(t, buf.String(), "request completed")
	require.Contains(t, buf.String(), "status=200")

	buf.Reset()
	h(context.Background(), RoundTrip{Request: req, Err: connectionError(errors.New("refused"))})
	require.Contains(t, buf.String(), "request failed")
	require.Contains(t, buf.String(), "level=WARN")
}

func TestCSRF_EndToEnd(t *testing.T) {
	var gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.SetCookie(w, &http.Cookie{Name: common.CSRFCookieName, Value: "C9", Path: "/"})
			return
		}
		gotHeader = r.Header.Get(common.CSRFHeaderName)
	}))
	defer srv.Close()

	ctx := context.Background()
	j, err := NewJar(ctx, srv.URL+"/api", nil)
	require.NoError(t, err)

	c, err := New(srv.URL+"/api", WithJar(j), WithRequestTransforms(CSRF(j)))
	require.NoError(t, err)

	get, _ := NewRequest(http.MethodGet, "/csrf/", nil)
	_, err = c.Do(ctx, get)
	require.NoError(t, err)

	post, _ := NewRequest(http.MethodPost, "/posts/create/", map[string]string{"title": "t"})
	_, err = c.Do(ctx, post)
	require.NoError(t, err)
	require.Equal(t, "C9", gotHeader)
}

func TestReloadCookies_OnlyOnListedPaths(t *testing.T) {
	ctx := context.Background()
	store := &memCookies{cookies: []*http.Cookie{{Name: common.RefreshCookieName, Value: "R1", Path: "/"}}}
	j, err := NewJar(ctx, "http://api.example.org/api", store)
	require.NoError(t, err)

	u, _ := url.Parse("http://api.example.org/api/refresh/")
	v, _ := j.Value(u, common.RefreshCookieName)
	require.Equal(t, "R1", v)

	// another process rotated the cookie
	store.cookies = []*http.Cookie{{Name: common.RefreshCookieName, Value: "R2", Path: "/"}}

	reload := ReloadCookies(j, "/refresh/")

	require.NoError(t, reload(ctx, newHTTPRequest(t, http.MethodGet)))
	v, _ = j.Value(u, common.RefreshCookieName)
	require.Equal(t, "R1", v, "other paths do not touch the store")

	refresh, err := http.NewRequest(http.MethodPost, u.String(), nil)
	require.NoError(t, err)
	require.NoError(t, reload(ctx, refresh))
	v, _ = j.Value(u, common.RefreshCookieName)
	require.Equal(t, "R2", v)

	store.loadErr = errors.New("redis down")
	require.ErrorContains(t, reload(ctx, refresh), "load cookies: redis down")
}
