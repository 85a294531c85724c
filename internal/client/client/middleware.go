package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/blogclient/internal/common"
	"github.com/dmitrijs2005/blogclient/internal/logging"
	"github.com/google/uuid"
)

// TokenSource returns the current bearer token, or "" when there is none.
type TokenSource func(ctx context.Context) (string, error)

// BearerToken sets "Authorization: Bearer <token>" when a token is available.
// An explicit Authorization header on the request is left alone.
func BearerToken(src TokenSource) RequestTransform {
	return func(ctx context.Context, r *http.Request) error {
		if r.Header.Get(common.AuthorizationHeaderName) != "" {
			return nil
		}
		token, err := src(ctx)
		if err != nil {
			return err
		}
		if token != "" {
			r.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
		}
		return nil
	}
}

// CSRF echoes the csrftoken cookie in the X-CSRFToken header of unsafe
// requests.
func CSRF(j *Jar) RequestTransform {
	return func(_ context.Context, r *http.Request) error {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			return nil
		}
		if v, ok := j.Value(r.URL, common.CSRFCookieName); ok {
			r.Header.Set(common.CSRFHeaderName, v)
		}
		return nil
	}
}

// ReloadCookies reloads the jar from its store before requests whose path
// ends with one of paths. Processes sharing a store rotate the refresh
// cookie behind each other's back, so the refresh call must send the latest.
func ReloadCookies(j *Jar, paths ...string) RequestTransform {
	return func(ctx context.Context, r *http.Request) error {
		for _, p := range paths {
			if strings.HasSuffix(r.URL.Path, "/"+strings.TrimLeft(p, "/")) {
				return j.Load(ctx)
			}
		}
		return nil
	}
}

// RequestID tags each request with a fresh X-Request-ID.
func RequestID() RequestTransform {
	return func(_ context.Context, r *http.Request) error {
		if r.Header.Get(common.RequestIDHeaderName) == "" {
			r.Header.Set(common.RequestIDHeaderName, uuid.NewString())
		}
		return nil
	}
}

// LogResponses reports every round trip at debug level and failures at warn.
func LogResponses(l logging.Logger) ResponseHandler {
	return func(ctx context.Context, rt RoundTrip) {
		args := []any{
			"method", rt.Request.Method,
			"path", rt.Request.Path,
			"retried", rt.Request.Retried,
			"elapsed", rt.Elapsed,
		}
		if rt.Response != nil {
			args = append(args, "status", rt.Response.Status)
		}

		if rt.Err != nil {
			l.Warn(ctx, "request failed", append(args, "error", rt.Err)...)
			return
		}
		l.Debug(ctx, "request completed", args...)
	}
}
