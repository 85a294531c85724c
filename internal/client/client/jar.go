package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// CookieStore persists the cookies of the API host between runs.
type CookieStore interface {
	LoadCookies(ctx context.Context) ([]*http.Cookie, error)
	SaveCookies(ctx context.Context, cookies []*http.Cookie) error
}

// Jar is an http.CookieJar scoped to the API host. With a CookieStore it
// restores cookies on creation and saves them on Save.
type Jar struct {
	*cookiejar.Jar
	base  *url.URL
	store CookieStore
}

// NewJar creates a jar for baseURL. store may be nil.
func NewJar(ctx context.Context, baseURL string, store CookieStore) (*Jar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	// cookies set with Path=/ on the host must match the API prefix
	if base.Path == "" || base.Path[len(base.Path)-1] != '/' {
		base.Path += "/"
	}

	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	j := &Jar{Jar: inner, base: base, store: store}
	if err := j.Load(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

// Load merges the stored cookies into the jar, replacing cookies of the same
// name. Another process sharing the store may have rotated them.
func (j *Jar) Load(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	cookies, err := j.store.LoadCookies(ctx)
	if err != nil {
		return fmt.Errorf("load cookies: %w", err)
	}
	if len(cookies) > 0 {
		j.SetCookies(&url.URL{Scheme: j.base.Scheme, Host: j.base.Host, Path: "/"}, cookies)
	}
	return nil
}

// Value returns the value of the named cookie as it would be sent to u.
func (j *Jar) Value(u *url.URL, name string) (string, bool) {
	for _, c := range j.Cookies(u) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Save writes the cookies currently sent to the base URL to the store.
func (j *Jar) Save(ctx context.Context) error {
	if j.store == nil {
		return nil
	}
	return j.store.SaveCookies(ctx, j.Cookies(j.base))
}
