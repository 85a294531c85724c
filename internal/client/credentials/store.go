package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/blogclient/internal/client/models"
)

// CurrentUserKey is the fixed key the credential is stored under.
const CurrentUserKey = "user"

// cookiesKey is the key the persisted cookie jar is stored under.
const cookiesKey = "cookies"

// DSNMemory selects the in-memory backend in Open.
const DSNMemory = "memory"

type Store interface {
	Get(ctx context.Context) (cred models.Credential, found bool, err error)
	Set(ctx context.Context, cred models.Credential) error
	Clear(ctx context.Context) error
	Close() error
}

// Open returns the backend selected by dsn: "memory", a redis:// or rediss://
// URL, or otherwise a path to an SQLite file.
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case dsn == DSNMemory:
		return NewMemoryStore(), nil
	case strings.HasPrefix(dsn, "redis://"), strings.HasPrefix(dsn, "rediss://"):
		return OpenRedis(ctx, dsn)
	default:
		return OpenSQLite(ctx, dsn)
	}
}

// TokenFunc exposes the stored bearer token to the HTTP client. An empty
// string means there is no session.
func TokenFunc(s Store) func(ctx context.Context) (string, error) {
	return func(ctx context.Context) (string, error) {
		cred, found, err := s.Get(ctx)
		if err != nil || !found {
			return "", err
		}
		return cred.Token, nil
	}
}

func encode(cred models.Credential) ([]byte, error) {
	b, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("encode credential: %w", err)
	}
	return b, nil
}

func decode(b []byte) (models.Credential, error) {
	var cred models.Credential
	if err := json.Unmarshal(b, &cred); err != nil {
		return models.Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	return cred, nil
}

type cookieRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func encodeCookies(cookies []*http.Cookie) ([]byte, error) {
	records := make([]cookieRecord, 0, len(cookies))
	for _, c := range cookies {
		records = append(records, cookieRecord{Name: c.Name, Value: c.Value})
	}
	b, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode cookies: %w", err)
	}
	return b, nil
}

// decodeCookies restores cookies for the host root; NewJar scopes them.
func decodeCookies(b []byte) ([]*http.Cookie, error) {
	var records []cookieRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode cookies: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(records))
	for _, r := range records {
		cookies = append(cookies, &http.Cookie{Name: r.Name, Value: r.Value, Path: "/"})
	}
	return cookies, nil
}
