package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/blogclient/internal/client/migrations"
	"github.com/dmitrijs2005/blogclient/internal/client/models"
	"github.com/dmitrijs2005/blogclient/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/blogclient/internal/dbx"
	"github.com/dmitrijs2005/blogclient/internal/filex"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the credential and the cookie jar in the metadata table.
type SQLiteStore struct {
	db   *sql.DB
	repo metadata.Repository
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// embedded migrations. Missing parent directories are created; ":memory:"
// and "file:" URIs are passed to the driver unchanged.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		abs, err := filex.EnsureParentDir(path)
		if err != nil {
			return nil, fmt.Errorf("prepare sqlite path: %w", err)
		}
		path = abs
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// a single connection avoids SQLITE_BUSY between concurrent writers
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLiteStore(db), nil
}

// RunMigrations brings db up to the latest embedded schema version.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations.Migrations)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, repo: metadata.NewSQLiteRepository(db)}
}

func (s *SQLiteStore) Get(ctx context.Context) (models.Credential, bool, error) {
	b, err := s.repo.Get(ctx, CurrentUserKey)
	if errors.Is(err, metadata.ErrNotFound) {
		return models.Credential{}, false, nil
	}
	if err != nil {
		return models.Credential{}, false, err
	}
	cred, err := decode(b)
	if err != nil {
		return models.Credential{}, false, err
	}
	return cred, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, cred models.Credential) error {
	b, err := encode(cred)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, CurrentUserKey, b)
}

// Clear drops the credential and the persisted cookies together: once the
// session is gone its refresh cookie is worthless.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, CurrentUserKey, cookiesKey)
	})
}

// LoadCookies returns the cookies saved by SaveCookies, or nil.
func (s *SQLiteStore) LoadCookies(ctx context.Context) ([]*http.Cookie, error) {
	b, err := s.repo.Get(ctx, cookiesKey)
	if errors.Is(err, metadata.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeCookies(b)
}

// SaveCookies replaces the persisted cookie set.
func (s *SQLiteStore) SaveCookies(ctx context.Context, cookies []*http.Cookie) error {
	b, err := encodeCookies(cookies)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, cookiesKey, b)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
