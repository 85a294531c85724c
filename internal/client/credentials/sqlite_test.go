package credentials

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "client.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, alice))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	got, found, err := s.Get(ctx)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, alice, got)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))

	var n int
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'`).Scan(&n))
	require.Equal(t, 1, n)
}

func TestSQLiteStore_Cookies(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	defer s.Close()

	got, err := s.LoadCookies(ctx)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, s.SaveCookies(ctx, []*http.Cookie{
		{Name: "refresh_token", Value: "R1", HttpOnly: true},
		{Name: "csrftoken", Value: "C1"},
	}))

	got, err = s.LoadCookies(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "refresh_token", got[0].Name)
	require.Equal(t, "R1", got[0].Value)
	require.Equal(t, "/", got[0].Path)
	require.Equal(t, "C1", got[1].Value)
}

func TestSQLiteStore_ClearDropsCookies(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, alice))
	require.NoError(t, s.SaveCookies(ctx, []*http.Cookie{{Name: "refresh_token", Value: "R1"}}))

	require.NoError(t, s.Clear(ctx))

	cookies, err := s.LoadCookies(ctx)
	require.NoError(t, err)
	require.Empty(t, cookies)
}

func TestSQLiteStore_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "c.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.repo.Set(ctx, CurrentUserKey, []byte("{not json")))

	_, _, err = s.Get(ctx)
	require.ErrorContains(t, err, "decode credential")
}

func TestSQLiteStore_ClearRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM metadata WHERE key IN`).
		WithArgs(CurrentUserKey, cookiesKey).
		WillReturnError(errors.New("database is locked"))
	mock.ExpectRollback()

	err = NewSQLiteStore(db).Clear(context.Background())
	require.ErrorContains(t, err, "database is locked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenSQLite_CreatesParentDirectories(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "dir", "client.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Set(ctx, alice))
	require.FileExists(t, path)
}
