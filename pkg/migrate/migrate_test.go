package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqlbridge/sqlbridge"
	"github.com/sqlbridge/sqlbridge/pkg/config"
)

func newTestSource(t *testing.T) *sqlbridge.DataSource {
	t.Helper()
	ds := sqlbridge.New(nil)
	require.NoError(t, ds.Init(config.Config{
		Driver:       "sqlite",
		DSN:          ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}))
	t.Cleanup(func() { ds.Close() })
	return ds
}

func writeMigrations(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "0001_create_foo.up.sql"),
		[]byte("CREATE TABLE foo (id INTEGER PRIMARY KEY)"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "0001_create_foo.down.sql"),
		[]byte("DROP TABLE foo"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "0002_add_bar.up.sql"),
		[]byte("CREATE TABLE bar (id INTEGER PRIMARY KEY)"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "0002_add_bar.down.sql"),
		[]byte("DROP TABLE bar"), 0o644))
}

func TestUpAppliesPendingMigrations(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeMigrations(t, dir)
	ds := newTestSource(t)

	mgr, err := NewManager(ds, dir, nil)
	require.NoError(t, err)
	require.Len(t, mgr.Migrations(), 2)

	require.NoError(t, mgr.Up(ctx))

	version, err := mgr.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	// both tables exist
	err = ds.WithSession(ctx, func(s *sqlbridge.Session) error {
		if _, err := s.Select(ctx, "SELECT id FROM foo", nil); err != nil {
			return err
		}
		_, err := s.Select(ctx, "SELECT id FROM bar", nil)
		return err
	})
	require.NoError(t, err)

	// a second Up is a no-op
	require.NoError(t, mgr.Up(ctx))
	version, err = mgr.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestDownRollsBackLatestMigration(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeMigrations(t, dir)
	ds := newTestSource(t)

	mgr, err := NewManager(ds, dir, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Up(ctx))

	require.NoError(t, mgr.Down(ctx))

	version, err := mgr.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	// bar is gone, foo remains
	err = ds.WithSession(ctx, func(s *sqlbridge.Session) error {
		_, err := s.Select(ctx, "SELECT id FROM bar", nil)
		return err
	})
	assert.Error(t, err)

	err = ds.WithSession(ctx, func(s *sqlbridge.Session) error {
		_, err := s.Select(ctx, "SELECT id FROM foo", nil)
		return err
	})
	assert.NoError(t, err)
}

func TestDownWithNothingApplied(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeMigrations(t, dir)
	ds := newTestSource(t)

	mgr, err := NewManager(ds, dir, nil)
	require.NoError(t, err)
	require.NoError(t, mgr.Down(ctx))
}

func TestLoadMigrationsIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	writeMigrations(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))

	ds := newTestSource(t)
	mgr, err := NewManager(ds, dir, nil)
	require.NoError(t, err)
	assert.Len(t, mgr.Migrations(), 2)
}
