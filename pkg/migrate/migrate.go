package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/sqlbridge/sqlbridge"
)

// Migration holds one versioned migration
type Migration struct {
	Version int
	Name    string
	UpSQL   string
	DownSQL string
}

// Manager applies and rolls back migrations through session scopes on
// a data source.
type Manager struct {
	ds            *sqlbridge.DataSource
	migrationsDir string
	migrations    []Migration
	logger        *slog.Logger
}

// NewManager loads migration files from the specified directory
func NewManager(ds *sqlbridge.DataSource, migrationsDir string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{ds: ds, migrationsDir: migrationsDir, logger: logger}
	if err := m.loadMigrations(); err != nil {
		return nil, err
	}
	return m, nil
}

// Migrations returns the loaded migrations in version order.
func (m *Manager) Migrations() []Migration {
	return m.migrations
}

// loadMigrations reads .up.sql/.down.sql files and organizes them by version
func (m *Manager) loadMigrations() error {
	entries, err := os.ReadDir(m.migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	re := regexp.MustCompile(`^(\d+)_(.+)\.(up|down)\.sql$`)
	tmp := map[int]*Migration{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := re.FindStringSubmatch(entry.Name())
		if len(matches) != 4 {
			continue
		}
		ver, _ := strconv.Atoi(matches[1])
		name := matches[2]
		dir := matches[3]
		path := filepath.Join(m.migrationsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		mig, exists := tmp[ver]
		if !exists {
			mig = &Migration{Version: ver, Name: name}
			tmp[ver] = mig
		}
		if dir == "up" {
			mig.UpSQL = string(data)
		} else {
			mig.DownSQL = string(data)
		}
	}
	// sort and assign
	versions := make([]int, 0, len(tmp))
	for v := range tmp {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	for _, v := range versions {
		m.migrations = append(m.migrations, *tmp[v])
	}
	return nil
}

// ensureVersionTable creates schema_migrations if missing
func (m *Manager) ensureVersionTable(ctx context.Context, s *sqlbridge.Session) error {
	return s.Execute(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (version INT PRIMARY KEY)`, nil)
}

// currentVersion returns the highest applied migration version
func (m *Manager) currentVersion(ctx context.Context, s *sqlbridge.Session) (int, error) {
	res, err := s.SelectOne(ctx, `SELECT MAX(version) AS version FROM schema_migrations`, nil)
	if err != nil {
		return 0, err
	}
	row := res.Row()
	if len(row) == 0 || row[0] == nil {
		return 0, nil
	}
	switch v := row[0].(type) {
	case int64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected version type %T", row[0])
	}
}

// Version reports the highest applied migration version.
func (m *Manager) Version(ctx context.Context) (int, error) {
	var version int
	err := m.ds.WithSession(ctx, func(s *sqlbridge.Session) error {
		if err := m.ensureVersionTable(ctx, s); err != nil {
			return err
		}
		v, err := m.currentVersion(ctx, s)
		version = v
		return err
	})
	return version, err
}

// Up applies all pending migrations inside one session scope.
func (m *Manager) Up(ctx context.Context) error {
	return m.ds.WithSession(ctx, func(s *sqlbridge.Session) error {
		if err := m.ensureVersionTable(ctx, s); err != nil {
			return err
		}
		current, err := m.currentVersion(ctx, s)
		if err != nil {
			return err
		}

		for _, mig := range m.migrations {
			if mig.Version <= current {
				continue
			}
			m.logger.Info("applying migration", "version", mig.Version, "name", mig.Name)
			if err := s.Execute(ctx, mig.UpSQL, nil); err != nil {
				return fmt.Errorf("apply up %d: %w", mig.Version, err)
			}
			if err := s.Execute(ctx,
				`INSERT INTO schema_migrations (version) VALUES (:version)`,
				sqlbridge.Params{"version": mig.Version}); err != nil {
				return fmt.Errorf("record version %d: %w", mig.Version, err)
			}
		}
		return nil
	})
}

// Down rolls back the latest migration
func (m *Manager) Down(ctx context.Context) error {
	return m.ds.WithSession(ctx, func(s *sqlbridge.Session) error {
		if err := m.ensureVersionTable(ctx, s); err != nil {
			return err
		}
		current, err := m.currentVersion(ctx, s)
		if err != nil {
			return err
		}
		if current == 0 {
			m.logger.Info("no migrations to roll back")
			return nil
		}
		var toRoll *Migration
		for i := len(m.migrations) - 1; i >= 0; i-- {
			if m.migrations[i].Version == current {
				toRoll = &m.migrations[i]
				break
			}
		}
		if toRoll == nil {
			return fmt.Errorf("migration not found for version %d", current)
		}
		m.logger.Info("rolling back migration", "version", toRoll.Version, "name", toRoll.Name)
		if err := s.Execute(ctx, toRoll.DownSQL, nil); err != nil {
			return fmt.Errorf("apply down %d: %w", toRoll.Version, err)
		}
		return s.Execute(ctx,
			`DELETE FROM schema_migrations WHERE version = :version`,
			sqlbridge.Params{"version": toRoll.Version})
	})
}
