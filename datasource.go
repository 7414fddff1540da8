// Package sqlbridge is a thin convenience layer over database/sql: a
// pool-owning DataSource, a per-connection transactional Session, and
// row-to-map result shaping for DAO implementations. Pooling, SQL
// execution and transaction mechanics are delegated to the registered
// driver.
package sqlbridge

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sqlbridge/sqlbridge/internal/bind"
	"github.com/sqlbridge/sqlbridge/pkg/config"
)

const (
	stateUninitialized = iota
	stateInitialized
	stateClosed
)

// DataSource owns a database connection pool and hands out Sessions
// over connections borrowed from it. It must be initialized with Init
// before use and closed exactly once at shutdown.
type DataSource struct {
	cfg     config.Config
	db      *sql.DB
	dialect bind.Dialect
	state   int
	logger  *slog.Logger
}

// New returns an uninitialized DataSource. A nil logger falls back to
// slog.Default().
func New(logger *slog.Logger) *DataSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataSource{logger: logger}
}

// Init builds the connection pool from cfg. A fixed connect timeout of
// 10 seconds is injected into the DSN unless it sets one. Calling Init on
// an already-initialized DataSource rebinds the pool; the previous one
// is closed best-effort.
func (ds *DataSource) Init(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if ds.state == stateInitialized && ds.db != nil {
		ds.logger.Warn("reinitializing data source, disposing previous pool")
		if err := ds.db.Close(); err != nil {
			ds.logger.Error("closing previous pool failed", "error", err)
		}
	}

	db, err := sql.Open(cfg.Driver, injectConnectTimeout(cfg.Driver, cfg.DSN))
	if err != nil {
		return wrapEngineErr("open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return wrapEngineErr("connect", err)
	}

	ds.cfg = cfg
	ds.db = db
	ds.dialect = bind.DialectFor(cfg.Driver)
	ds.state = stateInitialized
	ds.logger.Info("connection pool initialized",
		"driver", cfg.Driver, "max_open_conns", cfg.MaxOpenConns)
	return nil
}

// GetSession borrows one connection from the pool, begins a
// transaction on it and returns a new Session wrapping both. Every
// call yields a distinct Session over a distinct connection;
// acquisition may block per the pool's own policy.
func (ds *DataSource) GetSession(ctx context.Context) (*Session, error) {
	if err := ds.CheckInitialization(); err != nil {
		return nil, err
	}

	conn, err := ds.db.Conn(ctx)
	if err != nil {
		return nil, wrapEngineErr("acquire connection", err)
	}
	return newSession(ctx, ds, conn)
}

// WithSession runs fn inside a session scope: the session is acquired,
// fn runs, and on every exit path a commit is attempted (best-effort,
// logged) followed unconditionally by close. This is the sanctioned
// release discipline; there is no finalizer backstop.
func (ds *DataSource) WithSession(ctx context.Context, fn func(*Session) error) error {
	session, err := ds.GetSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Commit(); err != nil {
			ds.logger.Error("commit on scope exit failed", "session", session.ID(), "error", err)
		}
		if err := session.Close(); err != nil {
			ds.logger.Error("close on scope exit failed", "session", session.ID(), "error", err)
		}
	}()
	return fn(session)
}

// ReleaseSession closes the session, returning its connection to the
// pool. Disposal is best-effort: failures are logged, never returned.
func (ds *DataSource) ReleaseSession(session *Session) {
	if err := ds.CheckInitialization(); err != nil {
		ds.logger.Error("release on uninitialized data source", "error", err)
		return
	}
	if session == nil {
		return
	}
	if err := session.Close(); err != nil {
		ds.logger.Error("releasing session failed", "session", session.ID(), "error", err)
	}
}

// Ping verifies the pool can reach the database.
func (ds *DataSource) Ping(ctx context.Context) error {
	if err := ds.CheckInitialization(); err != nil {
		return err
	}
	if err := ds.db.PingContext(ctx); err != nil {
		return wrapEngineErr("ping", err)
	}
	return nil
}

// Close disposes the pool and all its connections. It must be called
// exactly once at shutdown; a second call fails, as does any
// pool-dependent operation afterwards.
func (ds *DataSource) Close() error {
	if err := ds.CheckInitialization(); err != nil {
		return err
	}
	err := ds.db.Close()
	ds.state = stateClosed
	ds.db = nil
	if err != nil {
		return wrapEngineErr("close pool", err)
	}
	ds.logger.Info("connection pool closed")
	return nil
}

// CheckInitialization fails fast if the pool is not in a usable state.
func (ds *DataSource) CheckInitialization() error {
	switch ds.state {
	case stateInitialized:
		return nil
	case stateClosed:
		return guardErr("connection pool has been closed")
	default:
		return guardErr("connection pool has not been initialized")
	}
}

// IsInitialized reports whether the pool is bound and usable.
func (ds *DataSource) IsInitialized() bool {
	return ds.state == stateInitialized
}

// injectConnectTimeout appends the fixed connect timeout to the DSN in
// the form the driver understands. A DSN that already carries a
// timeout option keeps it; sqlite has no connect phase and is left
// untouched.
func injectConnectTimeout(driver, dsn string) string {
	switch driver {
	case "postgres":
		if strings.Contains(dsn, "connect_timeout=") {
			return dsn
		}
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			return dsn + sep + "connect_timeout=10"
		}
		// Keyword/value form.
		return strings.TrimSpace(dsn + " connect_timeout=10")
	case "mysql":
		if strings.Contains(dsn, "timeout=") {
			return dsn
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return fmt.Sprintf("%s%stimeout=%s", dsn, sep, "10s")
	default:
		return dsn
	}
}
