package sqlbridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/sqlbridge/sqlbridge/internal/bind"
)

// Params carries named query parameters, bound to :name placeholders.
type Params map[string]any

// Session wraps one connection borrowed from a DataSource together
// with the transaction running on it. A Session is single-use: it is
// created by GetSession, owns its connection exclusively, and is done
// once Close returns the connection to the pool. It is not safe for
// concurrent use.
type Session struct {
	ds     *DataSource
	id     string
	conn   *sql.Conn
	tx     *sql.Tx
	ctx    context.Context
	closed bool
	logger *slog.Logger
}

func newSession(ctx context.Context, ds *DataSource, conn *sql.Conn) (*Session, error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		return nil, wrapEngineErr("begin transaction", err)
	}
	s := &Session{
		ds:     ds,
		id:     uuid.NewString(),
		conn:   conn,
		tx:     tx,
		ctx:    ctx,
		logger: ds.logger,
	}
	s.logger.Debug("session acquired", "session", s.id)
	return s, nil
}

// ID returns the session's identifier, used in log output.
func (s *Session) ID() string {
	return s.id
}

// Select executes a parameterized query and returns all matching rows.
func (s *Session) Select(ctx context.Context, query string, params Params) (*QueryResult, error) {
	return s.query(ctx, query, params, -1)
}

// SelectOne executes a parameterized query and returns at most one row.
func (s *Session) SelectOne(ctx context.Context, query string, params Params) (*QueryResult, error) {
	return s.query(ctx, query, params, 1)
}

func (s *Session) query(ctx context.Context, query string, params Params, limit int) (*QueryResult, error) {
	if err := s.CheckAvailability(); err != nil {
		return nil, err
	}
	q, args, err := bind.Expand(query, params, s.ds.dialect)
	if err != nil {
		return nil, err
	}
	rows, err := s.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapEngineErr("select", err)
	}
	defer rows.Close()
	return scanRows(rows, limit)
}

// Insert executes the statement template once per entry in data and
// commits as part of the same call.
func (s *Session) Insert(ctx context.Context, template string, data []Params) error {
	if err := s.CheckAvailability(); err != nil {
		return err
	}
	for _, params := range data {
		q, args, err := bind.Expand(template, params, s.ds.dialect)
		if err != nil {
			return err
		}
		if _, err := s.tx.ExecContext(ctx, q, args...); err != nil {
			return wrapEngineErr("insert", err)
		}
	}
	return s.Commit()
}

// Execute runs an update, delete or DDL statement and commits as part
// of the same call.
func (s *Session) Execute(ctx context.Context, template string, params Params) error {
	if err := s.CheckAvailability(); err != nil {
		return err
	}
	q, args, err := bind.Expand(template, params, s.ds.dialect)
	if err != nil {
		return err
	}
	if _, err := s.tx.ExecContext(ctx, q, args...); err != nil {
		return wrapEngineErr("execute", err)
	}
	return s.Commit()
}

// CallProcedure invokes a stored procedure with positional arguments
// and returns whatever result set it produces.
func (s *Session) CallProcedure(ctx context.Context, name string, args ...any) (*QueryResult, error) {
	if err := s.CheckAvailability(); err != nil {
		return nil, err
	}
	placeholders := make([]string, len(args))
	for i := range args {
		if s.ds.dialect == bind.Dollar {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		} else {
			placeholders[i] = "?"
		}
	}
	stmt := fmt.Sprintf("CALL %s(%s)", name, strings.Join(placeholders, ", "))
	rows, err := s.tx.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, wrapEngineErr("call procedure", err)
	}
	defer rows.Close()
	return scanRows(rows, -1)
}

// Commit commits the current transaction. The pool always hands out
// non-autocommit connections, so callers that wrote anything must
// commit explicitly (the session scope does one final commit on exit).
// A fresh transaction is begun so the session stays usable.
func (s *Session) Commit() error {
	if err := s.CheckAvailability(); err != nil {
		return err
	}
	if err := s.tx.Commit(); err != nil {
		return wrapEngineErr("commit", err)
	}
	return s.begin()
}

// Rollback discards the current transaction and begins a fresh one.
func (s *Session) Rollback() error {
	if err := s.CheckAvailability(); err != nil {
		return err
	}
	if err := s.tx.Rollback(); err != nil {
		return wrapEngineErr("rollback", err)
	}
	return s.begin()
}

func (s *Session) begin() error {
	tx, err := s.conn.BeginTx(s.ctx, nil)
	if err != nil {
		s.tx = nil
		return wrapEngineErr("begin transaction", err)
	}
	s.tx = tx
	return nil
}

// Close rolls back any uncommitted work and returns the connection to
// the owning pool. Close does not commit; that only happens on the
// session scope's exit path. A second Close fails.
func (s *Session) Close() error {
	if s.closed {
		return guardErr("session is already closed")
	}
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			s.logger.Error("rollback on close failed", "session", s.id, "error", err)
		}
		s.tx = nil
	}
	s.closed = true
	if err := s.conn.Close(); err != nil {
		return wrapEngineErr("close connection", err)
	}
	s.logger.Debug("session released", "session", s.id)
	return nil
}

// CheckAvailability fails fast if the underlying connection can no
// longer be used.
func (s *Session) CheckAvailability() error {
	if !s.IsAvailable() {
		return guardErr("connection is not in an available state")
	}
	return nil
}

// IsAvailable reports whether the session still holds a live
// connection with an open transaction.
func (s *Session) IsAvailable() bool {
	return !s.closed && s.conn != nil && s.tx != nil
}

func scanRows(rows *sql.Rows, limit int) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, wrapEngineErr("read columns", err)
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, wrapEngineErr("scan row", err)
		}
		result.Rows = append(result.Rows, values)
		if limit > 0 && len(result.Rows) == limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapEngineErr("iterate rows", err)
	}
	return result, nil
}
