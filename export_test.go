package sqlbridge

import (
	"database/sql"
	"log/slog"

	"github.com/sqlbridge/sqlbridge/internal/bind"
)

// NewTestDataSource wires an already-open handle (typically sqlmock)
// into an initialized DataSource, bypassing Init.
func NewTestDataSource(db *sql.DB, driver string) *DataSource {
	return &DataSource{
		db:      db,
		dialect: bind.DialectFor(driver),
		state:   stateInitialized,
		logger:  slog.Default(),
	}
}

var InjectConnectTimeout = injectConnectTimeout
