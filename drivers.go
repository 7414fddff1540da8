package sqlbridge

// The postgres and mysql drivers register themselves through the
// imports in errors.go; sqlite only needs its side effect.
import (
	_ "modernc.org/sqlite"
)
