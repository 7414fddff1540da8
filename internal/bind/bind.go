// Package bind expands :name placeholders into the positional form
// understood by the target driver.
package bind

import (
	"fmt"
	"strings"
)

// Dialect selects the positional placeholder style of a driver.
type Dialect int

const (
	// Question is the `?` style used by mysql and sqlite.
	Question Dialect = iota
	// Dollar is the `$1` style used by postgres.
	Dollar
)

// DialectFor returns the placeholder dialect for a driver name.
func DialectFor(driver string) Dialect {
	if driver == "postgres" {
		return Dollar
	}
	return Question
}

func isNameRune(r byte) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// Expand rewrites every :name placeholder in query to the dialect's
// positional form and returns the argument slice in placeholder order.
// Quoted strings are left untouched, as is the postgres :: cast
// operator. A placeholder with no matching entry in params is an error.
func Expand(query string, params map[string]any, d Dialect) (string, []any, error) {
	var (
		out  strings.Builder
		args []any
	)
	out.Grow(len(query))

	for i := 0; i < len(query); i++ {
		c := query[i]

		// Skip over quoted regions verbatim.
		if c == '\'' || c == '"' {
			quote := c
			out.WriteByte(c)
			for i++; i < len(query); i++ {
				out.WriteByte(query[i])
				if query[i] == quote {
					break
				}
			}
			continue
		}

		if c != ':' {
			out.WriteByte(c)
			continue
		}

		// `::` is a cast, not a placeholder.
		if i+1 < len(query) && query[i+1] == ':' {
			out.WriteString("::")
			i++
			continue
		}

		start := i + 1
		end := start
		for end < len(query) && isNameRune(query[end]) {
			end++
		}
		if end == start {
			out.WriteByte(c)
			continue
		}

		name := query[start:end]
		val, ok := params[name]
		if !ok {
			return "", nil, fmt.Errorf("bind: missing parameter %q", name)
		}
		args = append(args, val)
		if d == Dollar {
			fmt.Fprintf(&out, "$%d", len(args))
		} else {
			out.WriteByte('?')
		}
		i = end - 1
	}

	return out.String(), args, nil
}
