package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandDollar(t *testing.T) {
	q, args, err := Expand(
		"SELECT * FROM t WHERE id = :id AND name = :name",
		map[string]any{"id": 1, "name": "a"}, Dollar)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE id = $1 AND name = $2", q)
	assert.Equal(t, []any{1, "a"}, args)
}

func TestExpandQuestion(t *testing.T) {
	q, args, err := Expand(
		"UPDATE t SET name = :name WHERE id = :id",
		map[string]any{"id": 2, "name": "b"}, Question)
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET name = ? WHERE id = ?", q)
	assert.Equal(t, []any{"b", 2}, args)
}

// TestExpandRepeatedName: each occurrence binds its own positional arg.
func TestExpandRepeatedName(t *testing.T) {
	q, args, err := Expand(
		"SELECT * FROM t WHERE a = :v OR b = :v",
		map[string]any{"v": 7}, Dollar)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 OR b = $2", q)
	assert.Equal(t, []any{7, 7}, args)
}

func TestExpandMissingParam(t *testing.T) {
	_, _, err := Expand("SELECT :missing", map[string]any{}, Dollar)
	assert.ErrorContains(t, err, `missing parameter "missing"`)
}

// TestExpandSkipsQuotedAndCasts: string literals and the postgres ::
// cast operator are not placeholders.
func TestExpandSkipsQuotedAndCasts(t *testing.T) {
	q, args, err := Expand(
		`SELECT ':notaparam', id::text FROM t WHERE id = :id`,
		map[string]any{"id": 3}, Dollar)
	require.NoError(t, err)
	assert.Equal(t, `SELECT ':notaparam', id::text FROM t WHERE id = $1`, q)
	assert.Equal(t, []any{3}, args)
}

func TestExpandNoPlaceholders(t *testing.T) {
	q, args, err := Expand("SELECT 1", nil, Question)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1", q)
	assert.Empty(t, args)
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, Dollar, DialectFor("postgres"))
	assert.Equal(t, Question, DialectFor("mysql"))
	assert.Equal(t, Question, DialectFor("sqlite"))
}
