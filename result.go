package sqlbridge

import (
	"fmt"
	"reflect"
)

// MappedRow is a single result row keyed by column name.
type MappedRow map[string]any

// QueryResult holds one query's column metadata and raw rows.
// It is a transient value produced per call; rows are positionally
// aligned with Columns.
type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// Row returns the single row of a SelectOne result, or nil if the
// query matched nothing.
func (r *QueryResult) Row() []any {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0]
}

// Map zips the column names with each row, producing one MappedRow
// per raw row in the original order.
func (r *QueryResult) Map() []MappedRow {
	mapped := make([]MappedRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		m := make(MappedRow, len(r.Columns))
		for i, col := range r.Columns {
			m[col] = row[i]
		}
		mapped = append(mapped, m)
	}
	return mapped
}

// GroupBy maps the result and buckets the rows by the value found at
// keyColumn. Bucket insertion order is returned separately as keys,
// since map iteration order is not stable; within a bucket rows keep
// their original order.
func (r *QueryResult) GroupBy(keyColumn string) (map[any][]MappedRow, []any, error) {
	buckets := make(map[any][]MappedRow)
	var keys []any
	for _, row := range r.Map() {
		raw, ok := row[keyColumn]
		if !ok {
			return nil, nil, fmt.Errorf("group by: column %q not present in result", keyColumn)
		}
		key, err := bucketKey(keyColumn, raw)
		if err != nil {
			return nil, nil, err
		}
		if _, seen := buckets[key]; !seen {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], row)
	}
	return buckets, keys, nil
}

// bucketKey normalizes a raw row value for use as a map key. Drivers
// hand TEXT columns back as []byte through the untyped scan, which is
// not hashable; any other non-comparable value is rejected rather than
// left to panic.
func bucketKey(column string, v any) (any, error) {
	if b, ok := v.([]byte); ok {
		return string(b), nil
	}
	if v != nil && !reflect.TypeOf(v).Comparable() {
		return nil, fmt.Errorf("group by: column %q value of type %T cannot be used as a key", column, v)
	}
	return v, nil
}
