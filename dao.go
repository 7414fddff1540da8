package sqlbridge

import "context"

// DAO is the capability set a concrete per-table data access object
// implements against a live Session. Implementations own their SQL;
// the Map and HashMap helpers reshape raw results for them.
type DAO interface {
	SelectOne(ctx context.Context, s *Session, params Params) (MappedRow, error)
	Select(ctx context.Context, s *Session, params Params) ([]MappedRow, error)
	Insert(ctx context.Context, s *Session, data []Params) error
	Update(ctx context.Context, s *Session, params Params) error
	Delete(ctx context.Context, s *Session, params Params) error
}

// Map reshapes a query result into one column-keyed map per row.
func Map(result *QueryResult) []MappedRow {
	return result.Map()
}

// HashMap reshapes a query result into buckets keyed by the value of
// keyColumn, with bucket keys returned in first-seen order.
func HashMap(result *QueryResult, keyColumn string) (map[any][]MappedRow, []any, error) {
	return result.GroupBy(keyColumn)
}
