// Package store defines the record-store capability the ingestion pipeline
// and handlers are written against. The backing service is a hosted Postgres;
// callers never build SQL themselves — they address logical tables by name and
// exchange flat rows, mirroring the API of the managed record store the
// application was originally built on.
package store

import "context"

// Row is one flat record exchanged with the store. Values are scalars, nil for
// SQL NULL, or pre-marshaled JSON ([]byte) for document columns.
type Row map[string]any

// WriteResult reports what a write actually did. Count is the number of rows
// the store says it inserted or updated; Rows is populated only when the
// implementation returns representations (the Postgres store does not).
type WriteResult struct {
	Rows  []Row
	Count int64
}

// RecordStore is the abstract select/insert/upsert/update surface. Errors are
// returned as values; implementations must not panic on per-row problems.
type RecordStore interface {
	// Select returns rows from table matching all equality filters. A nil or
	// empty filter returns every row.
	Select(ctx context.Context, table string, filter map[string]any) ([]Row, error)

	// Insert appends rows to table.
	Insert(ctx context.Context, table string, rows []Row) (WriteResult, error)

	// Upsert inserts rows, replacing any existing row that shares the
	// onConflict key. onConflict may name several comma-separated columns.
	Upsert(ctx context.Context, table string, rows []Row, onConflict string) (WriteResult, error)

	// Update applies patch to every row matching the filter.
	Update(ctx context.Context, table string, patch Row, filter map[string]any) error
}
