package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TableSpec describes how one logical table maps onto Postgres. Keys that are
// not physical columns are folded into the JSONB PayloadColumn, which is how
// the raw ingest table absorbs arbitrary sanitized spreadsheet headers without
// schema churn.
type TableSpec struct {
	Name          string
	Columns       []string
	PayloadColumn string
}

// Postgres implements RecordStore on a pgx pool. Only tables registered with a
// TableSpec can be addressed; everything else is a configuration error, not a
// SQL injection vector.
type Postgres struct {
	pool  *pgxpool.Pool
	specs map[string]TableSpec
}

func NewPostgres(pool *pgxpool.Pool, specs ...TableSpec) *Postgres {
	byName := make(map[string]TableSpec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}
	return &Postgres{pool: pool, specs: byName}
}

func (p *Postgres) spec(table string) (TableSpec, error) {
	spec, ok := p.specs[table]
	if !ok {
		return TableSpec{}, fmt.Errorf("unknown table %q", table)
	}
	return spec, nil
}

func (p *Postgres) Select(ctx context.Context, table string, filter map[string]any) ([]Row, error) {
	spec, err := p.spec(table)
	if err != nil {
		return nil, err
	}

	sql, args, err := buildSelectSQL(spec, filter)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", table, err)
	}
	defer rows.Close()

	return scanRows(rows)
}

func (p *Postgres) Insert(ctx context.Context, table string, rows []Row) (WriteResult, error) {
	return p.write(ctx, table, rows, "")
}

func (p *Postgres) Upsert(ctx context.Context, table string, rows []Row, onConflict string) (WriteResult, error) {
	if strings.TrimSpace(onConflict) == "" {
		return WriteResult{}, fmt.Errorf("upsert into %s: conflict key is required", table)
	}
	return p.write(ctx, table, rows, onConflict)
}

func (p *Postgres) write(ctx context.Context, table string, rows []Row, onConflict string) (WriteResult, error) {
	spec, err := p.spec(table)
	if err != nil {
		return WriteResult{}, err
	}
	if len(rows) == 0 {
		return WriteResult{}, nil
	}

	if onConflict != "" {
		// A single INSERT cannot touch the same conflict key twice; keep the
		// last occurrence, matching last-write-wins upsert semantics.
		rows = dedupeByKey(rows, splitColumns(onConflict))
	}

	sql, args, err := buildInsertSQL(spec, rows, onConflict)
	if err != nil {
		return WriteResult{}, err
	}

	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return WriteResult{}, fmt.Errorf("write %s: %w", table, err)
	}
	return WriteResult{Count: tag.RowsAffected()}, nil
}

func (p *Postgres) Update(ctx context.Context, table string, patch Row, filter map[string]any) error {
	spec, err := p.spec(table)
	if err != nil {
		return err
	}
	if len(patch) == 0 {
		return fmt.Errorf("update %s: empty patch", table)
	}
	if len(filter) == 0 {
		return fmt.Errorf("update %s: filter is required", table)
	}

	sql, args, err := buildUpdateSQL(spec, patch, filter)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

func buildSelectSQL(spec TableSpec, filter map[string]any) (string, []any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT * FROM %s", spec.Name)

	args := make([]any, 0, len(filter))
	if len(filter) > 0 {
		keys := sortedKeys(filter)
		clauses := make([]string, 0, len(keys))
		for _, key := range keys {
			if !spec.hasColumn(key) {
				return "", nil, fmt.Errorf("select %s: %q is not a filterable column", spec.Name, key)
			}
			args = append(args, filter[key])
			clauses = append(clauses, fmt.Sprintf("%s = $%d", key, len(args)))
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(clauses, " AND "))
	}
	return sb.String(), args, nil
}

func buildInsertSQL(spec TableSpec, rows []Row, onConflict string) (string, []any, error) {
	columns := physicalColumns(spec, rows)
	if len(columns) == 0 && spec.PayloadColumn == "" {
		return "", nil, fmt.Errorf("insert %s: no recognized columns", spec.Name)
	}

	allColumns := append([]string{}, columns...)
	if spec.PayloadColumn != "" {
		allColumns = append(allColumns, spec.PayloadColumn)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", spec.Name, strings.Join(allColumns, ", "))

	args := make([]any, 0, len(rows)*len(allColumns))
	tuples := make([]string, 0, len(rows))
	for _, row := range rows {
		placeholders := make([]string, 0, len(allColumns))
		for _, col := range columns {
			args = append(args, row[col])
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		if spec.PayloadColumn != "" {
			payload, err := payloadJSON(spec, columns, row)
			if err != nil {
				return "", nil, fmt.Errorf("insert %s: %w", spec.Name, err)
			}
			args = append(args, payload)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		tuples = append(tuples, "("+strings.Join(placeholders, ", ")+")")
	}
	sb.WriteString(strings.Join(tuples, ", "))

	if onConflict != "" {
		updates := make([]string, 0, len(allColumns))
		conflictCols := map[string]struct{}{}
		for _, col := range splitColumns(onConflict) {
			conflictCols[col] = struct{}{}
		}
		for _, col := range allColumns {
			if _, skip := conflictCols[col]; skip {
				continue
			}
			// A conflicting row keeps the id it was created with; only the
			// non-key columns follow the incoming row.
			if col == "id" {
				continue
			}
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
		fmt.Fprintf(&sb, " ON CONFLICT (%s) DO UPDATE SET %s", onConflict, strings.Join(updates, ", "))
	}

	return sb.String(), args, nil
}

func buildUpdateSQL(spec TableSpec, patch Row, filter map[string]any) (string, []any, error) {
	args := make([]any, 0, len(patch)+len(filter))
	sets := make([]string, 0, len(patch))
	for _, key := range sortedKeys(patch) {
		if !spec.hasColumn(key) {
			return "", nil, fmt.Errorf("update %s: %q is not a column", spec.Name, key)
		}
		args = append(args, patch[key])
		sets = append(sets, fmt.Sprintf("%s = $%d", key, len(args)))
	}

	clauses := make([]string, 0, len(filter))
	for _, key := range sortedKeys(filter) {
		if !spec.hasColumn(key) {
			return "", nil, fmt.Errorf("update %s: %q is not a filterable column", spec.Name, key)
		}
		args = append(args, filter[key])
		clauses = append(clauses, fmt.Sprintf("%s = $%d", key, len(args)))
	}

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s", spec.Name, strings.Join(sets, ", "), strings.Join(clauses, " AND "))
	return sql, args, nil
}

func (s TableSpec) hasColumn(name string) bool {
	for _, col := range s.Columns {
		if col == name {
			return true
		}
	}
	return name == s.PayloadColumn && s.PayloadColumn != ""
}

// physicalColumns returns the ordered union of row keys that are real columns.
// Rows missing a column write NULL for it.
func physicalColumns(spec TableSpec, rows []Row) []string {
	seen := map[string]struct{}{}
	for _, row := range rows {
		for key := range row {
			if key == spec.PayloadColumn {
				continue
			}
			if spec.hasColumn(key) {
				seen[key] = struct{}{}
			}
		}
	}
	columns := make([]string, 0, len(seen))
	for col := range seen {
		columns = append(columns, col)
	}
	sort.Strings(columns)
	return columns
}

// payloadJSON folds every non-physical key into one JSONB document. A
// caller-supplied payload value is honored as long as no stray keys compete
// with it.
func payloadJSON(spec TableSpec, columns []string, row Row) ([]byte, error) {
	physical := map[string]struct{}{}
	for _, col := range columns {
		physical[col] = struct{}{}
	}

	rest := map[string]any{}
	for key, value := range row {
		if key == spec.PayloadColumn {
			continue
		}
		if _, ok := physical[key]; ok {
			continue
		}
		rest[key] = value
	}

	if supplied, ok := row[spec.PayloadColumn]; ok && len(rest) == 0 {
		if raw, isRaw := supplied.([]byte); isRaw {
			return raw, nil
		}
		return json.Marshal(supplied)
	}

	return json.Marshal(rest)
}

func dedupeByKey(rows []Row, keyColumns []string) []Row {
	type slot struct{ index int }
	seen := map[string]slot{}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, 0, len(keyColumns))
		for _, col := range keyColumns {
			parts = append(parts, fmt.Sprint(row[col]))
		}
		key := strings.Join(parts, "\x1f")
		if existing, ok := seen[key]; ok {
			out[existing.index] = row
			continue
		}
		seen[key] = slot{index: len(out)}
		out = append(out, row)
	}
	return out
}

func splitColumns(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func scanRows(rows pgx.Rows) ([]Row, error) {
	fields := rows.FieldDescriptions()
	out := make([]Row, 0, 64)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		record := make(Row, len(fields))
		for i, field := range fields {
			record[string(field.Name)] = values[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}
