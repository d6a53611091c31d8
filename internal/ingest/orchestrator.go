package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/bodyshop-platform/api/internal/store"
)

// ErrNoRows is returned when an ingestion request carries no data rows.
var ErrNoRows = errors.New("no rows provided")

// Result is the outcome of one ingestion run. InsertedCount reflects the raw
// store only; job projection failures surface in Errors without changing the
// count.
type Result struct {
	InsertedCount int64        `json:"insertedCount"`
	Errors        []BatchError `json:"errors"`
}

// Orchestrator runs the full pipeline: normalize, persist raw records, project
// jobs, persist jobs. Stages run sequentially and batch failures in one stage
// never stop the other.
type Orchestrator struct {
	Store     store.RecordStore
	RawTable  string
	JobsTable string
	BatchSize int

	// Now is the clock used for generated identifiers and timestamps.
	// Defaults to time.Now when nil.
	Now func() time.Time
}

// Ingest processes the given rows under the supplied explicit column mapping
// (may be nil for auto-resolution) on behalf of userID.
func (o *Orchestrator) Ingest(ctx context.Context, rows []map[string]any, explicit map[string]string, userID string) (Result, error) {
	if len(rows) == 0 {
		return Result{Errors: []BatchError{}}, ErrNoRows
	}

	now := time.Now
	if o.Now != nil {
		now = o.Now
	}

	records := make([]RawRecord, len(rows))
	for i, row := range rows {
		records[i] = NormalizeRow(row)
	}

	engine := &DedupEngine{Store: o.Store, Table: o.RawTable, BatchSize: o.BatchSize}
	count, errs := engine.IngestRaw(ctx, records)

	resolver := NewResolver(explicit)
	projected := make([]store.Row, len(records))
	for i, rec := range records {
		job := ProjectJob(rec, resolver, userID, now())
		projected[i] = job.ToRow()
	}
	errs = append(errs, o.writeJobs(ctx, projected)...)

	return Result{InsertedCount: count, Errors: errs}, nil
}

func (o *Orchestrator) writeJobs(ctx context.Context, rows []store.Row) []BatchError {
	size := o.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	errs := make([]BatchError, 0)
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := o.Store.Upsert(ctx, o.JobsTable, rows[start:end], "id"); err != nil {
			errs = append(errs, BatchError{Stage: StageJobs, BatchStart: start, Err: err})
		}
	}
	return errs
}
