package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bodyshop-platform/api/internal/store"
)

// DefaultBatchSize is the number of rows sent to the record store per call.
const DefaultBatchSize = 500

const (
	StageRaw  = "raw"
	StageJobs = "jobs"
)

// BatchError records one failed store call. The run is never aborted by a
// batch failure; errors accumulate and the remaining batches proceed.
type BatchError struct {
	Stage      string
	BatchStart int
	Err        error
}

func (e BatchError) Error() string {
	return fmt.Sprintf("%s batch starting at row %d: %v", e.Stage, e.BatchStart, e.Err)
}

func (e BatchError) Unwrap() error { return e.Err }

func (e BatchError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		BatchStart int    `json:"batchStart"`
		Stage      string `json:"stage"`
		Error      string `json:"error"`
	}{e.BatchStart, e.Stage, e.Err.Error()})
}

// DedupEngine persists raw records in fixed-size batches. A batch in which
// every record carries a source hash is upserted on that hash, so re-ingested
// exports collapse onto their existing rows; a batch with any unhashed record
// falls back to a plain insert for the whole batch, with no per-row
// branching inside a batch.
type DedupEngine struct {
	Store     store.RecordStore
	Table     string
	BatchSize int
}

// IngestRaw writes all records and returns the store-reported count of rows
// inserted or updated plus every batch-level failure. Processed rows always
// equal the returned count plus the rows of failed batches.
func (e *DedupEngine) IngestRaw(ctx context.Context, records []RawRecord) (int64, []BatchError) {
	size := e.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	var count int64
	errs := make([]BatchError, 0)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		rows := make([]store.Row, 0, len(batch))
		hashed := true
		for _, rec := range batch {
			if rec.SourceHash == "" {
				hashed = false
			}
			rows = append(rows, rec.storeRow())
		}

		var (
			result store.WriteResult
			err    error
		)
		if hashed {
			result, err = e.Store.Upsert(ctx, e.Table, rows, "source_hash")
		} else {
			result, err = e.Store.Insert(ctx, e.Table, rows)
		}
		if err != nil {
			errs = append(errs, BatchError{Stage: StageRaw, BatchStart: start, Err: err})
			continue
		}
		count += result.Count
	}
	return count, errs
}
