package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/bodyshop-platform/api/internal/httpx"
	"github.com/bodyshop-platform/api/internal/ingest"
	"github.com/bodyshop-platform/api/internal/jobs"
	"github.com/bodyshop-platform/api/internal/middleware"
	"github.com/bodyshop-platform/api/internal/store"
)

// GetImportsTemplate serves an empty CSV whose header row is the canonical
// field catalog, for shops that want a clean sheet instead of mapping a
// dealer export.
func (s *Server) GetImportsTemplate(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ActorFromContext(r.Context()); !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	headers := make([]string, 0, len(ingest.Catalog))
	for _, field := range ingest.Catalog {
		headers = append(headers, field.Label)
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="import-template.csv"`)
	writer := csv.NewWriter(w)
	_ = writer.Write(headers)
	writer.Flush()
}

// GetExportsJobs streams the job list as CSV.
func (s *Server) GetExportsJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ActorFromContext(r.Context()); !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	filter := store.Row{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}

	rows, err := s.Store.Select(r.Context(), s.Config.JobsTable, filter)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load jobs", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="jobs.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{
		"id", "job_card_number", "reg_no", "customer_name", "customer_mobile",
		"model", "job_type", "status", "current_stage",
		"labour_amt", "part_amt", "bill_amount", "profit",
		"created_at", "updated_at",
	})

	for _, row := range rows {
		rec, err := jobs.FromRow(row)
		if err != nil {
			continue
		}
		_ = writer.Write(jobCSVRecord(rec))
	}
	writer.Flush()
}

func jobCSVRecord(rec jobs.Record) []string {
	str := func(v *string) string {
		if v == nil {
			return ""
		}
		return *v
	}
	num := func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	}

	return []string{
		rec.ID,
		str(rec.JobCardNumber),
		str(rec.RegNo),
		str(rec.CustomerName),
		str(rec.CustomerMobile),
		str(rec.Model),
		rec.JobType,
		rec.Status,
		rec.CurrentStage,
		num(rec.LabourAmt),
		num(rec.PartAmt),
		num(rec.BillAmount),
		num(rec.Profit),
		rec.CreatedAt,
		rec.UpdatedAt,
	}
}
