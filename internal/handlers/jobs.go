package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bodyshop-platform/api/internal/audit"
	"github.com/bodyshop-platform/api/internal/httpx"
	"github.com/bodyshop-platform/api/internal/jobs"
	"github.com/bodyshop-platform/api/internal/middleware"
	"github.com/bodyshop-platform/api/internal/store"
)

// GetJobs lists jobs, optionally filtered by status or current stage.
func (s *Server) GetJobs(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ActorFromContext(r.Context()); !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	filter := store.Row{}
	if status := r.URL.Query().Get("status"); status != "" {
		filter["status"] = status
	}
	if stage := r.URL.Query().Get("stage"); stage != "" {
		filter["current_stage"] = stage
	}

	rows, err := s.Store.Select(r.Context(), s.Config.JobsTable, filter)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load jobs", nil)
		return
	}

	records := make([]jobs.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := jobs.FromRow(row)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	httpx.WriteJSON(w, http.StatusOK, records)
}

// GetJobsJobId returns one job by id.
func (s *Server) GetJobsJobId(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ActorFromContext(r.Context()); !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	rec, ok := s.loadJob(w, r, chi.URLParam(r, "jobId"))
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

// PostJobs creates or replaces a job from a client-supplied record.
func (s *Server) PostJobs(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	var rec jobs.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}

	now := time.Now()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.JobType = jobs.NormalizeJobType(rec.JobType)
	if rec.Status == "" {
		rec.Status = jobs.DefaultStatus
	}
	if rec.CurrentStage == "" {
		rec.CurrentStage = jobs.InitialStage
	}
	if rec.CreatedBy == "" {
		rec.CreatedBy = actor.UserID
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = now.UTC().Format(time.RFC3339)
	}
	rec.RecomputeProfit()
	rec.Touch(now)

	if _, err := s.Store.Upsert(r.Context(), s.Config.JobsTable, []store.Row{rec.ToRow()}, "id"); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to save job", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		UserID:     actor.UserID,
		Action:     "jobs.create",
		EntityType: "job",
		EntityID:   rec.ID,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
	})

	httpx.WriteJSON(w, http.StatusCreated, rec)
}

// PatchJobsJobId applies a partial update. The stored record is loaded, the
// patch is overlaid field-by-field, and profit is recomputed from the merged
// billing amounts so a patch can never desynchronize the derived value.
func (s *Server) PatchJobsJobId(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	jobID := chi.URLParam(r, "jobId")
	rec, ok := s.loadJob(w, r, jobID)
	if !ok {
		return
	}

	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	// Identity and derived fields are not patchable.
	delete(patch, "id")
	delete(patch, "profit")
	delete(patch, "createdBy")
	delete(patch, "createdAt")

	merged, err := json.Marshal(patch)
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if err := json.Unmarshal(merged, &rec); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Patch does not match the job shape", nil)
		return
	}

	rec.JobType = jobs.NormalizeJobType(rec.JobType)
	rec.RecomputeProfit()
	rec.Touch(time.Now())

	if _, err := s.Store.Upsert(r.Context(), s.Config.JobsTable, []store.Row{rec.ToRow()}, "id"); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to save job", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		UserID:     actor.UserID,
		Action:     "jobs.update",
		EntityType: "job",
		EntityID:   rec.ID,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
	})

	httpx.WriteJSON(w, http.StatusOK, rec)
}

// PostJobsJobIdNotes appends a note to the job's note list.
func (s *Server) PostJobsJobIdNotes(w http.ResponseWriter, r *http.Request) {
	s.appendEntry(w, r, "notes", func(rec *jobs.Record, entry map[string]any) {
		rec.Notes = append(rec.Notes, entry)
	})
}

// PostJobsJobIdCallLogs appends a call log entry to the job.
func (s *Server) PostJobsJobIdCallLogs(w http.ResponseWriter, r *http.Request) {
	s.appendEntry(w, r, "callLogs", func(rec *jobs.Record, entry map[string]any) {
		rec.CallLogs = append(rec.CallLogs, entry)
	})
}

func (s *Server) appendEntry(w http.ResponseWriter, r *http.Request, kind string, apply func(*jobs.Record, map[string]any)) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	rec, ok := s.loadJob(w, r, chi.URLParam(r, "jobId"))
	if !ok {
		return
	}

	var entry map[string]any
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil || len(entry) == 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "A non-empty JSON object is required", nil)
		return
	}

	now := time.Now()
	entry["by"] = actor.UserID
	entry["at"] = now.UTC().Format(time.RFC3339)
	apply(&rec, entry)
	rec.Touch(now)

	if _, err := s.Store.Upsert(r.Context(), s.Config.JobsTable, []store.Row{rec.ToRow()}, "id"); err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to save job", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		UserID:     actor.UserID,
		Action:     "jobs." + kind + ".append",
		EntityType: "job",
		EntityID:   rec.ID,
		RequestID:  middleware.RequestIDFromContext(r.Context()),
	})

	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (s *Server) loadJob(w http.ResponseWriter, r *http.Request, jobID string) (jobs.Record, bool) {
	if jobID == "" {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "Job id is required", nil)
		return jobs.Record{}, false
	}

	rows, err := s.Store.Select(r.Context(), s.Config.JobsTable, store.Row{"id": jobID})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load job", nil)
		return jobs.Record{}, false
	}
	if len(rows) == 0 {
		httpx.WriteError(w, r, http.StatusNotFound, "job_not_found", "Job was not found", nil)
		return jobs.Record{}, false
	}

	rec, err := jobs.FromRow(rows[0])
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Stored job is unreadable", nil)
		return jobs.Record{}, false
	}
	return rec, true
}
