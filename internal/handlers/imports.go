package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bodyshop-platform/api/internal/audit"
	"github.com/bodyshop-platform/api/internal/httpx"
	"github.com/bodyshop-platform/api/internal/ingest"
	"github.com/bodyshop-platform/api/internal/middleware"
)

type importRequest struct {
	Rows    []map[string]any  `json:"rows"`
	Mapping map[string]string `json:"mapping"`
}

// PostImports ingests pre-parsed rows supplied as JSON.
func (s *Server) PostImports(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if s.Config.ImportMaxRows > 0 && len(req.Rows) > s.Config.ImportMaxRows {
		httpx.WriteError(w, r, http.StatusRequestEntityTooLarge, "too_many_rows", "Row count exceeds the import limit", nil)
		return
	}

	s.runImport(w, r, actor, req.Rows, req.Mapping, "import.rows")
}

// PostImportsFile ingests a CSV or XLSX upload.
func (s *Server) PostImportsFile(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	upload, err := parseImportUpload(r, s.Config.ImportMaxFileBytes, s.Config.ImportMaxRows)
	if err != nil {
		var app *appError
		if errors.As(err, &app) {
			httpx.WriteError(w, r, app.status, app.code, app.message, app.details)
			return
		}
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_file", "Could not parse upload", nil)
		return
	}

	s.runImport(w, r, actor, upload.Rows, upload.Mapping, "import.file")
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, actor middleware.Actor, rows []map[string]any, mapping map[string]string, action string) {
	result, err := s.Ingestor.Ingest(r.Context(), rows, mapping, actor.UserID)
	if err != nil {
		if errors.Is(err, ingest.ErrNoRows) {
			httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "No rows provided", nil)
			return
		}
		s.Logger.Error("import_failed", "error", err, "request_id", middleware.RequestIDFromContext(r.Context()))
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Import failed", nil)
		return
	}

	_ = s.Audit.Log(r.Context(), audit.Entry{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: "import",
		RequestID:  middleware.RequestIDFromContext(r.Context()),
		Metadata: map[string]any{
			"rows":          len(rows),
			"insertedCount": result.InsertedCount,
			"errorCount":    len(result.Errors),
		},
	})

	httpx.WriteJSON(w, http.StatusOK, result)
}
