package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"

	"github.com/bodyshop-platform/api/internal/audit"
	"github.com/bodyshop-platform/api/internal/config"
	"github.com/bodyshop-platform/api/internal/handlers"
	"github.com/bodyshop-platform/api/internal/httpx"
	"github.com/bodyshop-platform/api/internal/identity"
	"github.com/bodyshop-platform/api/internal/ingest"
	"github.com/bodyshop-platform/api/internal/middleware"
	"github.com/bodyshop-platform/api/internal/store"
)

func NewRouter(cfg config.Config, st store.RecordStore, verifier identity.Verifier, logger *slog.Logger) (http.Handler, error) {
	specPath := filepath.Join("openapi.yaml")
	if _, err := os.Stat(specPath); err != nil {
		specPath = filepath.Join("..", "..", "openapi.yaml")
	}
	if _, err := os.Stat(specPath); err != nil {
		return nil, fmt.Errorf("openapi spec not found: %w", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.LimitBodyBytesWithOverrides(cfg.APIMaxBodyBytes, []middleware.BodyLimitOverride{
		{PathPrefix: "/imports/file", MaxBytes: cfg.ImportMaxFileBytes},
	}))

	api := chi.NewRouter()
	api.Use(openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
		SilenceServersWarning: true,
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			requestID := w.Header().Get("X-Request-Id")
			httpx.WriteJSON(w, statusCode, httpx.ErrorEnvelope{
				Error:     httpx.ErrorBody{Code: "validation_error", Message: message},
				RequestID: requestID,
			})
		},
	}))

	auditLogger := audit.NewLogger(st, cfg.AuditTable)
	ingestor := &ingest.Orchestrator{
		Store:     st,
		RawTable:  cfg.RawTable,
		JobsTable: cfg.JobsTable,
		BatchSize: cfg.IngestBatchSize,
	}
	h := handlers.NewServer(cfg, st, ingestor, auditLogger, logger)

	authMW := middleware.AuthMiddleware{Verifier: verifier}

	api.Group(func(public chi.Router) {
		public.Get("/health", h.GetHealth)
	})

	api.Group(func(protected chi.Router) {
		protected.Use(authMW.RequireAuth)

		protected.Post("/imports", h.PostImports)
		protected.Post("/imports/file", h.PostImportsFile)
		protected.Get("/imports/template", h.GetImportsTemplate)
		protected.Get("/exports/jobs", h.GetExportsJobs)

		protected.Get("/inventory", h.GetInventory)

		protected.Get("/mapping-presets", h.GetMappingPresets)
		protected.Post("/mapping-presets", h.PostMappingPresets)

		protected.Get("/jobs", h.GetJobs)
		protected.Post("/jobs", h.PostJobs)
		protected.Get("/jobs/{jobId}", h.GetJobsJobId)
		protected.Patch("/jobs/{jobId}", h.PatchJobsJobId)
		protected.Post("/jobs/{jobId}/notes", h.PostJobsJobIdNotes)
		protected.Post("/jobs/{jobId}/call-logs", h.PostJobsJobIdCallLogs)
	})

	r.Mount("/api", api)
	return r, nil
}
