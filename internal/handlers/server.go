package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bodyshop-platform/api/internal/audit"
	"github.com/bodyshop-platform/api/internal/config"
	"github.com/bodyshop-platform/api/internal/httpx"
	"github.com/bodyshop-platform/api/internal/ingest"
	"github.com/bodyshop-platform/api/internal/store"
)

type Server struct {
	Config   config.Config
	Store    store.RecordStore
	Ingestor *ingest.Orchestrator
	Audit    *audit.Logger
	Logger   *slog.Logger
}

func NewServer(cfg config.Config, st store.RecordStore, ingestor *ingest.Orchestrator, auditLogger *audit.Logger, logger *slog.Logger) *Server {
	return &Server{Config: cfg, Store: st, Ingestor: ingestor, Audit: auditLogger, Logger: logger}
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
