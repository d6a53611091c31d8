package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/bodyshop-platform/api/internal/httpx"
	"github.com/bodyshop-platform/api/internal/middleware"
	"github.com/bodyshop-platform/api/internal/store"
)

type mappingPreset struct {
	ID      string            `json:"id"`
	UserID  string            `json:"userId"`
	Name    string            `json:"name"`
	Mapping map[string]string `json:"mapping"`
}

// GetMappingPresets lists the caller's saved column mappings.
func (s *Server) GetMappingPresets(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	rows, err := s.Store.Select(r.Context(), s.Config.PresetsTable, store.Row{"user_id": actor.UserID})
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load presets", nil)
		return
	}

	presets := make([]mappingPreset, 0, len(rows))
	for _, row := range rows {
		presets = append(presets, presetFromRow(row))
	}
	httpx.WriteJSON(w, http.StatusOK, presets)
}

// PostMappingPresets saves a named column mapping, replacing any preset with
// the same name for the caller.
func (s *Server) PostMappingPresets(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	var req struct {
		Name    string            `json:"name"`
		Mapping map[string]string `json:"mapping"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, "invalid_body", "Malformed JSON body", nil)
		return
	}
	if req.Name == "" || len(req.Mapping) == 0 {
		httpx.WriteError(w, r, http.StatusBadRequest, "validation_error", "name and mapping are required", nil)
		return
	}

	mapping, err := json.Marshal(req.Mapping)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to encode mapping", nil)
		return
	}

	row := store.Row{
		"id":         uuid.NewString(),
		"user_id":    actor.UserID,
		"name":       req.Name,
		"mapping":    mapping,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	result, err := s.Store.Upsert(r.Context(), s.Config.PresetsTable, []store.Row{row}, "user_id,name")
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to save preset", nil)
		return
	}

	saved := row
	if len(result.Rows) > 0 {
		saved = result.Rows[0]
	}
	httpx.WriteJSON(w, http.StatusCreated, presetFromRow(saved))
}

func presetFromRow(row store.Row) mappingPreset {
	preset := mappingPreset{
		ID:      stringValue(row["id"]),
		UserID:  stringValue(row["user_id"]),
		Name:    stringValue(row["name"]),
		Mapping: map[string]string{},
	}
	switch mapping := row["mapping"].(type) {
	case []byte:
		_ = json.Unmarshal(mapping, &preset.Mapping)
	case string:
		_ = json.Unmarshal([]byte(mapping), &preset.Mapping)
	case map[string]any:
		for key, value := range mapping {
			if s, ok := value.(string); ok {
				preset.Mapping[key] = s
			}
		}
	}
	return preset
}

// stringValue renders a column value as a string, covering the raw uuid bytes
// pgx hands back for uuid columns.
func stringValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case [16]byte:
		return uuid.UUID(value).String()
	default:
		return ""
	}
}
