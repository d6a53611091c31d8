package handlers

import (
	"net/http"

	"github.com/bodyshop-platform/api/internal/httpx"
	"github.com/bodyshop-platform/api/internal/middleware"
)

// inventoryListLimit caps the listing at what the workshop dashboard renders.
const inventoryListLimit = 500

// GetInventory lists stocked parts.
func (s *Server) GetInventory(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.ActorFromContext(r.Context()); !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	rows, err := s.Store.Select(r.Context(), s.Config.InventoryTable, nil)
	if err != nil {
		httpx.WriteError(w, r, http.StatusInternalServerError, "internal_error", "Failed to load inventory", nil)
		return
	}
	if len(rows) > inventoryListLimit {
		rows = rows[:inventoryListLimit]
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]any{"data": rows})
}
