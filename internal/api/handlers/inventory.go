package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"trip-search-service/internal/api/dto"
	"trip-search-service/internal/platform/obs"
	"trip-search-service/internal/services"
)

type InventoryReloader interface {
	Reload(ctx context.Context) (services.ReloadSummary, error)
}

// InventoryHandler rebuilds the search index from the backing store.
type InventoryHandler struct {
	Inventory InventoryReloader
}

// Reload handles POST /inventory/reload.
func (h *InventoryHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	sum, err := h.Inventory.Reload(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "inventory reload failed",
			"req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusInternalServerError, "inventory reload failed")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ReloadResponse{
		Legs:        sum.Legs,
		Lodging:     sum.Lodging,
		Fingerprint: strconv.FormatUint(sum.Fingerprint, 16),
		Invalidated: sum.Invalidated,
	})
}
