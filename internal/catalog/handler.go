package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/dentalis/clinic-platform/pkg/logging"
)

// Handler serves the public catalog listings.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a catalog handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// ListWorkers handles GET /api/v1/workers.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.store.ListWorkers(r.Context())
	if err != nil {
		h.logger.Error("failed to list workers", "error", err)
		http.Error(w, "failed to list workers", http.StatusInternalServerError)
		return
	}
	if workers == nil {
		workers = []Worker{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"workers": workers})
}

// ListServices handles GET /api/v1/services.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.store.ListServices(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	if services == nil {
		services = []Service{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"services": services})
}
