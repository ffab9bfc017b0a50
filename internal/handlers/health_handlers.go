package handlers

import (
	"net/http"

	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/database"
	"github.com/authgate/authgate/internal/utils"
)

// HealthHandler reports the liveness of the service and its dependencies.
type HealthHandler struct {
	db    *database.Pool
	cache *cache.Client
}

// NewHealthHandler creates a new HealthHandler. The cache may be nil when
// the service runs without Redis.
func NewHealthHandler(db *database.Pool, cacheClient *cache.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cacheClient}
}

// Health checks the database and, when configured, the cache. The service
// is degraded but still serving when only the cache is down, since
// revocation checks fall back to the database.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	checks := map[string]string{}

	if err := h.db.HealthCheck(r.Context()); err != nil {
		utils.JSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unavailable",
			"checks": map[string]string{"database": err.Error()},
		})
		return
	}
	checks["database"] = "ok"

	if h.cache != nil {
		if err := h.cache.HealthCheck(r.Context()); err != nil {
			status = "degraded"
			checks["cache"] = err.Error()
		} else {
			checks["cache"] = "ok"
		}
	}

	utils.JSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
