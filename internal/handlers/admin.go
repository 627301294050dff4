package handlers

import (
	"context"
	"net/http"

	"github.com/mquintana/divscope/internal/auth"
	pkghttp "github.com/mquintana/divscope/pkg/http"
	pkglogger "github.com/mquintana/divscope/pkg/logger"
)

// CacheAdminInterface defines the interface for cache maintenance
type CacheAdminInterface interface {
	ClearAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// AdminHandler handles operational admin endpoints
type AdminHandler struct {
	cache       CacheAdminInterface
	auditLogger *pkglogger.AuditLogger
}

func NewAdminHandler(cache CacheAdminInterface, auditLogger *pkglogger.AuditLogger) *AdminHandler {
	return &AdminHandler{
		cache:       cache,
		auditLogger: auditLogger,
	}
}

// FlushCache handles POST /admin/cache/flush. Every cached provider payload
// is dropped; the next lookups repopulate from the provider.
func (h *AdminHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetSessionFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "unauthorized")
		return
	}

	dropped, err := h.cache.Count(r.Context())
	if err != nil {
		dropped = -1
	}

	if err := h.cache.ClearAll(r.Context()); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	h.auditLogger.LogAdminAction("cache_flushed", claims.Email, nil)

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{
		"flushed": true,
		"entries": dropped,
	})
}

// CacheStats handles GET /admin/cache.
func (h *AdminHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	count, err := h.cache.Count(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"entries": count})
}
