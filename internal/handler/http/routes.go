package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// authoring surface
	router.Post("/api/changes", h.recordChange)
	router.Get("/api/entities/{entityType}", h.listEntities)
	router.Get("/api/entities/{entityType}/{entityID}", h.getEntity)

	// sync surface
	router.Get("/api/sync/status", h.getSyncStatus)
	router.Post("/api/sync/now", h.syncNow)
	router.Get("/api/sync/mutations/failed", h.listFailedMutations)
	router.Post("/api/sync/mutations/{mutationID}/retry", h.retryMutation)
	router.Post("/api/sync/mutations/{mutationID}/discard", h.discardMutation)
	router.Get("/api/sync/conflicts", h.listConflicts)
	router.Post("/api/sync/conflicts/{conflictID}/resolve", h.resolveConflict)

	router.Get("/api/version", h.getDaemonVersion)

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
