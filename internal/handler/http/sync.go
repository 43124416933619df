package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/utils"
	"github.com/selamgebre/birrsync/models"
)

func (h *Handler) getSyncStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	status, err := h.services.Engine.Status(ctx)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getSyncStatus").Msg("error building status snapshot")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, status, http.StatusOK)
}

// syncNow runs a pass regardless of the advisory online flag; an unreachable
// remote just comes back as deferred mutations.
func (h *Handler) syncNow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	result, err := h.services.Engine.Sync(ctx)
	if err != nil {
		log.Err(err).Str("func", "*Handler.syncNow").Msg("sync pass failed")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) listFailedMutations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	mutations, err := h.services.Engine.ListFailedMutations(ctx)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listFailedMutations").Msg("error listing failed mutations")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	response := models.MutationListResponse{
		Mutations: mutations,
		Length:    len(mutations),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) retryMutation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	mutationID := chi.URLParam(r, "mutationID")

	if err := h.services.Engine.RetryMutation(ctx, mutationID); err != nil {
		log.Err(err).Str("func", "*Handler.retryMutation").Msg("error reviving mutation")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) discardMutation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	mutationID := chi.URLParam(r, "mutationID")

	if err := h.services.Engine.DiscardMutation(ctx, mutationID); err != nil {
		log.Err(err).Str("func", "*Handler.discardMutation").Msg("error discarding mutation")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
