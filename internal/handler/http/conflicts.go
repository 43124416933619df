package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/utils"
	"github.com/selamgebre/birrsync/models"
)

func (h *Handler) listConflicts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	conflicts, err := h.services.Resolver.ListConflicts(ctx)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listConflicts").Msg("error listing conflicts")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	response := models.ConflictListResponse{
		Conflicts: conflicts,
		Length:    len(conflicts),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}

func (h *Handler) resolveConflict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	conflictID := chi.URLParam(r, "conflictID")

	var resolution models.Resolution
	if err := json.NewDecoder(r.Body).Decode(&resolution); err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	if err := h.services.Resolver.Resolve(ctx, conflictID, resolution); err != nil {
		log.Err(err).Str("func", "*Handler.resolveConflict").Msg("error resolving conflict")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
