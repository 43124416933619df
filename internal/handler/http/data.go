package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/utils"
	"github.com/selamgebre/birrsync/models"
)

func (h *Handler) recordChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	var change models.ChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&change); err != nil {
		log.Err(err).Str("func", "*Handler.recordChange").Msg("Invalid JSON was passed")
		http.Error(w, "Invalid JSON was passed", http.StatusBadRequest)
		return
	}

	mutation, err := h.services.Authoring.RecordChange(ctx, change.EntityType, change.EntityID, change.Operation, change.Payload)
	if err != nil {
		log.Err(err).Str("func", "*Handler.recordChange").Msg("error recording change")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, mutation, http.StatusAccepted)
}

func (h *Handler) getEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	entityType := models.EntityType(chi.URLParam(r, "entityType"))
	entityID := chi.URLParam(r, "entityID")

	entity, err := h.services.Authoring.GetEntity(ctx, entityType, entityID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.getEntity").Msg("error reading cached entity")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	utils.WriteJSON(w, entity, http.StatusOK)
}

func (h *Handler) listEntities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	entityType := models.EntityType(chi.URLParam(r, "entityType"))

	entities, err := h.services.Authoring.ListEntities(ctx, entityType)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listEntities").Msg("error listing cached entities")
		http.Error(w, err.Error(), statusFromError(err))
		return
	}

	response := models.EntityListResponse{
		Entities: entities,
		Length:   len(entities),
	}

	utils.WriteJSON(w, response, http.StatusOK)
}
