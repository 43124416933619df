package http

import (
	"errors"
	"net/http"

	"github.com/selamgebre/birrsync/internal/registry"
	"github.com/selamgebre/birrsync/internal/service"
	"github.com/selamgebre/birrsync/internal/store"
)

var errorStatusMap = map[error]int{
	registry.ErrUnknownEntityType: http.StatusBadRequest,

	service.ErrEmptyEntityID:           http.StatusBadRequest,
	service.ErrMissingPayload:          http.StatusBadRequest,
	service.ErrPayloadOnDelete:         http.StatusBadRequest,
	service.ErrUnknownOperation:        http.StatusBadRequest,
	service.ErrInvalidResolutionChoice: http.StatusBadRequest,
	service.ErrMissingMergedPayload:    http.StatusBadRequest,

	store.ErrMutationNotFound:        http.StatusNotFound,
	store.ErrMutationNotRevivable:    http.StatusConflict,
	store.ErrCacheEntityNotFound:     http.StatusNotFound,
	store.ErrConflictNotFound:        http.StatusNotFound,
	store.ErrConflictAlreadyResolved: http.StatusConflict,
	store.ErrCacheInvariantViolated:  http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
