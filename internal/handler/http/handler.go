package http

import (
	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/service"
)

type Handler struct {
	services *service.Services
	version  string

	logger *logger.Logger
}

func NewHandler(services *service.Services, version string, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services: services,
		version:  version,
		logger:   logger,
	}
}
