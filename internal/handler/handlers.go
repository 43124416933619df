package handler

import (
	"github.com/selamgebre/birrsync/internal/config"
	"github.com/selamgebre/birrsync/internal/handler/http"
	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
}

func NewHandlers(services *service.Services, cfg config.Server, version string, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	if cfg.HTTPAddress == "" {
		return nil, errNoHandlersAreCreated
	}

	return &Handlers{
		HTTP: http.NewHandler(services, version, logger),
	}, nil
}
