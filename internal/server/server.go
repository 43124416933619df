package server

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/selamgebre/birrsync/internal/config"
	"github.com/selamgebre/birrsync/internal/handler"
	"github.com/selamgebre/birrsync/internal/logger"
)

type server struct {
	httpServer *httpServer
	logger     *logger.Logger

	// onShutdown runs once, before the transport stops accepting requests.
	// Used to stop the background sync job and connectivity monitor.
	onShutdown func()
}

func NewServer(handlers *handler.Handlers, cfg config.Server, onShutdown func(), logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")

	if cfg.HTTPAddress == "" {
		return nil, errNoServersAreCreated
	}

	return &server{
		httpServer: newHTTPServer(handlers.HTTP.Init(), cfg, logger),
		logger:     logger,
		onShutdown: onShutdown,
	}, nil
}

func (s *server) RunServer() {
	if err := s.run(); err != nil {
		s.logger.Info().Msgf("Error running server: %v \n", err)
	}
}

func (s *server) Shutdown() {
	if s.onShutdown != nil {
		s.onShutdown()
	}

	s.httpServer.Shutdown()
}

func (s *server) run() error {
	idleConnectionsClosed := make(chan struct{})
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	// listen for stop signals
	go func() {
		<-ctx.Done()

		s.Shutdown()

		close(idleConnectionsClosed)
	}()

	s.logger.Info().Msg("Launching HTTP server")
	go s.httpServer.RunServer()

	<-idleConnectionsClosed
	s.logger.Info().Msg("server Shutdown gracefully")

	return nil
}
