package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/selamgebre/birrsync/internal/adapter"
	"github.com/selamgebre/birrsync/internal/config"
	"github.com/selamgebre/birrsync/internal/handler"
	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/registry"
	"github.com/selamgebre/birrsync/internal/server"
	"github.com/selamgebre/birrsync/internal/service"
	"github.com/selamgebre/birrsync/internal/store"
	"github.com/selamgebre/birrsync/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("birrsyncd")

	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	reg := registry.Default()

	remote, err := adapter.NewHTTPRemoteStore(cfg.Remote, reg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating remote store adapter")
	}

	storages, err := store.NewStorages(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}

	services := service.NewServices(storages, remote, reg, cfg.Engine, log)

	background := workers.New(services.Monitor, services.Job)
	background.Start(context.Background())

	handlers, err := handler.NewHandlers(services, cfg.Server, buildVersion, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, background.Stop, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	banner := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("10")).
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2).
		Render("birrsync: offline-first sync daemon")

	fmt.Println(banner)
	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
