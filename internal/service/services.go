package service

import (
	"context"

	"github.com/selamgebre/birrsync/internal/adapter"
	"github.com/selamgebre/birrsync/internal/config"
	"github.com/selamgebre/birrsync/internal/logger"
	"github.com/selamgebre/birrsync/internal/registry"
	"github.com/selamgebre/birrsync/internal/store"
)

// Services wires the sync stack together: the background monitor and job plus
// the three surfaces the HTTP facade exposes.
type Services struct {
	Authoring AuthoringService
	Engine    SyncEngine
	Resolver  ConflictResolver
	Monitor   ConnectivityMonitor
	Job       SyncJob
}

func NewServices(storages *store.Storages, remote adapter.RemoteStore, reg *registry.Registry, cfg config.Engine, logger *logger.Logger) *Services {
	monitor := NewConnectivityMonitor(remote, cfg, logger)

	engine := NewSyncEngine(storages, remote, reg, cfg, monitor.Online, logger)
	notifier := engine.(statusNotifier)

	monitor.SetOnRecover(func(ctx context.Context) {
		if _, err := engine.Sync(ctx); err != nil && ctx.Err() == nil {
			logger.Err(err).Msg("sync after reconnect failed")
		}
	})

	return &Services{
		Authoring: NewAuthoringService(storages, reg, notifier, logger),
		Engine:    engine,
		Resolver:  NewConflictResolver(storages, notifier, logger),
		Monitor:   monitor,
		Job:       NewSyncJob(engine, monitor, cfg.SyncInterval, logger),
	}
}
