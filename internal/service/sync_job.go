package service

import (
	"context"
	"sync"
	"time"

	"github.com/selamgebre/birrsync/internal/logger"
)

type syncJob struct {
	engine   SyncEngine
	monitor  ConnectivityMonitor
	interval time.Duration
	logger   *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a syncJob that runs a sync pass on a ticker while the
// monitor reports the remote store reachable. The job is idle until Start is
// called.
func NewSyncJob(engine SyncEngine, monitor ConnectivityMonitor, interval time.Duration, logger *logger.Logger) SyncJob {
	if interval <= 0 {
		interval = 45 * time.Second
	}
	return &syncJob{
		engine:   engine,
		monitor:  monitor,
		interval: interval,
		logger:   logger,
	}
}

// Start implements [SyncJob]. It stops any previously running job, then
// launches a background goroutine that syncs every interval while online.
// The goroutine exits when ctx is cancelled or Stop is called.
func (j *syncJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(j.interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				if !j.monitor.Online() {
					continue
				}
				if _, err := j.engine.Sync(jobCtx); err != nil && jobCtx.Err() == nil {
					j.logger.Err(err).Msg("scheduled sync pass failed")
				}
			}
		}
	}()
}

// Stop implements [SyncJob]. It cancels the background goroutine's context
// and blocks until the goroutine has fully exited. Safe to call when the job
// is not running (no-op in that case).
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
