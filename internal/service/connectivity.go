package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/selamgebre/birrsync/internal/adapter"
	"github.com/selamgebre/birrsync/internal/config"
	"github.com/selamgebre/birrsync/internal/logger"
)

type connectivityMonitor struct {
	remote   adapter.RemoteStore
	interval time.Duration
	logger   *logger.Logger

	online atomic.Bool

	// onRecover fires on every offline-to-online transition.
	onRecover func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewConnectivityMonitor creates a monitor that pings the remote store on a
// ticker. The monitor is idle (and reports offline) until Start is called.
func NewConnectivityMonitor(remote adapter.RemoteStore, cfg config.Engine, logger *logger.Logger) *connectivityMonitor {
	interval := cfg.ProbeInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &connectivityMonitor{
		remote:   remote,
		interval: interval,
		logger:   logger,
	}
}

// SetOnRecover registers the callback fired when connectivity comes back.
// Must be called before Start.
func (m *connectivityMonitor) SetOnRecover(fn func(ctx context.Context)) {
	m.onRecover = fn
}

// Start implements [ConnectivityMonitor]. It probes immediately, then every
// interval. Any previously running monitor is stopped first.
func (m *connectivityMonitor) Start(ctx context.Context) {
	m.Stop()

	m.mu.Lock()
	monitorCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		t := time.NewTicker(m.interval)
		defer t.Stop()

		m.probe(monitorCtx)

		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-t.C:
				m.probe(monitorCtx)
			}
		}
	}()
}

// Stop implements [ConnectivityMonitor]. Safe to call when not running.
func (m *connectivityMonitor) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

// Online implements [ConnectivityMonitor].
func (m *connectivityMonitor) Online() bool {
	return m.online.Load()
}

func (m *connectivityMonitor) probe(ctx context.Context) {
	err := m.remote.Ping(ctx)
	nowOnline := err == nil
	wasOnline := m.online.Swap(nowOnline)

	if nowOnline == wasOnline {
		return
	}

	if nowOnline {
		m.logger.Info().Msg("connectivity regained")
		if m.onRecover != nil {
			m.onRecover(ctx)
		}
		return
	}

	m.logger.Warn().Err(err).Msg("connectivity lost")
}
