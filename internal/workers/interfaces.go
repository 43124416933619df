// Package workers provides abstractions for managing the daemon's background
// workers (the connectivity monitor and the scheduled sync job).
// It defines the Worker interface and a Workers aggregate that starts and
// stops multiple workers in a unified way.
package workers

import "context"

// Worker is the interface that must be implemented by any background worker.
//
// Start is expected to return quickly, spawning goroutines internally; Stop
// must block until those goroutines have fully exited and must be safe to
// call on a worker that was never started.
type Worker interface {
	Start(ctx context.Context)
	Stop()
}
