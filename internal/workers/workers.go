package workers

import "context"

type Workers struct {
	workers []Worker
}

func New(workers ...Worker) *Workers {
	return &Workers{workers: workers}
}

// Start launches the workers in registration order.
func (w *Workers) Start(ctx context.Context) {
	for _, worker := range w.workers {
		worker.Start(ctx)
	}
}

// Stop stops the workers in reverse order, so consumers go down before the
// workers they depend on.
func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}
