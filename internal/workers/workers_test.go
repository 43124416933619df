// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Selam Gebre

package workers

import (
	"context"
	"testing"
)

// mockWorker is a test implementation of the Worker interface
// that tracks how many times Start and Stop were called.
type mockWorker struct {
	startCount int
	stopCount  int
}

func (m *mockWorker) Start(context.Context) { m.startCount++ }
func (m *mockWorker) Stop()                 { m.stopCount++ }

func TestWorkers_Start_AllWorkersAreCalled(t *testing.T) {
	w1 := &mockWorker{}
	w2 := &mockWorker{}
	w3 := &mockWorker{}

	ws := New(w1, w2, w3)
	ws.Start(context.Background())

	for i, w := range []*mockWorker{w1, w2, w3} {
		if w.startCount != 1 {
			t.Errorf("worker[%d]: expected startCount=1, got %d", i, w.startCount)
		}
	}
}

func TestWorkers_Start_Empty(t *testing.T) {
	ws := New()

	// Should not panic on empty workers list
	ws.Start(context.Background())
	ws.Stop()
}

func TestWorkers_Start_Nil(t *testing.T) {
	ws := &Workers{}

	// Should not panic when workers field is nil
	ws.Start(context.Background())
	ws.Stop()
}

func TestWorkers_StartStop_Order(t *testing.T) {
	order := []int{}

	newOrderWorker := func(id int) Worker {
		return &orderWorker{id: id, order: &order}
	}

	ws := New(
		newOrderWorker(1),
		newOrderWorker(2),
		newOrderWorker(3),
	)
	ws.Start(context.Background())
	ws.Stop()

	// start in registration order, stop in reverse
	expected := []int{1, 2, 3, -3, -2, -1}
	for i, v := range expected {
		if order[i] != v {
			t.Errorf("expected order[%d]=%d, got %d", i, v, order[i])
		}
	}
}

func TestWorkers_Stop_CalledOnce(t *testing.T) {
	w := &mockWorker{}
	ws := New(w)

	ws.Start(context.Background())
	ws.Stop()

	if w.stopCount != 1 {
		t.Errorf("expected Stop to be called exactly once, got %d", w.stopCount)
	}
}

// orderWorker is a helper that appends its ID on Start and the negated ID on
// Stop.
type orderWorker struct {
	id    int
	order *[]int
}

func (o *orderWorker) Start(context.Context) { *o.order = append(*o.order, o.id) }
func (o *orderWorker) Stop()                 { *o.order = append(*o.order, -o.id) }