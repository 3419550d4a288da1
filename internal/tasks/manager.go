// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// =============================================================================
// TASK MANAGER
// =============================================================================

// Fn is the work a task performs. It must honor ctx cancellation.
type Fn func(ctx context.Context) error

// Manager launches and tracks background tasks. Each task runs in its
// own goroutine under a per-task timeout; canceling a task or stopping
// the manager cancels the context handed to the work function.
type Manager struct {
	mu      sync.Mutex
	tasks   map[string]*Task
	wg      sync.WaitGroup
	stopped atomic.Bool // Prevents new tasks after Stop() is called

	taskTimeout time.Duration // Timeout per task (0 = no timeout)
}

// DefaultTaskTimeout bounds a single background task.
const DefaultTaskTimeout = 1 * time.Minute

// NewManager creates a manager with the default per-task timeout.
func NewManager() *Manager {
	return NewManagerWithTimeout(DefaultTaskTimeout)
}

// NewManagerWithTimeout creates a manager with a custom per-task
// timeout. A timeout of 0 disables the deadline.
func NewManagerWithTimeout(taskTimeout time.Duration) *Manager {
	return &Manager{
		tasks:       make(map[string]*Task),
		taskTimeout: taskTimeout,
	}
}

// Go starts fn in the background and returns its tracking task
// immediately. Returns nil if the manager has been stopped.
func (m *Manager) Go(description string, fn Fn) *Task {
	if m.stopped.Load() {
		return nil
	}

	task := NewTask(description)

	var ctx context.Context
	var cancel context.CancelFunc
	if m.taskTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.taskTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	task.setCancelFunc(cancel)

	m.mu.Lock()
	m.tasks[task.ID] = task
	m.mu.Unlock()

	task.MarkStarted()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		err := fn(ctx)

		switch {
		case err == nil:
			task.MarkComplete()
		case ctx.Err() == context.Canceled:
			task.MarkCanceled()
		default:
			task.SetError(err)
		}
	}()

	return task
}

// Get returns the task with the given ID, or nil.
func (m *Manager) Get(id string) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tasks[id]
}

// Running returns the tasks that have not reached a terminal state.
func (m *Manager) Running() []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()

	var running []*Task
	for _, t := range m.tasks {
		if !t.IsComplete() {
			running = append(running, t)
		}
	}
	return running
}

// CancelAll cancels every task that is still queued or running.
func (m *Manager) CancelAll() {
	m.mu.Lock()
	tasks := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	m.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
}

// Stop cancels outstanding tasks and waits for their goroutines to
// return. No new tasks can be started afterwards.
func (m *Manager) Stop() {
	m.stopped.Store(true)
	m.CancelAll()
	m.wg.Wait()
}
