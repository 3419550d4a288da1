// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tasks

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTask(t *testing.T) {
	task := NewTask("Fetch profile")

	if task.ID == "" {
		t.Error("Task ID should not be empty")
	}

	if task.Description != "Fetch profile" {
		t.Errorf("Expected description 'Fetch profile', got '%s'", task.Description)
	}

	if task.GetStatus() != TaskStatusQueued {
		t.Errorf("Expected status Queued, got %s", task.GetStatus())
	}
}

func TestTaskLifecycle(t *testing.T) {
	task := NewTask("Test")

	task.MarkStarted()
	if !task.IsRunning() {
		t.Error("Task should be running after MarkStarted()")
	}

	task.MarkComplete()
	if task.GetStatus() != TaskStatusComplete {
		t.Error("Task should be complete after MarkComplete()")
	}

	// Duration might be very small but should not be negative
	if task.Duration() < 0 {
		t.Error("Task duration should not be negative")
	}
}

func TestTaskStatusTransitions(t *testing.T) {
	task := NewTask("Test")

	if err := task.SetStatus(TaskStatusComplete); err == nil {
		t.Error("Queued -> Complete should be rejected")
	}

	if err := task.SetStatus(TaskStatusRunning); err != nil {
		t.Errorf("Queued -> Running should be allowed: %v", err)
	}

	if err := task.SetStatus(TaskStatusFailed); err != nil {
		t.Errorf("Running -> Failed should be allowed: %v", err)
	}

	if err := task.SetStatus(TaskStatusRunning); err == nil {
		t.Error("Failed is terminal, transition should be rejected")
	}

	// Same-status set is idempotent
	if err := task.SetStatus(TaskStatusFailed); err != nil {
		t.Errorf("Idempotent set should be allowed: %v", err)
	}
}

func TestTaskSetError(t *testing.T) {
	task := NewTask("Test")
	task.MarkStarted()

	task.SetError(errors.New("boom"))
	if task.GetStatus() != TaskStatusFailed {
		t.Error("Task should be failed after SetError")
	}
	if task.GetError() != "boom" {
		t.Errorf("Expected error 'boom', got '%s'", task.GetError())
	}
}

func TestTaskCancel(t *testing.T) {
	task := NewTask("Test")
	task.MarkStarted()

	if !task.Cancel() {
		t.Error("Cancel should succeed for running task")
	}

	if task.GetStatus() != TaskStatusCanceled {
		t.Error("Task should be canceled")
	}

	// Second cancel should fail
	if task.Cancel() {
		t.Error("Second cancel should fail")
	}
}

func TestManagerRunsTask(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	done := make(chan struct{})
	task := m.Go("quick", func(ctx context.Context) error {
		close(done)
		return nil
	})
	if task == nil {
		t.Fatal("Go should return a task")
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not run")
	}

	waitForTerminal(t, task)
	if task.GetStatus() != TaskStatusComplete {
		t.Errorf("Expected Complete, got %s", task.GetStatus())
	}
	if m.Get(task.ID) != task {
		t.Error("Manager should track the task by ID")
	}
}

func TestManagerRecordsFailure(t *testing.T) {
	m := NewManager()
	defer m.Stop()

	task := m.Go("failing", func(ctx context.Context) error {
		return errors.New("fetch failed")
	})

	waitForTerminal(t, task)
	if task.GetStatus() != TaskStatusFailed {
		t.Errorf("Expected Failed, got %s", task.GetStatus())
	}
	if task.GetError() != "fetch failed" {
		t.Errorf("Expected 'fetch failed', got '%s'", task.GetError())
	}
}

func TestManagerStopCancelsRunningTasks(t *testing.T) {
	m := NewManager()

	started := make(chan struct{})
	task := m.Go("long", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})

	<-started
	m.Stop()

	if task.GetStatus() != TaskStatusCanceled {
		t.Errorf("Expected Canceled, got %s", task.GetStatus())
	}

	if m.Go("late", func(ctx context.Context) error { return nil }) != nil {
		t.Error("Go should return nil after Stop")
	}
}

func waitForTerminal(t *testing.T, task *Task) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if task.IsComplete() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("task never reached a terminal state, status %s", task.GetStatus())
}
