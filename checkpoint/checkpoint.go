//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

// Package checkpoint defines server-side storage of thread checkpoints,
// thread ownership, and run records.
package checkpoint

import (
	"context"
	"errors"

	"github.com/threadstream/threadstream-go/thread"
)

// DefaultHistoryLimit bounds History when the caller passes a non-positive
// limit.
const DefaultHistoryLimit = 100

var (
	// ErrThreadExists is returned by CreateThread for a duplicate thread id.
	ErrThreadExists = errors.New("thread already exists")
	// ErrRunNotFound is returned by UpdateRunStatus for an unknown run id.
	ErrRunNotFound = errors.New("run not found")
)

// Store persists checkpoints, thread ownership, and runs. Checkpoints are
// append-only snapshots; a thread needs no ownership row before checkpoints
// can be recorded against it.
type Store interface {
	// CreateThread records a thread and its owning user.
	CreateThread(ctx context.Context, threadID, userID string) error
	// ListThreads lists threads owned by a user, newest first. An empty
	// userID lists all threads.
	ListThreads(ctx context.Context, userID string) ([]thread.Info, error)

	// Put appends a checkpoint snapshot for a thread.
	Put(ctx context.Context, threadID string, state thread.State) error
	// History returns up to limit checkpoint snapshots for a thread,
	// newest first.
	History(ctx context.Context, threadID string, limit int) ([]thread.State, error)
	// Latest returns the most recent checkpoint snapshot for a thread, or
	// nil when the thread has no recorded checkpoints.
	Latest(ctx context.Context, threadID string) (*thread.State, error)

	// CreateRun records a new run.
	CreateRun(ctx context.Context, run thread.Run) error
	// UpdateRunStatus transitions a run's status.
	UpdateRunStatus(ctx context.Context, runID, status string) error
	// ListRuns lists the runs recorded against a thread, oldest first.
	ListRuns(ctx context.Context, threadID string) ([]thread.Run, error)

	// Close releases resources held by the store.
	Close() error
}
