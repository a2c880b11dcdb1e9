//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

// Package client provides the backend-agnostic capability contract for
// persisted conversation threads, and an HTTP implementation of it: fetch a
// thread's checkpoint history and current state, list the runs recorded
// against a thread, and join the event stream of a live or replayed run.
package client

import (
	"context"

	"github.com/threadstream/threadstream-go/thread"
)

// DefaultHistoryLimit caps GetHistory when the caller does not set one.
const DefaultHistoryLimit = 100

// HistoryOptions tunes a GetHistory call.
type HistoryOptions struct {
	// Limit is the maximum number of checkpoint snapshots returned.
	// Zero means DefaultHistoryLimit.
	Limit int
}

// JoinOptions tunes a Join call.
type JoinOptions struct {
	// StreamModes filters which event categories the stream delivers.
	// Empty means thread.DefaultStreamModes.
	StreamModes []string
}

// ThreadService exposes the point-in-time thread fetches. Both operations
// are single request/response round-trips with no retries at this layer.
type ThreadService interface {
	// GetHistory fetches up to opts.Limit checkpoint snapshots for a
	// thread, in backend-defined order.
	GetHistory(ctx context.Context, threadID string, opts *HistoryOptions) ([]thread.State, error)

	// GetState fetches the current state of a thread. A thread with no
	// recorded checkpoints yields thread.EmptyState, not an error.
	GetState(ctx context.Context, threadID string) (thread.State, error)
}

// RunService exposes run listing and the run-join stream.
type RunService interface {
	// List fetches the runs recorded against a thread, in backend-defined
	// order.
	List(ctx context.Context, threadID string) ([]thread.Run, error)

	// Join opens the event stream of a specific run. The returned stream
	// is single-pass and not restartable: rejoining after exhaustion or
	// abandonment requires a fresh Join call, which is the resumption
	// mechanism reconnecting consumers rely on.
	Join(ctx context.Context, threadID, runID string, opts *JoinOptions) (*RunStream, error)
}

// Client is the capability set any thread backend must provide. Consumers
// written against it are fully substitutable across backends; no
// transport-specific detail crosses this boundary.
type Client interface {
	Threads() ThreadService
	Runs() RunService
}
