//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

// Package thread defines the durable conversation model shared by the
// client and the history server: thread state snapshots, runs, and the
// stream-mode filters a run stream can be joined with.
package thread

import (
	"encoding/json"
	"time"
)

// Run status values.
const (
	RunStatusPending = "pending"
	RunStatusRunning = "running"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// Stream modes selecting which event categories a joined run stream
// delivers.
const (
	StreamModeEvents  = "events"
	StreamModeValues  = "values"
	StreamModeUpdates = "updates"
	StreamModeCustom  = "custom"
)

// DefaultStreamModes is the filter applied when a join request does not
// name any modes.
var DefaultStreamModes = []string{
	StreamModeEvents,
	StreamModeValues,
	StreamModeUpdates,
	StreamModeCustom,
}

// State is a point-in-time snapshot of a thread: the checkpointed state
// values, the node identifiers pending execution, and the pending task
// descriptors. Values and Tasks are backend-defined and passed through
// opaquely.
type State struct {
	Values map[string]json.RawMessage `json:"values"`
	Next   []string                   `json:"next"`
	Tasks  []json.RawMessage          `json:"tasks"`
}

// EmptyState returns the canonical state of a thread with no recorded
// checkpoints: an empty message list, nothing pending. This is a defined
// default for new threads, not an absence signal.
func EmptyState() State {
	return State{
		Values: map[string]json.RawMessage{"messages": json.RawMessage(`[]`)},
		Next:   []string{},
		Tasks:  []json.RawMessage{},
	}
}

// Run is the listable record of one agent execution against a thread.
type Run struct {
	RunID     string    `json:"run_id"`
	ThreadID  string    `json:"thread_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Info describes a thread and its owner, as listed by the ownership
// endpoint.
type Info struct {
	ThreadID  string    `json:"thread_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
