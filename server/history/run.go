//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/threadstream/threadstream-go/sse"
	"github.com/threadstream/threadstream-go/thread"
)

// RunContext is handed to a Runner for one run execution. Emitted chunks
// reach every joined stream, replayed or live, in emission order.
type RunContext struct {
	// ThreadID is the thread the run executes against.
	ThreadID string
	// RunID identifies the run.
	RunID string
	// Input is the run input as supplied to the start-run request.
	Input json.RawMessage

	store storePutter
	log   *runLog
}

// storePutter is the slice of checkpoint.Store a running run needs.
type storePutter interface {
	Put(ctx context.Context, threadID string, state thread.State) error
}

// Emit publishes one named event on the run stream. The payload must be
// JSON-encodable; joined clients drop frames that are not.
func (rc *RunContext) Emit(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	rc.log.append(sse.StreamChunk{Event: event, Data: payload})
	return nil
}

// SaveCheckpoint appends a checkpoint snapshot for the thread and emits it
// as a values event, so live consumers and later history fetches observe
// the same state.
func (rc *RunContext) SaveCheckpoint(ctx context.Context, state thread.State) error {
	if err := rc.store.Put(ctx, rc.ThreadID, state); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return rc.Emit(thread.StreamModeValues, state)
}
