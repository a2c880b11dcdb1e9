//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package history

import (
	"context"
	"sync"

	"github.com/threadstream/threadstream-go/sse"
)

// broker keeps the event log of every run so a join can replay from the
// beginning and then tail live events. Logs are kept after run completion:
// joining a finished run replays its full stream and terminates.
type broker struct {
	mu   sync.Mutex
	logs map[string]*runLog
}

func newBroker() *broker {
	return &broker{logs: make(map[string]*runLog)}
}

// open returns the log for a run, creating it if needed.
func (b *broker) open(runID string) *runLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.logs[runID]
	if !ok {
		l = newRunLog()
		b.logs[runID] = l
	}
	return l
}

// lookup returns the log for a run, or nil when no run produced one.
func (b *broker) lookup(runID string) *runLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.logs[runID]
}

// runLog is an append-only chunk log with blocking reads. Readers track
// their own offset, so replay and live tailing are the same code path and
// arrival order is preserved for every reader.
type runLog struct {
	mu     sync.Mutex
	cond   *sync.Cond
	chunks []sse.StreamChunk
	closed bool
}

func newRunLog() *runLog {
	l := &runLog{}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// append adds a chunk and wakes blocked readers.
func (l *runLog) append(chunk sse.StreamChunk) {
	l.mu.Lock()
	l.chunks = append(l.chunks, chunk)
	l.mu.Unlock()
	l.cond.Broadcast()
}

// close marks the run finished; readers drain the backlog and stop.
func (l *runLog) close() {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	l.cond.Broadcast()
}

// next blocks until the chunk at offset i exists, the log closes, or ctx is
// done. ok is false when no further chunk will appear.
func (l *runLog) next(ctx context.Context, i int) (sse.StreamChunk, bool) {
	// cond.Wait cannot observe ctx directly; a watcher wakes the readers
	// when the context ends. It takes the lock so the wakeup cannot land
	// between a reader's condition check and its wait registration.
	stop := context.AfterFunc(ctx, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.cond.Broadcast()
	})
	defer stop()

	l.mu.Lock()
	defer l.mu.Unlock()
	for i >= len(l.chunks) && !l.closed && ctx.Err() == nil {
		l.cond.Wait()
	}
	if i < len(l.chunks) && ctx.Err() == nil {
		return l.chunks[i], true
	}
	return sse.StreamChunk{}, false
}
