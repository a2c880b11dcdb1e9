//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadstream/threadstream-go/checkpoint"
	"github.com/threadstream/threadstream-go/thread"
)

func snapshot(n int) thread.State {
	return thread.State{
		Values: map[string]json.RawMessage{
			"messages": json.RawMessage(fmt.Sprintf(`[{"step":%d}]`, n)),
		},
		Next:  []string{},
		Tasks: []json.RawMessage{},
	}
}

func TestPutHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, "t-1", snapshot(i)))
	}

	states, err := s.History(ctx, "t-1", 0)
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.JSONEq(t, `[{"step":2}]`, string(states[0].Values["messages"]))
	assert.JSONEq(t, `[{"step":0}]`, string(states[2].Values["messages"]))
}

func TestHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s := New()
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Put(ctx, "t-1", snapshot(i)))
	}

	states, err := s.History(ctx, "t-1", 2)
	require.NoError(t, err)
	require.Len(t, states, 2)
	assert.JSONEq(t, `[{"step":4}]`, string(states[0].Values["messages"]))
}

func TestHistoryUnknownThreadEmpty(t *testing.T) {
	s := New()
	states, err := s.History(context.Background(), "nope", 10)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestLatest(t *testing.T) {
	ctx := context.Background()
	s := New()

	state, err := s.Latest(ctx, "t-1")
	require.NoError(t, err)
	assert.Nil(t, state, "no checkpoints means nil, not an error")

	require.NoError(t, s.Put(ctx, "t-1", snapshot(0)))
	require.NoError(t, s.Put(ctx, "t-1", snapshot(1)))
	state, err = s.Latest(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.JSONEq(t, `[{"step":1}]`, string(state.Values["messages"]))
}

func TestThreadOwnership(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateThread(ctx, "t-1", "alice"))
	require.NoError(t, s.CreateThread(ctx, "t-2", "bob"))
	assert.ErrorIs(t, s.CreateThread(ctx, "t-1", "alice"), checkpoint.ErrThreadExists)

	infos, err := s.ListThreads(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "t-1", infos[0].ThreadID)

	all, err := s.ListThreads(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	require.NoError(t, s.CreateRun(ctx, thread.Run{
		RunID: "r-1", ThreadID: "t-1", Status: thread.RunStatusPending,
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, s.CreateRun(ctx, thread.Run{
		RunID: "r-2", ThreadID: "t-1", Status: thread.RunStatusPending,
		CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, s.UpdateRunStatus(ctx, "r-1", thread.RunStatusSuccess))
	assert.ErrorIs(t, s.UpdateRunStatus(ctx, "nope", thread.RunStatusError),
		checkpoint.ErrRunNotFound)

	runs, err := s.ListRuns(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r-1", runs[0].RunID)
	assert.Equal(t, thread.RunStatusSuccess, runs[0].Status)
	assert.Equal(t, thread.RunStatusPending, runs[1].Status)
}
