//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadstream/threadstream-go/checkpoint"
	"github.com/threadstream/threadstream-go/thread"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func snapshot(n int) thread.State {
	return thread.State{
		Values: map[string]json.RawMessage{
			"messages": json.RawMessage(fmt.Sprintf(`[{"step":%d}]`, n)),
		},
		Next:  []string{},
		Tasks: []json.RawMessage{},
	}
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Put(ctx, "t-1", snapshot(i)))
	}

	states, err := s.History(ctx, "t-1", 0)
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.JSONEq(t, `[{"step":2}]`, string(states[0].Values["messages"]))

	limited, err := s.History(ctx, "t-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.JSONEq(t, `[{"step":2}]`, string(limited[0].Values["messages"]))
}

func TestHistoryPreservesShape(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	state := thread.State{
		Values: map[string]json.RawMessage{"messages": json.RawMessage(`[]`)},
		Next:   []string{"tools", "agent"},
		Tasks:  []json.RawMessage{json.RawMessage(`{"id":"task-1"}`)},
	}
	require.NoError(t, s.Put(ctx, "t-1", state))

	got, err := s.Latest(ctx, "t-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"tools", "agent"}, got.Next)
	require.Len(t, got.Tasks, 1)
	assert.JSONEq(t, `{"id":"task-1"}`, string(got.Tasks[0]))
}

func TestLatestNilWithoutCheckpoints(t *testing.T) {
	s := openTestStore(t)
	state, err := s.Latest(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestThreadOwnership(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.CreateThread(ctx, "t-1", "alice"))
	require.NoError(t, s.CreateThread(ctx, "t-2", "bob"))
	assert.ErrorIs(t, s.CreateThread(ctx, "t-1", "carol"), checkpoint.ErrThreadExists)

	infos, err := s.ListThreads(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "alice", infos[0].UserID)

	all, err := s.ListThreads(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	base := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.CreateRun(ctx, thread.Run{
		RunID: "r-1", ThreadID: "t-1", Status: thread.RunStatusPending,
		CreatedAt: base, UpdatedAt: base,
	}))
	require.NoError(t, s.CreateRun(ctx, thread.Run{
		RunID: "r-2", ThreadID: "t-1", Status: thread.RunStatusPending,
		CreatedAt: base.Add(time.Second), UpdatedAt: base.Add(time.Second),
	}))

	require.NoError(t, s.UpdateRunStatus(ctx, "r-2", thread.RunStatusRunning))
	assert.ErrorIs(t, s.UpdateRunStatus(ctx, "nope", thread.RunStatusError),
		checkpoint.ErrRunNotFound)

	runs, err := s.ListRuns(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r-1", runs[0].RunID)
	assert.Equal(t, thread.RunStatusRunning, runs[1].Status)
	assert.True(t, runs[0].CreatedAt.Equal(base), "created_at survives the round trip")
}
