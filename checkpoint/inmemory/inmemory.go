//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

// Package inmemory provides in-memory checkpoint storage. It is suitable
// for tests and demos but not for durable deployments.
package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/threadstream/threadstream-go/checkpoint"
	"github.com/threadstream/threadstream-go/thread"
)

// Store is an in-memory implementation of checkpoint.Store.
type Store struct {
	mu          sync.RWMutex
	threads     map[string]thread.Info
	checkpoints map[string][]thread.State // threadID -> snapshots, oldest first
	runs        map[string]*thread.Run    // runID -> run
	runOrder    map[string][]string       // threadID -> runIDs, oldest first
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		threads:     make(map[string]thread.Info),
		checkpoints: make(map[string][]thread.State),
		runs:        make(map[string]*thread.Run),
		runOrder:    make(map[string][]string),
	}
}

// CreateThread implements checkpoint.Store.
func (s *Store) CreateThread(ctx context.Context, threadID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.threads[threadID]; exists {
		return checkpoint.ErrThreadExists
	}
	s.threads[threadID] = thread.Info{
		ThreadID:  threadID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	return nil
}

// ListThreads implements checkpoint.Store.
func (s *Store) ListThreads(ctx context.Context, userID string) ([]thread.Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]thread.Info, 0, len(s.threads))
	for _, info := range s.threads {
		if userID == "" || info.UserID == userID {
			infos = append(infos, info)
		}
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos, nil
}

// Put implements checkpoint.Store.
func (s *Store) Put(ctx context.Context, threadID string, state thread.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[threadID] = append(s.checkpoints[threadID], state)
	return nil
}

// History implements checkpoint.Store.
func (s *Store) History(ctx context.Context, threadID string, limit int) ([]thread.State, error) {
	if limit <= 0 {
		limit = checkpoint.DefaultHistoryLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshots := s.checkpoints[threadID]
	states := make([]thread.State, 0, limit)
	for i := len(snapshots) - 1; i >= 0 && len(states) < limit; i-- {
		states = append(states, snapshots[i])
	}
	return states, nil
}

// Latest implements checkpoint.Store.
func (s *Store) Latest(ctx context.Context, threadID string) (*thread.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshots := s.checkpoints[threadID]
	if len(snapshots) == 0 {
		return nil, nil
	}
	state := snapshots[len(snapshots)-1]
	return &state, nil
}

// CreateRun implements checkpoint.Store.
func (s *Store) CreateRun(ctx context.Context, run thread.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := run
	s.runs[run.RunID] = &stored
	s.runOrder[run.ThreadID] = append(s.runOrder[run.ThreadID], run.RunID)
	return nil
}

// UpdateRunStatus implements checkpoint.Store.
func (s *Store) UpdateRunStatus(ctx context.Context, runID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, exists := s.runs[runID]
	if !exists {
		return checkpoint.ErrRunNotFound
	}
	run.Status = status
	run.UpdatedAt = time.Now().UTC()
	return nil
}

// ListRuns implements checkpoint.Store.
func (s *Store) ListRuns(ctx context.Context, threadID string) ([]thread.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.runOrder[threadID]
	runs := make([]thread.Run, 0, len(ids))
	for _, id := range ids {
		runs = append(runs, *s.runs[id])
	}
	return runs, nil
}

// Close implements checkpoint.Store.
func (s *Store) Close() error { return nil }
