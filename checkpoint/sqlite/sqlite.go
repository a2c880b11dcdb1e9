//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

// Package sqlite provides SQLite-backed checkpoint storage, keeping thread
// history and run records durable across server restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/threadstream/threadstream-go/checkpoint"
	"github.com/threadstream/threadstream-go/thread"
)

const (
	createThreadsTable = "CREATE TABLE IF NOT EXISTS threads (" +
		"thread_id TEXT PRIMARY KEY, " +
		"user_id TEXT NOT NULL, " +
		"created_at INTEGER NOT NULL" +
		")"

	createCheckpointsTable = "CREATE TABLE IF NOT EXISTS checkpoints (" +
		"id INTEGER PRIMARY KEY AUTOINCREMENT, " +
		"thread_id TEXT NOT NULL, " +
		"ts INTEGER NOT NULL, " +
		"state_json BLOB NOT NULL" +
		")"

	createCheckpointsIndex = "CREATE INDEX IF NOT EXISTS idx_checkpoints_thread " +
		"ON checkpoints (thread_id, id)"

	createRunsTable = "CREATE TABLE IF NOT EXISTS runs (" +
		"run_id TEXT PRIMARY KEY, " +
		"thread_id TEXT NOT NULL, " +
		"status TEXT NOT NULL, " +
		"created_at INTEGER NOT NULL, " +
		"updated_at INTEGER NOT NULL" +
		")"

	insertThread = "INSERT INTO threads (thread_id, user_id, created_at) VALUES (?, ?, ?)"

	selectThreads = "SELECT thread_id, user_id, created_at FROM threads " +
		"WHERE (? = '' OR user_id = ?) ORDER BY created_at DESC, thread_id DESC"

	insertCheckpoint = "INSERT INTO checkpoints (thread_id, ts, state_json) VALUES (?, ?, ?)"

	selectHistory = "SELECT state_json FROM checkpoints WHERE thread_id = ? " +
		"ORDER BY id DESC LIMIT ?"

	selectLatest = "SELECT state_json FROM checkpoints WHERE thread_id = ? " +
		"ORDER BY id DESC LIMIT 1"

	insertRun = "INSERT INTO runs (run_id, thread_id, status, created_at, updated_at) " +
		"VALUES (?, ?, ?, ?, ?)"

	updateRunStatus = "UPDATE runs SET status = ?, updated_at = ? WHERE run_id = ?"

	selectRuns = "SELECT run_id, thread_id, status, created_at, updated_at " +
		"FROM runs WHERE thread_id = ? ORDER BY created_at ASC, run_id ASC"
)

// Store is a SQLite implementation of checkpoint.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and prepares the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	store, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing database handle and prepares the schema.
func New(db *sql.DB) (*Store, error) {
	for _, stmt := range []string{
		createThreadsTable,
		createCheckpointsTable,
		createCheckpointsIndex,
		createRunsTable,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("prepare schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// CreateThread implements checkpoint.Store.
func (s *Store) CreateThread(ctx context.Context, threadID, userID string) error {
	_, err := s.db.ExecContext(ctx, insertThread, threadID, userID, time.Now().UnixNano())
	if err != nil {
		// The primary key rejects duplicates; report the domain error.
		var exists int
		row := s.db.QueryRowContext(ctx,
			"SELECT COUNT(1) FROM threads WHERE thread_id = ?", threadID)
		if scanErr := row.Scan(&exists); scanErr == nil && exists > 0 {
			return checkpoint.ErrThreadExists
		}
		return fmt.Errorf("insert thread: %w", err)
	}
	return nil
}

// ListThreads implements checkpoint.Store.
func (s *Store) ListThreads(ctx context.Context, userID string) ([]thread.Info, error) {
	rows, err := s.db.QueryContext(ctx, selectThreads, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	infos := make([]thread.Info, 0)
	for rows.Next() {
		var info thread.Info
		var createdAt int64
		if err := rows.Scan(&info.ThreadID, &info.UserID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan thread: %w", err)
		}
		info.CreatedAt = time.Unix(0, createdAt).UTC()
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Put implements checkpoint.Store.
func (s *Store) Put(ctx context.Context, threadID string, state thread.State) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, insertCheckpoint,
		threadID, time.Now().UnixNano(), stateJSON); err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

// History implements checkpoint.Store.
func (s *Store) History(ctx context.Context, threadID string, limit int) ([]thread.State, error) {
	if limit <= 0 {
		limit = checkpoint.DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, selectHistory, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	states := make([]thread.State, 0, limit)
	for rows.Next() {
		var stateJSON []byte
		if err := rows.Scan(&stateJSON); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		var state thread.State
		if err := json.Unmarshal(stateJSON, &state); err != nil {
			return nil, fmt.Errorf("unmarshal state: %w", err)
		}
		states = append(states, state)
	}
	return states, rows.Err()
}

// Latest implements checkpoint.Store.
func (s *Store) Latest(ctx context.Context, threadID string) (*thread.State, error) {
	var stateJSON []byte
	err := s.db.QueryRowContext(ctx, selectLatest, threadID).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest checkpoint: %w", err)
	}
	var state thread.State
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}

// CreateRun implements checkpoint.Store.
func (s *Store) CreateRun(ctx context.Context, run thread.Run) error {
	if _, err := s.db.ExecContext(ctx, insertRun,
		run.RunID, run.ThreadID, run.Status,
		run.CreatedAt.UnixNano(), run.UpdatedAt.UnixNano()); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRunStatus implements checkpoint.Store.
func (s *Store) UpdateRunStatus(ctx context.Context, runID, status string) error {
	res, err := s.db.ExecContext(ctx, updateRunStatus, status, time.Now().UnixNano(), runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if affected == 0 {
		return checkpoint.ErrRunNotFound
	}
	return nil
}

// ListRuns implements checkpoint.Store.
func (s *Store) ListRuns(ctx context.Context, threadID string) ([]thread.Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns, threadID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]thread.Run, 0)
	for rows.Next() {
		var run thread.Run
		var createdAt, updatedAt int64
		if err := rows.Scan(&run.RunID, &run.ThreadID, &run.Status,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.CreatedAt = time.Unix(0, createdAt).UTC()
		run.UpdatedAt = time.Unix(0, updatedAt).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close implements checkpoint.Store.
func (s *Store) Close() error { return s.db.Close() }
