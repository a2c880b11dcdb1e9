//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

// Package history exposes the thread-history backend over HTTP: checkpoint
// history and current state per thread, thread ownership, and run records
// with a joinable server-sent event stream per run.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/cors"

	"github.com/threadstream/threadstream-go/checkpoint"
	"github.com/threadstream/threadstream-go/checkpoint/inmemory"
	"github.com/threadstream/threadstream-go/log"
	"github.com/threadstream/threadstream-go/sse"
	"github.com/threadstream/threadstream-go/thread"
)

const defaultPoolSize = 64

// Runner produces the events of one run. It is invoked on a worker pool
// with the run already recorded as running, emits chunks through the
// RunContext, and its returned error decides the final run status.
type Runner func(ctx context.Context, rc *RunContext) error

// Server implements the backend HTTP surface consumed by the client
// package.
type Server struct {
	store   checkpoint.Store
	runner  Runner
	router  *mux.Router
	handler http.Handler
	broker  *broker
	pool    *ants.Pool
}

// Option configures the Server.
type Option func(*Server)

// WithStore selects the checkpoint store backing the server. Defaults to
// the in-memory store.
func WithStore(store checkpoint.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithRunner registers the function executed for each started run. Without
// one, starting runs is rejected; the read-side endpoints still work.
func WithRunner(r Runner) Option {
	return func(s *Server) { s.runner = r }
}

// New creates a Server with a worker pool for run execution.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		store:  inmemory.New(),
		router: mux.NewRouter(),
		broker: newBroker(),
	}
	for _, opt := range opts {
		opt(s)
	}
	pool, err := ants.NewPool(defaultPoolSize)
	if err != nil {
		return nil, fmt.Errorf("create run pool: %w", err)
	}
	s.pool = pool

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	s.registerRoutes()
	s.handler = c.Handler(s.router)
	return s, nil
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler { return s.handler }

// Close releases the run worker pool.
func (s *Server) Close() error {
	s.pool.Release()
	return nil
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/threads", s.handleListThreads).Methods(http.MethodGet)
	s.router.HandleFunc("/threads", s.handleCreateThread).Methods(http.MethodPost)
	s.router.HandleFunc("/threads/{threadId}/history", s.handleHistory).Methods(http.MethodGet)
	s.router.HandleFunc("/threads/{threadId}/state", s.handleState).Methods(http.MethodGet)
	s.router.HandleFunc("/threads/{threadId}/runs", s.handleStartRun).Methods(http.MethodPost)
	s.router.HandleFunc("/runs", s.handleListRuns).Methods(http.MethodGet)
	s.router.HandleFunc("/runs/{runId}/join", s.handleJoinRun).Methods(http.MethodPost)
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.ListThreads(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, infos)
}

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ThreadID string `json:"thread_id"`
		UserID   string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}
	if err := s.store.CreateThread(r.Context(), req.ThreadID, req.UserID); err != nil {
		if errors.Is(err, checkpoint.ErrThreadExists) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"thread_id": req.ThreadID}); err != nil {
		log.Errorf("write response: %v", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadId"]
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	states, err := s.store.History(r.Context(), threadID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, states)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadId"]
	state, err := s.store.Latest(r.Context(), threadID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if state == nil {
		// No recorded checkpoints. The client translates this status to
		// its canonical empty state.
		http.Error(w, "thread has no checkpoints", http.StatusNotFound)
		return
	}
	s.writeJSON(w, state)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	threadID := r.URL.Query().Get("thread_id")
	if threadID == "" {
		http.Error(w, "thread_id is required", http.StatusBadRequest)
		return
	}
	runs, err := s.store.ListRuns(r.Context(), threadID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, runs)
}

func (s *Server) handleStartRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		http.Error(w, "no runner configured", http.StatusNotImplemented)
		return
	}
	threadID := mux.Vars(r)["threadId"]
	var req struct {
		Input json.RawMessage `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	run := thread.Run{
		RunID:     uuid.NewString(),
		ThreadID:  threadID,
		Status:    thread.RunStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateRun(r.Context(), run); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rc := &RunContext{
		ThreadID: threadID,
		RunID:    run.RunID,
		Input:    req.Input,
		store:    s.store,
		log:      s.broker.open(run.RunID),
	}
	if err := s.pool.Submit(func() { s.execute(rc) }); err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(run); err != nil {
		log.Errorf("write response: %v", err)
	}
}

// execute drives one run to completion on the worker pool.
func (s *Server) execute(rc *RunContext) {
	ctx := context.Background()
	defer rc.log.close()

	if err := s.store.UpdateRunStatus(ctx, rc.RunID, thread.RunStatusRunning); err != nil {
		log.Errorf("run %s: mark running: %v", rc.RunID, err)
	}
	status := thread.RunStatusSuccess
	if err := s.runner(ctx, rc); err != nil {
		log.Errorf("run %s: %v", rc.RunID, err)
		status = thread.RunStatusError
	}
	if err := s.store.UpdateRunStatus(ctx, rc.RunID, status); err != nil {
		log.Errorf("run %s: mark %s: %v", rc.RunID, status, err)
	}
}

func (s *Server) handleJoinRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["runId"]
	modes := thread.DefaultStreamModes
	if r.Body != nil {
		var req struct {
			StreamMode []string `json:"streamMode"`
		}
		// A missing or malformed body falls back to the default modes.
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil && len(req.StreamMode) > 0 {
			modes = req.StreamMode
		}
	}
	runLog := s.broker.lookup(runID)
	if runLog == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Send headers before the first chunk so joiners of an idle run are
	// connected, not blocked.
	flusher.Flush()

	wanted := make(map[string]struct{}, len(modes))
	for _, m := range modes {
		wanted[m] = struct{}{}
	}
	for i := 0; ; i++ {
		chunk, ok := runLog.next(r.Context(), i)
		if !ok {
			return
		}
		if _, deliver := wanted[chunkMode(chunk)]; !deliver {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", chunk.Event, chunk.Data); err != nil {
			return
		}
		flusher.Flush()
	}
}

// chunkMode maps a chunk to the stream mode it belongs to. Event names that
// are themselves mode names select that mode; everything else is a raw
// event.
func chunkMode(chunk sse.StreamChunk) string {
	switch chunk.Event {
	case thread.StreamModeValues, thread.StreamModeUpdates, thread.StreamModeCustom:
		return chunk.Event
	default:
		return thread.StreamModeEvents
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("write response: %v", err)
	}
}
