//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/threadstream/threadstream-go/thread"
)

const instrumentationName = "github.com/threadstream/threadstream-go/client"

// Option configures the HTTP client.
type Option func(*httpClient)

// WithHTTPClient replaces the underlying *http.Client. The provided client
// must not enforce an overall request timeout, or long-lived run streams
// will be cut short.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.hc = hc }
}

// WithHeader adds a header to every outbound request, e.g. an
// Authorization header.
func WithHeader(key, value string) Option {
	return func(c *httpClient) { c.header.Add(key, value) }
}

// New creates a Client talking to the backend at baseURL. A trailing slash
// on baseURL is normalized away.
func New(baseURL string, opt ...Option) Client {
	c := &httpClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		hc:      &http.Client{},
		header:  make(http.Header),
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, o := range opt {
		o(c)
	}
	return c
}

// httpClient implements Client over the backend HTTP surface.
type httpClient struct {
	baseURL string
	hc      *http.Client
	header  http.Header
	tracer  trace.Tracer
}

// Threads implements Client.
func (c *httpClient) Threads() ThreadService { return threadService{c} }

// Runs implements Client.
func (c *httpClient) Runs() RunService { return runService{c} }

type threadService struct{ c *httpClient }

// GetHistory implements ThreadService.
func (s threadService) GetHistory(ctx context.Context, threadID string, opts *HistoryOptions) ([]thread.State, error) {
	limit := DefaultHistoryLimit
	if opts != nil && opts.Limit > 0 {
		limit = opts.Limit
	}
	ctx, span := s.c.tracer.Start(ctx, "threads.get_history",
		trace.WithAttributes(attribute.String("thread.id", threadID)))
	defer span.End()

	u := fmt.Sprintf("%s/threads/%s/history?limit=%d",
		s.c.baseURL, url.PathEscape(threadID), limit)
	var states []thread.State
	if err := s.c.getJSON(ctx, u, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// GetState implements ThreadService. A 404 is a recognized, expected
// outcome: new threads have no recorded checkpoints yet, so it maps to the
// canonical empty state rather than an error.
func (s threadService) GetState(ctx context.Context, threadID string) (thread.State, error) {
	ctx, span := s.c.tracer.Start(ctx, "threads.get_state",
		trace.WithAttributes(attribute.String("thread.id", threadID)))
	defer span.End()

	u := fmt.Sprintf("%s/threads/%s/state", s.c.baseURL, url.PathEscape(threadID))
	resp, err := s.c.get(ctx, u)
	if err != nil {
		return thread.State{}, err
	}
	defer closeBody(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return thread.EmptyState(), nil
	}
	if !isSuccess(resp.StatusCode) {
		return thread.State{}, transportError(resp)
	}
	var state thread.State
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return thread.State{}, fmt.Errorf("decode thread state: %w", err)
	}
	return state, nil
}

type runService struct{ c *httpClient }

// List implements RunService.
func (s runService) List(ctx context.Context, threadID string) ([]thread.Run, error) {
	ctx, span := s.c.tracer.Start(ctx, "runs.list",
		trace.WithAttributes(attribute.String("thread.id", threadID)))
	defer span.End()

	u := fmt.Sprintf("%s/runs?thread_id=%s", s.c.baseURL, url.QueryEscape(threadID))
	var runs []thread.Run
	if err := s.c.getJSON(ctx, u, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// joinRequest is the body of a join request.
type joinRequest struct {
	StreamMode []string `json:"streamMode"`
}

// Join implements RunService.
func (s runService) Join(ctx context.Context, threadID, runID string, opts *JoinOptions) (*RunStream, error) {
	modes := thread.DefaultStreamModes
	if opts != nil && len(opts.StreamModes) > 0 {
		modes = opts.StreamModes
	}
	_, span := s.c.tracer.Start(ctx, "runs.join",
		trace.WithAttributes(
			attribute.String("thread.id", threadID),
			attribute.String("run.id", runID),
		))
	defer span.End()

	body, err := json.Marshal(joinRequest{StreamMode: modes})
	if err != nil {
		return nil, fmt.Errorf("encode join request: %w", err)
	}
	u := fmt.Sprintf("%s/runs/%s/join?thread_id=%s",
		s.c.baseURL, url.PathEscape(runID), url.QueryEscape(threadID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create join request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	s.c.applyHeader(req)

	resp, err := s.c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("join run stream: %w", err)
	}
	if !isSuccess(resp.StatusCode) {
		closeBody(resp.Body)
		return nil, transportError(resp)
	}
	if resp.Body == nil {
		// A successful response with no body is an empty stream, not an
		// error.
		return newRunStream(http.NoBody), nil
	}
	return newRunStream(resp.Body), nil
}

// get performs a GET with the configured headers.
func (c *httpClient) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.applyHeader(req)
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", u, err)
	}
	return resp, nil
}

// getJSON performs a GET and decodes a successful JSON response into out.
func (c *httpClient) getJSON(ctx context.Context, u string, out any) error {
	resp, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	defer closeBody(resp.Body)
	if !isSuccess(resp.StatusCode) {
		return transportError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *httpClient) applyHeader(req *http.Request) {
	for key, values := range c.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
}

// closeBody drains and closes a response body so the connection can be
// reused.
func closeBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
