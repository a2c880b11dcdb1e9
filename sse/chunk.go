//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package sse

import "encoding/json"

// DefaultEvent is the event name assigned to frames the transport left
// unnamed.
const DefaultEvent = "message"

// StreamChunk is one typed event from a run stream. Data holds the frame
// payload verbatim; it is only ever populated with payloads that parsed as
// valid JSON.
type StreamChunk struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ParseFrame interprets a frame payload as JSON and produces a chunk.
// Frames whose payload is not valid JSON report ok=false and are dropped:
// one malformed frame must never terminate an otherwise healthy stream, so
// no error is surfaced.
func ParseFrame(f Frame) (StreamChunk, bool) {
	data := []byte(f.Data)
	if !json.Valid(data) {
		return StreamChunk{}, false
	}
	event := f.Event
	if event == "" {
		event = DefaultEvent
	}
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return StreamChunk{Event: event, Data: raw}, true
}
