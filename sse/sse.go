//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

// Package sse implements incremental decoding of server-sent event streams
// into discrete frames and typed stream chunks.
package sse

import (
	"bytes"
	"strings"
)

const (
	eventPrefix = "event: "
	dataPrefix  = "data: "
)

// Frame is one complete named data frame from an event stream. Event may be
// empty when the transport did not name the event.
type Frame struct {
	Event string
	Data  string
}

// Decoder reassembles frames from an event stream delivered in arbitrary
// chunks. Chunk boundaries carry no meaning: a chunk may end mid-line or
// mid-rune, and the decoder buffers bytes until a full line is available.
//
// A Decoder is owned by a single stream and is not safe for concurrent use.
type Decoder struct {
	buf    []byte
	event  string
	data   string
	frames []Frame
}

// NewDecoder returns a decoder with empty accumulator state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a raw chunk and processes every complete line it finishes.
// The trailing partial line, if any, stays buffered for the next chunk.
// Splitting only ever happens at newline bytes, so multi-byte runes broken
// across chunk boundaries reassemble without a separate text decoder.
func (d *Decoder) Feed(chunk []byte) {
	d.buf = append(d.buf, chunk...)
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return
		}
		line := string(d.buf[:i])
		d.buf = d.buf[i+1:]
		d.processLine(strings.TrimSuffix(line, "\r"))
	}
}

// processLine applies one line to the accumulator state. A blank line
// completes a frame only when a data line was seen; anything that is not an
// event line, a data line, or a blank line is ignored (comments, unknown
// fields).
func (d *Decoder) processLine(line string) {
	switch {
	case line == "":
		if d.data != "" {
			d.frames = append(d.frames, Frame{Event: d.event, Data: d.data})
			d.event = ""
			d.data = ""
		}
	case strings.HasPrefix(line, eventPrefix):
		d.event = strings.TrimSpace(strings.TrimPrefix(line, eventPrefix))
	case strings.HasPrefix(line, dataPrefix):
		d.data = strings.TrimPrefix(line, dataPrefix)
	}
}

// Next pops the oldest completed frame. It returns false when no complete
// frame is buffered; feeding more bytes may produce more frames. Content
// still buffered when the stream ends is an unterminated frame and is never
// surfaced.
func (d *Decoder) Next() (Frame, bool) {
	if len(d.frames) == 0 {
		return Frame{}, false
	}
	f := d.frames[0]
	d.frames = d.frames[1:]
	return f, true
}
