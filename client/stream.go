//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/threadstream/threadstream-go/log"
	"github.com/threadstream/threadstream-go/sse"
)

// RunStream is the lazy, pull-driven sequence of chunks from a joined run.
// Nothing is read from the transport until Next is called, and each call
// reads at most as much as is needed to surface one more chunk. The stream
// ends when the transport closes; there is no end sentinel.
//
// The underlying response body is released exactly once, on whichever comes
// first of natural end, a mid-stream read error, or Close. Consumers that
// may abandon a stream early must call Close.
//
// A RunStream is single-pass and not safe for concurrent use.
type RunStream struct {
	body    io.ReadCloser
	dec     *sse.Decoder
	readBuf []byte

	done      bool
	closeOnce sync.Once
	closeErr  error
}

func newRunStream(body io.ReadCloser) *RunStream {
	return &RunStream{
		body:    body,
		dec:     sse.NewDecoder(),
		readBuf: make([]byte, 4096),
	}
}

// Next returns the next chunk in transport arrival order. It returns io.EOF
// when the stream has ended, and keeps returning io.EOF thereafter. Frames
// whose payload fails to parse are dropped without surfacing an error.
func (s *RunStream) Next() (sse.StreamChunk, error) {
	for {
		for {
			frame, ok := s.dec.Next()
			if !ok {
				break
			}
			if chunk, ok := sse.ParseFrame(frame); ok {
				return chunk, nil
			}
		}
		if s.done {
			return sse.StreamChunk{}, io.EOF
		}
		n, err := s.body.Read(s.readBuf)
		if n > 0 {
			s.dec.Feed(s.readBuf[:n])
		}
		if err != nil {
			s.done = true
			_ = s.Close()
			if !errors.Is(err, io.EOF) {
				return sse.StreamChunk{}, fmt.Errorf("read run stream: %w", err)
			}
		}
	}
}

// Close releases the underlying transport reader. It is idempotent and safe
// to defer alongside a full drain.
func (s *RunStream) Close() error {
	s.closeOnce.Do(func() {
		s.done = true
		s.closeErr = s.body.Close()
	})
	return s.closeErr
}

// Chunks adapts the stream to a channel, draining it on a goroutine. The
// channel closes when the stream ends, a read fails, or ctx is cancelled;
// the stream is closed on every one of those paths. After calling Chunks
// the stream must not be used directly.
func (s *RunStream) Chunks(ctx context.Context) <-chan sse.StreamChunk {
	ch := make(chan sse.StreamChunk)
	go func() {
		defer close(ch)
		defer s.Close()
		for {
			chunk, err := s.Next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					log.Errorf("run stream: %v", err)
				}
				return
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
