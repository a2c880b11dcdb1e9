//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

package client

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadstream/threadstream-go/sse"
)

// countingBody wraps a reader and counts Close calls.
type countingBody struct {
	io.Reader
	closes int
}

func (b *countingBody) Close() error {
	b.closes++
	return nil
}

// errAfterBody yields its content and then fails with a non-EOF error.
type errAfterBody struct {
	io.Reader
	err    error
	closes int
}

func (b *errAfterBody) Read(p []byte) (int, error) {
	n, err := b.Reader.Read(p)
	if err == io.EOF {
		return n, b.err
	}
	return n, err
}

func (b *errAfterBody) Close() error {
	b.closes++
	return nil
}

const streamFixture = "event: values\ndata: {\"a\":1}\n\n" +
	"data: {\"b\":2}\n\n" +
	"event: custom\ndata: {\"c\":3}\n\n"

func TestRunStreamYieldsChunksInOrder(t *testing.T) {
	body := &countingBody{Reader: strings.NewReader(streamFixture)}
	stream := newRunStream(body)

	var chunks []sse.StreamChunk
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	require.Len(t, chunks, 3)
	assert.Equal(t, "values", chunks[0].Event)
	assert.Equal(t, "message", chunks[1].Event)
	assert.Equal(t, "custom", chunks[2].Event)
	assert.JSONEq(t, `{"c":3}`, string(chunks[2].Data))
}

func TestRunStreamMalformedFrameDropped(t *testing.T) {
	input := "data: {\"a\":1}\n\n" +
		"data: {not json\n\n" +
		"data: {\"b\":2}\n\n"
	stream := newRunStream(&countingBody{Reader: strings.NewReader(input)})

	var chunks []sse.StreamChunk
	for {
		chunk, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}
	require.Len(t, chunks, 2)
	assert.JSONEq(t, `{"a":1}`, string(chunks[0].Data))
	assert.JSONEq(t, `{"b":2}`, string(chunks[1].Data))
}

func TestRunStreamTrailingFragmentDiscarded(t *testing.T) {
	input := "data: {\"a\":1}\n\ndata: {\"b\":2}"
	stream := newRunStream(&countingBody{Reader: strings.NewReader(input)})

	chunk, err := stream.Next()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(chunk.Data))
	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRunStreamReleaseOnNaturalEnd(t *testing.T) {
	body := &countingBody{Reader: strings.NewReader(streamFixture)}
	stream := newRunStream(body)
	for {
		if _, err := stream.Next(); err != nil {
			break
		}
	}
	assert.Equal(t, 1, body.closes)

	// A deferred Close after a full drain must not double-release.
	require.NoError(t, stream.Close())
	assert.Equal(t, 1, body.closes)

	// Exhausted streams keep reporting EOF.
	_, err := stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRunStreamReleaseOnAbandonment(t *testing.T) {
	body := &countingBody{Reader: strings.NewReader(streamFixture)}
	stream := newRunStream(body)

	chunk, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "values", chunk.Event)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	assert.Equal(t, 1, body.closes)
}

func TestRunStreamReleaseOnReadError(t *testing.T) {
	body := &errAfterBody{
		Reader: strings.NewReader("data: {\"a\":1}\n\n"),
		err:    errors.New("connection reset"),
	}
	stream := newRunStream(body)

	_, err := stream.Next()
	require.NoError(t, err)
	_, err = stream.Next()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, body.closes)

	stream.Close()
	assert.Equal(t, 1, body.closes)
}

func TestRunStreamChunksChannel(t *testing.T) {
	body := &countingBody{Reader: strings.NewReader(streamFixture)}
	stream := newRunStream(body)

	var events []string
	for chunk := range stream.Chunks(context.Background()) {
		events = append(events, chunk.Event)
	}
	assert.Equal(t, []string{"values", "message", "custom"}, events)
	assert.Equal(t, 1, body.closes)
}

func TestRunStreamChunksCancel(t *testing.T) {
	body := &countingBody{Reader: strings.NewReader(streamFixture)}
	stream := newRunStream(body)

	ctx, cancel := context.WithCancel(context.Background())
	ch := stream.Chunks(ctx)
	<-ch
	cancel()
	for range ch {
	}
	assert.Equal(t, 1, body.closes)
}
