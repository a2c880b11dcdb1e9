//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

// Command threadstream-server runs the thread-history backend with a demo
// echo agent: each run echoes its input messages as stream events and
// checkpoints the accumulated conversation.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/threadstream/threadstream-go/checkpoint"
	"github.com/threadstream/threadstream-go/checkpoint/inmemory"
	"github.com/threadstream/threadstream-go/checkpoint/sqlite"
	"github.com/threadstream/threadstream-go/log"
	"github.com/threadstream/threadstream-go/server/history"
	"github.com/threadstream/threadstream-go/thread"
)

type config struct {
	Addr       string        `env:"THREADSTREAM_ADDR" envDefault:":8123"`
	SQLitePath string        `env:"THREADSTREAM_SQLITE_PATH"`
	LogLevel   string        `env:"THREADSTREAM_LOG_LEVEL" envDefault:"info"`
	TokenDelay time.Duration `env:"THREADSTREAM_TOKEN_DELAY" envDefault:"50ms"`
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	var store checkpoint.Store
	if cfg.SQLitePath != "" {
		var err error
		store, err = sqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		log.Infof("using sqlite store at %s", cfg.SQLitePath)
	} else {
		store = inmemory.New()
		log.Infof("using in-memory store; history is lost on restart")
	}
	defer store.Close()

	srv, err := history.New(
		history.WithStore(store),
		history.WithRunner(echoAgent(store, cfg.TokenDelay)),
	)
	if err != nil {
		log.Fatalf("create server: %v", err)
	}
	defer srv.Close()

	log.Infof("listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, srv.Handler()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// chatMessage is the demo conversation message shape.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// echoAgent builds a Runner that streams an echoed reply token by token,
// then checkpoints the conversation including the reply.
func echoAgent(store checkpoint.Store, tokenDelay time.Duration) history.Runner {
	return func(ctx context.Context, rc *history.RunContext) error {
		var input struct {
			Messages []chatMessage `json:"messages"`
		}
		if err := json.Unmarshal(rc.Input, &input); err != nil {
			return fmt.Errorf("decode input: %w", err)
		}
		if len(input.Messages) == 0 {
			return fmt.Errorf("input has no messages")
		}

		// Resume the conversation from the latest checkpoint.
		var messages []chatMessage
		if state, err := store.Latest(ctx, rc.ThreadID); err != nil {
			return err
		} else if state != nil {
			if err := json.Unmarshal(state.Values["messages"], &messages); err != nil {
				return fmt.Errorf("decode checkpointed messages: %w", err)
			}
		}
		messages = append(messages, input.Messages...)

		reply := "You said: " + input.Messages[len(input.Messages)-1].Content
		for _, word := range strings.Fields(reply) {
			if err := rc.Emit("token", map[string]string{"text": word + " "}); err != nil {
				return err
			}
			time.Sleep(tokenDelay)
		}
		if err := rc.Emit(thread.StreamModeUpdates,
			map[string]any{"agent": map[string]string{"reply": reply}}); err != nil {
			return err
		}

		messages = append(messages, chatMessage{Role: "assistant", Content: reply})
		encoded, err := json.Marshal(messages)
		if err != nil {
			return err
		}
		return rc.SaveCheckpoint(ctx, thread.State{
			Values: map[string]json.RawMessage{"messages": encoded},
			Next:   []string{},
			Tasks:  []json.RawMessage{},
		})
	}
}
