//
// Copyright (C) 2026 ThreadStream authors. All rights reserved.
//
// threadstream-go is licensed under the Apache License Version 2.0.
//

// Command threadstream-tail inspects a thread on a threadstream backend:
// it prints the current state and run list, and tails the event stream of
// the newest unfinished run, which is exactly what a UI reconnecting after
// a refresh does.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/threadstream/threadstream-go/client"
	"github.com/threadstream/threadstream-go/log"
	"github.com/threadstream/threadstream-go/thread"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8123", "backend base URL")
	threadID := flag.String("thread", "", "thread id to inspect")
	flag.Parse()
	if *threadID == "" {
		fmt.Fprintln(os.Stderr, "usage: threadstream-tail -thread <id> [-server <url>]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*serverURL)
	if err := run(ctx, c, *threadID); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, c client.Client, threadID string) error {
	state, err := c.Threads().GetState(ctx, threadID)
	if err != nil {
		return fmt.Errorf("fetch state: %w", err)
	}
	fmt.Printf("state: %s\n", state.Values["messages"])

	runs, err := c.Runs().List(ctx, threadID)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	var active *thread.Run
	for i, r := range runs {
		fmt.Printf("run %s  %s  %s\n", r.RunID, r.Status, r.CreatedAt.Format("15:04:05"))
		if r.Status == thread.RunStatusPending || r.Status == thread.RunStatusRunning {
			active = &runs[i]
		}
	}
	if active == nil {
		fmt.Println("no run in flight")
		return nil
	}

	fmt.Printf("tailing run %s\n", active.RunID)
	stream, err := c.Runs().Join(ctx, threadID, active.RunID, nil)
	if err != nil {
		return fmt.Errorf("join run: %w", err)
	}
	defer stream.Close()
	for chunk := range stream.Chunks(ctx) {
		fmt.Printf("%s: %s\n", chunk.Event, chunk.Data)
	}
	return nil
}
