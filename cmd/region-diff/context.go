package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// interruptibleContext returns a context canceled on SIGINT or SIGTERM, so a
// long-running diff/patch/revert/squash over a large region file can be
// interrupted without leaving a partial output file (ioutilx's atomic
// write-then-rename ensures that regardless).
func interruptibleContext() (context.Context, context.CancelFunc) {
	ctx, canc := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		signal.Stop(sig)
		canc()
	}()
	return ctx, canc
}
