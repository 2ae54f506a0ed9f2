package rsgrpc_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"shk.dev/rs/rsgrpc"
)

func TestQueueDispatchesPostedOperation(t *testing.T) {
	queue := rsgrpc.NewQueue()
	var gotSuccess *bool
	tag := queue.Register(func(success bool) { gotSuccess = &success })
	if err := queue.Go(func() (uint64, bool) { return tag, true }); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := queue.ProcessOne(ctx)
	if err != nil || result != rsgrpc.GotEvent {
		t.Fatalf("expected one event, got %v err=%v", result, err)
	}
	if gotSuccess == nil || !*gotSuccess {
		t.Fatalf("expected callback with success=true")
	}
}

func TestQueueProcessOneTimesOut(t *testing.T) {
	queue := rsgrpc.NewQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	result, err := queue.ProcessOne(ctx)
	if result != rsgrpc.Timeout || err == nil {
		t.Fatalf("expected timeout, got %v err=%v", result, err)
	}
}

func TestQueueShutdownDrainsInFlightOperations(t *testing.T) {
	queue := rsgrpc.NewQueue()
	fired := false
	tag := queue.Register(func(bool) { fired = true })
	release := make(chan struct{})
	if err := queue.Go(func() (uint64, bool) {
		<-release
		return tag, true
	}); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	queue.Shutdown()
	close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	//1.- The in-flight operation still delivers its final event...
	result, err := queue.ProcessOne(ctx)
	if err != nil || result != rsgrpc.GotEvent {
		t.Fatalf("expected the drained event, got %v err=%v", result, err)
	}
	if !fired {
		t.Fatalf("expected the tag callback to run")
	}
	//2.- ...and the next drive observes shutdown.
	result, err = queue.ProcessOne(ctx)
	if err != nil || result != rsgrpc.Shutdown {
		t.Fatalf("expected shutdown, got %v err=%v", result, err)
	}
}

func TestQueueRejectsPostsAfterShutdown(t *testing.T) {
	queue := rsgrpc.NewQueue()
	queue.Shutdown()
	err := queue.Go(func() (uint64, bool) { return 0, true })
	if !errors.Is(err, rsgrpc.ErrQueueShutDown) {
		t.Fatalf("expected ErrQueueShutDown, got %v", err)
	}
}

func TestProcessAllReturnsOnShutdown(t *testing.T) {
	queue := rsgrpc.NewQueue()
	tag := queue.Register(func(bool) {})
	if err := queue.Go(func() (uint64, bool) { return tag, true }); err != nil {
		t.Fatalf("post failed: %v", err)
	}
	queue.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rsgrpc.Run(ctx, queue); err != nil {
		t.Fatalf("run failed: %v", err)
	}
}
