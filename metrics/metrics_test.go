package metrics

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"
)

// TestMain asserts that no test in this package leaves a goroutine running
// past its own completion, since this package owns the project's only
// long-lived supervised goroutines (the listener and its shutdown watcher).
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestServe_NilReceiverBlocksUntilCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	var s *Server
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}

func TestServe_ShutsDownListenerOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := New("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	// Give the listener goroutine a moment to call ListenAndServe before
	// tearing it down, so the shutdown race is exercised rather than
	// cancelling before the server ever starts.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not shut down after context cancellation")
	}
}
