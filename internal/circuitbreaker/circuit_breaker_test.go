package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream failed")

func newTestBreaker(maxFailures int, timeout time.Duration) *CircuitBreaker {
	return New(Config{
		Name:             "test",
		MaxFailures:      maxFailures,
		FailureThreshold: 0.5,
		Timeout:          timeout,
		HalfOpenMaxCalls: 2,
	})
}

func fail(cb *CircuitBreaker) error {
	return cb.Execute(context.Background(), func(ctx context.Context) error {
		return errUpstream
	})
}

func succeed(cb *CircuitBreaker) error {
	return cb.Execute(context.Background(), func(ctx context.Context) error {
		return nil
	})
}

func TestBreaker_StartsClosed(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)
	if got := cb.GetState(); got != StateClosed {
		t.Errorf("state = %v, want closed", got)
	}
	if err := succeed(cb); err != nil {
		t.Errorf("Execute() error = %v", err)
	}
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := fail(cb); !errors.Is(err, errUpstream) {
			t.Fatalf("Execute() error = %v, want upstream error", err)
		}
	}

	if got := cb.GetState(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	// Open circuit rejects without calling the function
	called := false
	err := cb.Execute(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Execute() error = %v, want ErrCircuitOpen", err)
	}
	if called {
		t.Error("function was called while circuit open")
	}
}

func TestBreaker_SuccessResetsConsecutiveFailures(t *testing.T) {
	cb := newTestBreaker(3, time.Minute)

	_ = fail(cb)
	_ = fail(cb)
	_ = succeed(cb)
	_ = fail(cb)
	_ = fail(cb)

	if got := cb.GetState(); got != StateClosed {
		t.Errorf("state = %v, want closed", got)
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	cb := newTestBreaker(2, 20*time.Millisecond)

	_ = fail(cb)
	_ = fail(cb)
	if got := cb.GetState(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	time.Sleep(30 * time.Millisecond)

	// Probe calls succeed, closing the circuit again
	if err := succeed(cb); err != nil {
		t.Fatalf("probe Execute() error = %v", err)
	}
	if err := succeed(cb); err != nil {
		t.Fatalf("probe Execute() error = %v", err)
	}

	if got := cb.GetState(); got != StateClosed {
		t.Errorf("state = %v, want closed after successful probes", got)
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := newTestBreaker(2, 20*time.Millisecond)

	_ = fail(cb)
	_ = fail(cb)
	time.Sleep(30 * time.Millisecond)

	_ = fail(cb)

	if got := cb.GetState(); got != StateOpen {
		t.Errorf("state = %v, want open after failed probe", got)
	}
}

func TestBreaker_Reset(t *testing.T) {
	cb := newTestBreaker(1, time.Minute)

	_ = fail(cb)
	if got := cb.GetState(); got != StateOpen {
		t.Fatalf("state = %v, want open", got)
	}

	cb.Reset()
	if got := cb.GetState(); got != StateClosed {
		t.Errorf("state = %v, want closed after reset", got)
	}
	if err := succeed(cb); err != nil {
		t.Errorf("Execute() after reset error = %v", err)
	}
}

func TestBreaker_Stats(t *testing.T) {
	cb := newTestBreaker(10, time.Minute)

	_ = succeed(cb)
	_ = fail(cb)

	stats := cb.GetStats()
	if stats.TotalCalls != 2 {
		t.Errorf("TotalCalls = %d, want 2", stats.TotalCalls)
	}
	if stats.Failures != 1 {
		t.Errorf("Failures = %d, want 1", stats.Failures)
	}
	if stats.State != "closed" {
		t.Errorf("State = %q, want closed", stats.State)
	}
}
