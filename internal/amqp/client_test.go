package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{15, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"closed connection", errors.New("connection closed"), true},
		{"EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"closed network connection", errors.New("use of closed network connection"), true},
		{"other error", errors.New("some other error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestClient_CircuitBreaker(t *testing.T) {
	client := &Client{exchangeName: "bilancio", routingKey: "ledger.events"}

	if client.isCircuitOpen() {
		t.Fatal("circuit breaker should be closed initially")
	}

	for i := 0; i < maxFailures; i++ {
		client.recordFailure()
	}
	if !client.isCircuitOpen() {
		t.Fatal("circuit breaker should be open after max failures")
	}

	client.lastFailure.Store(time.Now().Add(-openTimeout - time.Second).UnixNano())
	if client.isCircuitOpen() {
		t.Fatal("circuit should let a trial call through after the timeout")
	}
	if atomic.LoadInt32(&client.state) != StateHalfOpen {
		t.Fatal("state should be half-open after the timeout")
	}

	client.recordFailure()
	if atomic.LoadInt32(&client.state) != StateOpen {
		t.Fatal("a failed trial call should reopen the circuit")
	}

	client.recordSuccess()
	if client.isCircuitOpen() || atomic.LoadInt64(&client.failureCount) != 0 {
		t.Fatal("success should close the circuit and reset failures")
	}
}

func TestClient_PublishGuards(t *testing.T) {
	client := &Client{exchangeName: "bilancio", routingKey: "ledger.events"}
	ev := NewClearedEvent(time.Now())

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := client.Publish(ctx, ev); !errors.Is(err, context.Canceled) {
			t.Errorf("Publish() = %v, want context.Canceled", err)
		}
	})

	t.Run("open circuit", func(t *testing.T) {
		atomic.StoreInt32(&client.state, StateOpen)
		client.lastFailure.Store(time.Now().UnixNano())
		err := client.Publish(context.Background(), ev)
		if !errors.Is(err, ErrCircuitOpen) {
			t.Errorf("Publish() = %v, want ErrCircuitOpen", err)
		}
	})
}

func TestLedgerEvent_JSON(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ev := NewImportedEvent(3, "merge", at)

	b, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	if strings.Contains(string(b), `"id"`) {
		t.Errorf("empty id should be omitted: %s", b)
	}

	got, err := LedgerEventFromJSON(b)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}
	if got.Type != EventImported || got.Count != 3 || got.Policy != "merge" || !got.Timestamp.Equal(at) {
		t.Errorf("round trip mismatch: %+v", got)
	}

	if _, err := LedgerEventFromJSON([]byte(`{"count":"three"}`)); err == nil {
		t.Error("LedgerEventFromJSON() should fail on a mistyped field")
	}
}

func TestEventConstructors(t *testing.T) {
	now := time.Now()
	if e := NewCreatedEvent("a", now); e.Type != EventCreated || e.ID != "a" {
		t.Errorf("unexpected created event %+v", e)
	}
	if e := NewDeletedEvent("a", now); e.Type != EventDeleted || e.ID != "a" {
		t.Errorf("unexpected deleted event %+v", e)
	}
	if e := NewClearedEvent(now); e.Type != EventCleared || e.ID != "" {
		t.Errorf("unexpected cleared event %+v", e)
	}
}
