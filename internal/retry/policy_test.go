package retry

import (
	"fmt"
	"testing"
	"time"

	"github.com/okrasov/textflow/internal/domain"
)

func testPolicy() Policy {
	return Policy{
		MaxAttempts:       3,
		InitialBackoff:    time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        10 * time.Second,
	}
}

func TestDecide_RetryOnTransient(t *testing.T) {
	p := testPolicy()
	err := fmt.Errorf("%w: connection refused", domain.ErrTransient)

	d := Decide(p, 1, err)

	if !d.Retry {
		t.Fatal("transient error on attempt 1 should be retried")
	}
	if d.Delay != time.Second {
		t.Errorf("expected 1s delay, got %v", d.Delay)
	}
}

func TestDecide_GiveUpOnFatal(t *testing.T) {
	p := testPolicy()
	err := fmt.Errorf("%w: input too long", domain.ErrValidation)

	d := Decide(p, 1, err)

	if d.Retry {
		t.Error("fatal error must not be retried, even with attempts remaining")
	}
}

func TestDecide_GiveUpAtMaxAttempts(t *testing.T) {
	p := testPolicy()
	err := fmt.Errorf("%w: timeout", domain.ErrTransient)

	if d := Decide(p, 2, err); !d.Retry {
		t.Error("attempt 2 of 3 should be retried")
	}
	if d := Decide(p, 3, err); d.Retry {
		t.Error("attempt 3 of 3 must not be retried")
	}
	if d := Decide(p, 4, err); d.Retry {
		t.Error("attempt beyond max must not be retried")
	}
}

func TestBackoff_ExponentialGrowth(t *testing.T) {
	p := testPolicy()

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // 16s capped at MaxBackoff
		{6, 10 * time.Second},
	}

	for _, c := range cases {
		got := Backoff(p, c.attempt)
		if got != c.want {
			t.Errorf("attempt %d: expected %v, got %v", c.attempt, c.want, got)
		}
	}
}

func TestBackoff_MonotonicallyNonDecreasing(t *testing.T) {
	p := Policy{
		MaxAttempts:       10,
		InitialBackoff:    250 * time.Millisecond,
		BackoffMultiplier: 1.7,
		MaxBackoff:        5 * time.Second,
	}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 10; attempt++ {
		delay := Backoff(p, attempt)
		if delay < prev {
			t.Fatalf("delay decreased at attempt %d: %v < %v", attempt, delay, prev)
		}
		if delay > p.MaxBackoff {
			t.Fatalf("delay exceeds cap at attempt %d: %v", attempt, delay)
		}
		prev = delay
	}
}

func TestBackoff_Defaults(t *testing.T) {
	// Пустая политика не должна давать нулевую или отрицательную задержку
	var p Policy

	delay := Backoff(p, 1)
	if delay <= 0 {
		t.Errorf("expected positive delay for zero policy, got %v", delay)
	}
}

func TestDecide_DeterministicNoSideEffects(t *testing.T) {
	p := testPolicy()
	err := fmt.Errorf("%w: HTTP 503", domain.ErrTransient)

	first := Decide(p, 2, err)
	for i := 0; i < 5; i++ {
		if got := Decide(p, 2, err); got != first {
			t.Fatalf("decision changed between calls: %+v vs %+v", got, first)
		}
	}
}
