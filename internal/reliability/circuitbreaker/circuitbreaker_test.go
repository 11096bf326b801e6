package circuitbreaker

import (
	"testing"
	"time"
)

func TestOpensAfterThreshold(t *testing.T) {
	cb := New(3, 1, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.GetState() != StateClosed {
		t.Fatalf("opened before the threshold")
	}

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatalf("did not open at the threshold")
	}
	if cb.Allow() {
		t.Fatalf("open circuit allowed a request")
	}
}

func TestSuccessResetsFailureCount(t *testing.T) {
	cb := New(2, 1, time.Minute)

	cb.RecordFailure()
	cb.RecordSuccess()
	cb.RecordFailure()
	if cb.GetState() != StateClosed {
		t.Fatalf("non-consecutive failures tripped the circuit")
	}
}

func TestHalfOpenProbeAndRecovery(t *testing.T) {
	cb := New(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	if cb.Allow() {
		t.Fatalf("open circuit allowed a request before cooldown")
	}

	time.Sleep(20 * time.Millisecond)
	if !cb.Allow() {
		t.Fatalf("cooldown elapsed but probe was refused")
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open", cb.GetState())
	}

	cb.RecordSuccess()
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("closed before enough probes succeeded")
	}
	cb.RecordSuccess()
	if cb.GetState() != StateClosed {
		t.Fatalf("did not close after successful probes")
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	cb := New(1, 2, 10*time.Millisecond)

	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	if !cb.Allow() {
		t.Fatalf("probe refused after cooldown")
	}

	cb.RecordFailure()
	if cb.GetState() != StateOpen {
		t.Fatalf("half-open failure did not reopen the circuit")
	}
}

func TestOnStateChangeCallback(t *testing.T) {
	cb := New(1, 1, time.Minute)

	var transitions []string
	cb.OnStateChange(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	cb.RecordFailure()
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Fatalf("transitions = %v", transitions)
	}
}
