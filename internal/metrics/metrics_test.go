package metrics

import (
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(reg); err != nil {
		t.Fatalf("second Register: %v", err)
	}
}

func TestCountersDoNotPanic(t *testing.T) {
	IncStart("t")
	IncStop("t")
	IncRestart("t")
	IncExhausted("t")
	SetRunning(2)
}

func TestSampleSelf(t *testing.T) {
	u, err := Sample(os.Getpid())
	if err != nil {
		t.Fatalf("Sample self: %v", err)
	}
	if u.PID != int32(os.Getpid()) {
		t.Fatalf("pid mismatch: %d", u.PID)
	}
	if u.MemoryMB <= 0 {
		t.Fatalf("expected nonzero RSS, got %v", u.MemoryMB)
	}
}

func TestSampleInvalidPID(t *testing.T) {
	if _, err := Sample(0); err == nil {
		t.Fatalf("expected error for pid 0")
	}
	if _, err := Sample(1 << 22); err == nil {
		t.Fatalf("expected error for bogus pid")
	}
}
