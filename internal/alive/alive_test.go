package alive

import (
	"os"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

func TestAliveSelf(t *testing.T) {
	if !Alive(os.Getpid()) {
		t.Fatalf("own pid %d reported dead", os.Getpid())
	}
}

func TestAliveInvalidPIDs(t *testing.T) {
	for _, pid := range []int{0, -1, -42} {
		if Alive(pid) {
			t.Fatalf("pid %d reported alive", pid)
		}
	}
}

func TestAliveMissingPID(t *testing.T) {
	// PIDs near the default pid_max are very unlikely to be in use.
	if Alive(1 << 22) {
		t.Fatalf("bogus pid reported alive")
	}
}

func TestAliveExitedChild(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires sh on Unix-like systems")
	}
	cmd := exec.Command("sh", "-c", "exit 0")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	// Reaped child must not be reported alive even if the PID lingers briefly.
	deadline := time.Now().Add(time.Second)
	for Alive(pid) {
		if time.Now().After(deadline) {
			t.Fatalf("exited child pid %d still reported alive", pid)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestProbeFunc(t *testing.T) {
	p := ProbeFunc(func(pid int) bool { return pid == 7 })
	if !p.Alive(7) || p.Alive(8) {
		t.Fatalf("ProbeFunc adapter broken")
	}
}
