// Package alive answers one question: does a process with the given PID
// currently exist? The probe is non-destructive (signal 0 on Unix) and never
// errors for a missing PID.
//
// Known limitation: the OS may recycle a PID between the time it was recorded
// and the time it is probed, in which case the probe reports a different,
// unrelated process as alive. Callers accept this window; the supervisor does
// not retain process identity beyond the PID across its own restarts.
package alive

// Prober reports whether a PID refers to a live process.
type Prober interface {
	Alive(pid int) bool
}

// ProbeFunc adapts a plain function to the Prober interface.
type ProbeFunc func(pid int) bool

func (f ProbeFunc) Alive(pid int) bool { return f(pid) }

// Default is the platform-native prober.
var Default Prober = ProbeFunc(probe)

// Alive probes pid with the default prober.
func Alive(pid int) bool { return Default.Alive(pid) }
