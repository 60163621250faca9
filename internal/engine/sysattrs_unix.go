//go:build !windows

package engine

import (
	"os/exec"
	"syscall"
)

// applySysProcAttr puts the child in its own process group so termination
// signals reach the whole tree and the child survives the supervisor.
func applySysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
