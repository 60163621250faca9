//go:build !windows

package engine

import "syscall"

// terminateGroup asks a handle-backed child's whole process group to exit.
func terminateGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// terminate signals a bare PID (detached child, no handle held).
func terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}
