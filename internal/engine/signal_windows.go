//go:build windows

package engine

import "os"

func terminateGroup(pid int) error { return terminate(pid) }

func terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
