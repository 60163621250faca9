//go:build windows

package engine

import "os/exec"

func applySysProcAttr(_ *exec.Cmd) {}
