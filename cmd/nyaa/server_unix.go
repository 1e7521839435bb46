//go:build !windows

package main

import (
	"os/exec"
	"syscall"
)

// setSysProcAttr detaches the server from the terminal's process group
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}
}
