//go:build windows

package procgroup

import (
	"os/exec"
	"syscall"
)

// Set is a no-op on platforms without POSIX process groups.
func Set(cmd *exec.Cmd) {}

// Signal falls back to signaling the process directly.
func Signal(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}
