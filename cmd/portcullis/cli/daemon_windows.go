//go:build windows

package cli

import (
	"errors"
	"os"
	"syscall"
)

// isProcessRunning checks whether a process with the given PID is alive.
// Windows cannot deliver signal 0, but the runtime reports ErrProcessDone
// for a finished process before attempting delivery.
func isProcessRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || !errors.Is(err, os.ErrProcessDone)
}

// stopProcess kills the process on Windows (no graceful SIGTERM support).
func stopProcess(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Kill()
}
