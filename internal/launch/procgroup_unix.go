//go:build !windows

package launch

import (
	"os"
	"os/exec"
	"syscall"
)

// configureProcessGroup places the child in its own process group so that
// terminate and kill signals reach the child's descendants as well.
func configureProcessGroup(executable *exec.Cmd) {
	executable.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcess sends SIGTERM to the child, addressing the whole process
// group (negative PID) when grouping was configured at spawn time.
func terminateProcess(process *os.Process, processGroupEnabled bool) error {
	if process == nil {
		return nil
	}
	if processGroupEnabled {
		return syscall.Kill(-process.Pid, syscall.SIGTERM)
	}
	return process.Signal(syscall.SIGTERM)
}

// killProcess sends SIGKILL to the child, addressing the whole process group
// when grouping was configured at spawn time.
func killProcess(process *os.Process, processGroupEnabled bool) error {
	if process == nil {
		return nil
	}
	if processGroupEnabled {
		return syscall.Kill(-process.Pid, syscall.SIGKILL)
	}
	return process.Kill()
}

// signalTerminationStatus reports whether the child was ended by a signal
// and, if so, which one.
func signalTerminationStatus(exitError *exec.ExitError) (bool, int) {
	waitStatus, statusAvailable := exitError.Sys().(syscall.WaitStatus)
	if !statusAvailable {
		return false, 0
	}
	if !waitStatus.Signaled() {
		return false, 0
	}
	return true, int(waitStatus.Signal())
}
