//go:build windows

package launch

import (
	"os"
	"os/exec"
)

// configureProcessGroup is a no-op: Windows has no Setpgid equivalent, so
// signals always address the single spawned process.
func configureProcessGroup(executable *exec.Cmd) {
}

// terminateProcess ends the child. Windows offers no catchable terminate
// signal for arbitrary processes, so the cooperative request degrades to a
// forced termination.
func terminateProcess(process *os.Process, processGroupEnabled bool) error {
	if process == nil {
		return nil
	}
	return process.Kill()
}

// killProcess forcibly ends the child.
func killProcess(process *os.Process, processGroupEnabled bool) error {
	if process == nil {
		return nil
	}
	return process.Kill()
}

// signalTerminationStatus always reports no signal: Windows wait statuses do
// not carry POSIX signal information.
func signalTerminationStatus(exitError *exec.ExitError) (bool, int) {
	return false, 0
}
