package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

const (
	commandNameRequiredMessageConstant    = "command name must be provided"
	commandNotFoundMessageConstant        = "command not found"
	commandNotInvocableMessageConstant    = "command found but not invocable"
	spawnFailureTemplateConstant          = "unable to start %s: %w"
	fallbackWaitFailureExitCodeConstant   = 1
	signalTerminationExitCodeBaseConstant = 128
)

// ErrCommandNameRequired indicates the command name was empty.
var ErrCommandNameRequired = errors.New(commandNameRequiredMessageConstant)

// ErrCommandNotFound indicates the command could not be located on the search path.
var ErrCommandNotFound = errors.New(commandNotFoundMessageConstant)

// ErrCommandNotInvocable indicates the command exists but lacks execute permission.
var ErrCommandNotInvocable = errors.New(commandNotInvocableMessageConstant)

// CommandSpecification describes the child process to spawn.
type CommandSpecification struct {
	CommandName         string
	Arguments           []string
	ProcessGroupEnabled bool
	StandardInput       io.Reader
	StandardOutput      io.Writer
	StandardError       io.Writer
}

// ExitEvent reports the reaped child's exit code; a signal-terminated child
// is encoded as 128 plus the signal number.
type ExitEvent struct {
	ExitCode int
}

// ProcessHandle represents a spawned child whose lifecycle is owned by the
// supervision layer. ExitEvents delivers exactly one event once the
// operating system reaps the process; a non-blocking receive doubles as a
// poll, a blocking receive as a wait. After that event has been delivered no
// further signals may be sent through the handle.
type ProcessHandle interface {
	ExitEvents() <-chan ExitEvent
	SignalTerminate() error
	SignalKill() error
}

// Launcher creates child processes for supervision.
type Launcher interface {
	Start(executionContext context.Context, specification CommandSpecification) (ProcessHandle, error)
}

// OSProcessLauncher spawns commands using os/exec.
type OSProcessLauncher struct{}

// NewOSProcessLauncher constructs a launcher backed by os/exec.
func NewOSProcessLauncher() *OSProcessLauncher {
	return &OSProcessLauncher{}
}

// Start spawns the requested command, inheriting the caller's standard
// streams unless the specification overrides them. Spawn failures are
// classified into ErrCommandNotFound, ErrCommandNotInvocable, or returned
// unclassified for any other operating system failure.
func (launcher *OSProcessLauncher) Start(executionContext context.Context, specification CommandSpecification) (ProcessHandle, error) {
	trimmedCommandName := strings.TrimSpace(specification.CommandName)
	if len(trimmedCommandName) == 0 {
		return nil, ErrCommandNameRequired
	}

	commandArguments := append([]string{}, specification.Arguments...)
	executable := exec.CommandContext(executionContext, trimmedCommandName, commandArguments...)

	executable.Stdin = specification.StandardInput
	if executable.Stdin == nil {
		executable.Stdin = os.Stdin
	}
	executable.Stdout = specification.StandardOutput
	if executable.Stdout == nil {
		executable.Stdout = os.Stdout
	}
	executable.Stderr = specification.StandardError
	if executable.Stderr == nil {
		executable.Stderr = os.Stderr
	}

	if specification.ProcessGroupEnabled {
		configureProcessGroup(executable)
	}

	startError := executable.Start()
	if startError != nil {
		return nil, fmt.Errorf(spawnFailureTemplateConstant, trimmedCommandName, classifySpawnFailure(startError))
	}

	handle := &osProcessHandle{
		command:             executable,
		processGroupEnabled: specification.ProcessGroupEnabled,
		exitEvents:          make(chan ExitEvent, 1),
	}

	go func() {
		waitError := executable.Wait()
		handle.exitEvents <- ExitEvent{ExitCode: ExitCodeFromWaitError(waitError)}
	}()

	return handle, nil
}

// osProcessHandle wraps a started exec.Cmd. A dedicated goroutine reaps the
// process exactly once and publishes the exit event on a buffered channel.
type osProcessHandle struct {
	command             *exec.Cmd
	processGroupEnabled bool
	exitEvents          chan ExitEvent
}

// ExitEvents returns the channel carrying the single exit event.
func (handle *osProcessHandle) ExitEvents() <-chan ExitEvent {
	return handle.exitEvents
}

// SignalTerminate requests cooperative termination of the child (and its
// process group on platforms that support grouping).
func (handle *osProcessHandle) SignalTerminate() error {
	return terminateProcess(handle.command.Process, handle.processGroupEnabled)
}

// SignalKill forcibly terminates the child (and its process group on
// platforms that support grouping).
func (handle *osProcessHandle) SignalKill() error {
	return killProcess(handle.command.Process, handle.processGroupEnabled)
}

// ExitCodeFromWaitError converts the error returned by exec.Cmd.Wait into
// the child's exit code. A signal-terminated child maps to 128 plus the
// signal number following the shell convention; wait failures that carry no
// exit information fall back to 1.
func ExitCodeFromWaitError(waitError error) int {
	if waitError == nil {
		return 0
	}

	exitError := &exec.ExitError{}
	if !errors.As(waitError, &exitError) {
		return fallbackWaitFailureExitCodeConstant
	}

	if signaled, signalNumber := signalTerminationStatus(exitError); signaled {
		return signalTerminationExitCodeBaseConstant + signalNumber
	}

	if exitCode := exitError.ExitCode(); exitCode >= 0 {
		return exitCode
	}

	return fallbackWaitFailureExitCodeConstant
}

func classifySpawnFailure(startError error) error {
	switch {
	case errors.Is(startError, exec.ErrNotFound):
		return ErrCommandNotFound
	case errors.Is(startError, os.ErrNotExist):
		return ErrCommandNotFound
	case errors.Is(startError, os.ErrPermission):
		return ErrCommandNotInvocable
	default:
		return startError
	}
}
