package run_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	runcmd "github.com/temirov/runlimit/cmd/cli/run"
	"github.com/temirov/runlimit/internal/exitcode"
	"github.com/temirov/runlimit/internal/launch"
)

const (
	testTimeoutArgumentConstant     = "5"
	testCommandNameConstant         = "some-command"
	testChildExitCodeConstant       = 42
	exitChannelCapacityConstant     = 1
	testPassThroughFlagConstant     = "--verbose"
)

type recordedProcessHandle struct {
	exitEvents chan launch.ExitEvent
}

func newRecordedProcessHandle(exitCode int) *recordedProcessHandle {
	handle := &recordedProcessHandle{exitEvents: make(chan launch.ExitEvent, exitChannelCapacityConstant)}
	handle.exitEvents <- launch.ExitEvent{ExitCode: exitCode}
	return handle
}

func (handle *recordedProcessHandle) ExitEvents() <-chan launch.ExitEvent {
	return handle.exitEvents
}

func (handle *recordedProcessHandle) SignalTerminate() error {
	return nil
}

func (handle *recordedProcessHandle) SignalKill() error {
	return nil
}

type recordingLauncher struct {
	mutex         sync.Mutex
	specification launch.CommandSpecification
	exitCode      int
}

func (launcher *recordingLauncher) Start(executionContext context.Context, specification launch.CommandSpecification) (launch.ProcessHandle, error) {
	launcher.mutex.Lock()
	launcher.specification = specification
	launcher.mutex.Unlock()
	return newRecordedProcessHandle(launcher.exitCode), nil
}

func (launcher *recordingLauncher) recordedSpecification() launch.CommandSpecification {
	launcher.mutex.Lock()
	defer launcher.mutex.Unlock()
	return launcher.specification
}

func buildRunCommand(testInstance *testing.T, launcher *recordingLauncher, configuration runcmd.CommandConfiguration) *cobra.Command {
	testInstance.Helper()

	builder := runcmd.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return zap.NewNop()
		},
		LauncherProvider: func() launch.Launcher {
			return launcher
		},
		ConfigurationProvider: func() runcmd.CommandConfiguration {
			return configuration
		},
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetContext(context.Background())
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	return command
}

func TestRunCommandSucceedsWhenChildSucceeds(testInstance *testing.T) {
	launcher := &recordingLauncher{}
	command := buildRunCommand(testInstance, launcher, runcmd.DefaultCommandConfiguration())
	command.SetArgs([]string{testTimeoutArgumentConstant, testCommandNameConstant})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, testCommandNameConstant, launcher.recordedSpecification().CommandName)
}

func TestRunCommandPropagatesChildExitCode(testInstance *testing.T) {
	launcher := &recordingLauncher{exitCode: testChildExitCodeConstant}
	command := buildRunCommand(testInstance, launcher, runcmd.DefaultCommandConfiguration())
	command.SetArgs([]string{testTimeoutArgumentConstant, testCommandNameConstant})

	executionError := command.Execute()

	var processExitError exitcode.ProcessExitError
	require.ErrorAs(testInstance, executionError, &processExitError)
	require.Equal(testInstance, testChildExitCodeConstant, processExitError.Code)
}

func TestRunCommandPassesChildFlagsThrough(testInstance *testing.T) {
	launcher := &recordingLauncher{}
	command := buildRunCommand(testInstance, launcher, runcmd.DefaultCommandConfiguration())
	command.SetArgs([]string{testTimeoutArgumentConstant, testCommandNameConstant, testPassThroughFlagConstant})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, []string{testPassThroughFlagConstant}, launcher.recordedSpecification().Arguments)
}

func TestRunCommandEnablesProcessGroupByDefault(testInstance *testing.T) {
	launcher := &recordingLauncher{}
	command := buildRunCommand(testInstance, launcher, runcmd.DefaultCommandConfiguration())
	command.SetArgs([]string{testTimeoutArgumentConstant, testCommandNameConstant})

	require.NoError(testInstance, command.Execute())
	require.True(testInstance, launcher.recordedSpecification().ProcessGroupEnabled)
}

func TestRunCommandDisablesProcessGroupFromFlag(testInstance *testing.T) {
	launcher := &recordingLauncher{}
	command := buildRunCommand(testInstance, launcher, runcmd.DefaultCommandConfiguration())
	command.SetArgs([]string{"--process-group=no", testTimeoutArgumentConstant, testCommandNameConstant})

	require.NoError(testInstance, command.Execute())
	require.False(testInstance, launcher.recordedSpecification().ProcessGroupEnabled)
}

func TestRunCommandUsesConfiguredProcessGroup(testInstance *testing.T) {
	launcher := &recordingLauncher{}
	configuration := runcmd.CommandConfiguration{ProcessGroup: false}
	command := buildRunCommand(testInstance, launcher, configuration)
	command.SetArgs([]string{testTimeoutArgumentConstant, testCommandNameConstant})

	require.NoError(testInstance, command.Execute())
	require.False(testInstance, launcher.recordedSpecification().ProcessGroupEnabled)
}

func TestRunCommandRejectsInvalidDurations(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{
			name:      "invalid_timeout",
			arguments: []string{"whenever", testCommandNameConstant},
		},
		{
			name:      "invalid_kill_after",
			arguments: []string{"--kill-after=whenever", testTimeoutArgumentConstant, testCommandNameConstant},
		},
		{
			name:      "negative_timeout",
			arguments: []string{"-5", testCommandNameConstant},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			launcher := &recordingLauncher{}
			command := buildRunCommand(testInstance, launcher, runcmd.DefaultCommandConfiguration())
			command.SetArgs(testCase.arguments)

			executionError := command.Execute()
			require.Error(testInstance, executionError)

			var processExitError exitcode.ProcessExitError
			require.False(testInstance, errors.As(executionError, &processExitError))
		})
	}
}

func TestRunCommandRequiresTimeoutAndCommand(testInstance *testing.T) {
	launcher := &recordingLauncher{}
	command := buildRunCommand(testInstance, launcher, runcmd.DefaultCommandConfiguration())
	command.SetArgs([]string{testTimeoutArgumentConstant})

	require.Error(testInstance, command.Execute())
}
