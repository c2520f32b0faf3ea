//go:build !windows

package launch_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/runlimit/internal/launch"
)

const (
	testShellCommandNameConstant          = "sh"
	testShellCommandFlagConstant          = "-c"
	testExitScriptTemplateConstant        = "exit %d"
	testSleepScriptConstant               = "sleep 30"
	testEchoScriptConstant                = "echo launch_test_output"
	testExpectedEchoOutputConstant        = "launch_test_output\n"
	testChildExitCodeConstant             = 42
	testMissingCommandNameConstant        = "runlimit-test-command-that-does-not-exist"
	testNonExecutableFileNameConstant     = "not-executable.txt"
	testNonExecutableFileContentConstant  = "plain text, not a program"
	testExitEventTimeoutConstant          = 5 * time.Second
	testSubtestNameTemplateConstant       = "%d_%s"
	testSignaledExitCodeConstant          = 128 + int(syscall.SIGTERM)
)

func awaitExitEvent(testInstance *testing.T, processHandle launch.ProcessHandle) launch.ExitEvent {
	testInstance.Helper()

	select {
	case exitEvent := <-processHandle.ExitEvents():
		return exitEvent
	case <-time.After(testExitEventTimeoutConstant):
		testInstance.Fatal("timed out waiting for exit event")
		return launch.ExitEvent{}
	}
}

func TestOSProcessLauncherStartValidation(testInstance *testing.T) {
	launcher := launch.NewOSProcessLauncher()

	processHandle, startError := launcher.Start(context.Background(), launch.CommandSpecification{CommandName: "   "})

	require.ErrorIs(testInstance, startError, launch.ErrCommandNameRequired)
	require.Nil(testInstance, processHandle)
}

func TestOSProcessLauncherSpawnFailureClassification(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	nonExecutablePath := filepath.Join(temporaryDirectory, testNonExecutableFileNameConstant)
	writeError := os.WriteFile(nonExecutablePath, []byte(testNonExecutableFileContentConstant), 0o600)
	require.NoError(testInstance, writeError)

	testCases := []struct {
		name          string
		commandName   string
		expectedError error
	}{
		{
			name:          "missing_command",
			commandName:   testMissingCommandNameConstant,
			expectedError: launch.ErrCommandNotFound,
		},
		{
			name:          "non_executable_file",
			commandName:   nonExecutablePath,
			expectedError: launch.ErrCommandNotInvocable,
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			launcher := launch.NewOSProcessLauncher()

			processHandle, startError := launcher.Start(context.Background(), launch.CommandSpecification{CommandName: testCase.commandName})

			require.ErrorIs(testInstance, startError, testCase.expectedError)
			require.Nil(testInstance, processHandle)
		})
	}
}

func TestOSProcessLauncherReportsChildExitCode(testInstance *testing.T) {
	launcher := launch.NewOSProcessLauncher()

	processHandle, startError := launcher.Start(context.Background(), launch.CommandSpecification{
		CommandName: testShellCommandNameConstant,
		Arguments:   []string{testShellCommandFlagConstant, fmt.Sprintf(testExitScriptTemplateConstant, testChildExitCodeConstant)},
	})
	require.NoError(testInstance, startError)

	exitEvent := awaitExitEvent(testInstance, processHandle)
	require.Equal(testInstance, testChildExitCodeConstant, exitEvent.ExitCode)
}

func TestOSProcessLauncherAttachesConfiguredStreams(testInstance *testing.T) {
	outputBuffer := &rememberingWriter{}
	launcher := launch.NewOSProcessLauncher()

	processHandle, startError := launcher.Start(context.Background(), launch.CommandSpecification{
		CommandName:    testShellCommandNameConstant,
		Arguments:      []string{testShellCommandFlagConstant, testEchoScriptConstant},
		StandardOutput: outputBuffer,
	})
	require.NoError(testInstance, startError)

	exitEvent := awaitExitEvent(testInstance, processHandle)
	require.Zero(testInstance, exitEvent.ExitCode)
	require.Equal(testInstance, testExpectedEchoOutputConstant, outputBuffer.String())
}

func TestOSProcessLauncherTerminateSignalEndsChild(testInstance *testing.T) {
	launcher := launch.NewOSProcessLauncher()

	processHandle, startError := launcher.Start(context.Background(), launch.CommandSpecification{
		CommandName: testShellCommandNameConstant,
		Arguments:   []string{testShellCommandFlagConstant, testSleepScriptConstant},
	})
	require.NoError(testInstance, startError)

	require.NoError(testInstance, processHandle.SignalTerminate())

	exitEvent := awaitExitEvent(testInstance, processHandle)
	require.Equal(testInstance, testSignaledExitCodeConstant, exitEvent.ExitCode)
}

func TestOSProcessLauncherKillSignalEndsProcessGroup(testInstance *testing.T) {
	launcher := launch.NewOSProcessLauncher()

	processHandle, startError := launcher.Start(context.Background(), launch.CommandSpecification{
		CommandName:         testShellCommandNameConstant,
		Arguments:           []string{testShellCommandFlagConstant, testSleepScriptConstant},
		ProcessGroupEnabled: true,
	})
	require.NoError(testInstance, startError)

	require.NoError(testInstance, processHandle.SignalKill())

	exitEvent := awaitExitEvent(testInstance, processHandle)
	require.Equal(testInstance, 128+int(syscall.SIGKILL), exitEvent.ExitCode)
}

func TestExitCodeFromWaitError(testInstance *testing.T) {
	testCases := []struct {
		name             string
		waitError        error
		expectedExitCode int
	}{
		{
			name:             "nil_error_is_success",
			waitError:        nil,
			expectedExitCode: 0,
		},
		{
			name:             "non_exit_error_falls_back",
			waitError:        errors.New("wait bookkeeping failure"),
			expectedExitCode: 1,
		},
		{
			name:             "exit_error_reports_child_code",
			waitError:        exitErrorWithCode(testInstance, testChildExitCodeConstant),
			expectedExitCode: testChildExitCodeConstant,
		},
		{
			name:             "signaled_child_encodes_signal_number",
			waitError:        signaledExitError(testInstance),
			expectedExitCode: 128 + int(syscall.SIGKILL),
		},
	}

	for testCaseIndex, testCase := range testCases {
		testInstance.Run(fmt.Sprintf(testSubtestNameTemplateConstant, testCaseIndex, testCase.name), func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedExitCode, launch.ExitCodeFromWaitError(testCase.waitError))
		})
	}
}

// exitErrorWithCode runs a real child so the returned error carries genuine
// operating system wait status.
func exitErrorWithCode(testInstance *testing.T, exitCode int) error {
	testInstance.Helper()

	command := exec.Command(testShellCommandNameConstant, testShellCommandFlagConstant, fmt.Sprintf(testExitScriptTemplateConstant, exitCode))
	waitError := command.Run()
	require.Error(testInstance, waitError)
	return waitError
}

func signaledExitError(testInstance *testing.T) error {
	testInstance.Helper()

	command := exec.Command(testShellCommandNameConstant, testShellCommandFlagConstant, testSleepScriptConstant)
	require.NoError(testInstance, command.Start())
	require.NoError(testInstance, command.Process.Kill())
	waitError := command.Wait()
	require.Error(testInstance, waitError)
	return waitError
}

type rememberingWriter struct {
	content []byte
}

func (writer *rememberingWriter) Write(data []byte) (int, error) {
	writer.content = append(writer.content, data...)
	return len(data), nil
}

func (writer *rememberingWriter) String() string {
	return string(writer.content)
}
