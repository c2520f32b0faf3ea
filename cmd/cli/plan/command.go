package plan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/runlimit/internal/exitcode"
	planner "github.com/temirov/runlimit/internal/plan"
	"github.com/temirov/runlimit/internal/supervise"
	"github.com/temirov/runlimit/internal/ui"
	"github.com/temirov/runlimit/internal/utils"
	flagutils "github.com/temirov/runlimit/internal/utils/flags"
)

const (
	commandUseConstant                   = "plan [plan-file]"
	commandShortDescriptionConstant      = "Run a plan of supervised commands"
	commandLongDescriptionConstant       = "plan executes supervised commands defined in a YAML plan file in order, stopping at the first step whose exit code is non-zero."
	processGroupFlagNameConstant         = "process-group"
	processGroupFlagUsageConstant        = "Signal each step's entire process group unless the step overrides it"
	planPathRequiredMessageConstant      = "plan file path required; provide a positional argument"
	loadConfigurationErrorTemplateConstant       = "unable to load plan: %w"
	buildStepsErrorTemplateConstant      = "unable to build plan steps: %w"
	runnerCreationErrorTemplateConstant  = "unable to construct plan runner: %w"
	planExecutionErrorTemplateConstant   = "plan execution failed: %w"
	firstArgumentPositionConstant        = 0
	maximumPositionalArgumentsConstant   = 1
)

// CommandBuilder assembles the plan command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	LauncherProvider             LauncherProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the plan command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	var processGroupFlagValue bool

	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MaximumNArgs(maximumPositionalArgumentsConstant),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, processGroupFlagValue)
		},
	}

	flagutils.AddToggleFlag(command.Flags(), &processGroupFlagValue, processGroupFlagNameConstant, true, processGroupFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, processGroupFlagValue bool) error {
	planPathCandidate := ""
	if len(arguments) > 0 {
		planPathCandidate = strings.TrimSpace(arguments[firstArgumentPositionConstant])
	}

	if len(planPathCandidate) == 0 {
		if helpError := displayCommandHelp(command); helpError != nil {
			return helpError
		}
		return errors.New(planPathRequiredMessageConstant)
	}

	planConfiguration, configurationError := planner.LoadConfiguration(planPathCandidate)
	if configurationError != nil {
		return fmt.Errorf(loadConfigurationErrorTemplateConstant, configurationError)
	}

	commandConfiguration := builder.resolveConfiguration()

	processGroupDefault := commandConfiguration.ProcessGroup
	if command.Flags().Changed(processGroupFlagNameConstant) {
		processGroupDefault = processGroupFlagValue
	}

	steps, stepsError := planner.BuildSteps(planConfiguration, processGroupDefault)
	if stepsError != nil {
		return fmt.Errorf(buildStepsErrorTemplateConstant, stepsError)
	}

	logger := resolveLogger(builder.LoggerProvider)
	launcher := resolveLauncher(builder.LauncherProvider)

	observers := []supervise.SupervisionEventObserver{}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		observers = append(observers, ui.NewSupervisionEventWriter(utils.NewFlushingWriter(command.ErrOrStderr())))
	}

	runner, runnerError := planner.NewRunner(logger, launcher, observers...)
	if runnerError != nil {
		return fmt.Errorf(runnerCreationErrorTemplateConstant, runnerError)
	}

	planExitCode, runError := runner.Run(command.Context(), steps)
	if runError != nil {
		return fmt.Errorf(planExecutionErrorTemplateConstant, runError)
	}

	if planExitCode != exitcode.ExitCodeSuccess {
		return exitcode.ProcessExitError{Code: planExitCode}
	}

	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	return builder.ConfigurationProvider()
}

func displayCommandHelp(command *cobra.Command) error {
	if command == nil {
		return nil
	}
	return command.Help()
}
