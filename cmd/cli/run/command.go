package run

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/runlimit/internal/exitcode"
	"github.com/temirov/runlimit/internal/launch"
	"github.com/temirov/runlimit/internal/supervise"
	"github.com/temirov/runlimit/internal/ui"
	"github.com/temirov/runlimit/internal/utils"
	flagutils "github.com/temirov/runlimit/internal/utils/flags"
)

const (
	commandUseConstant               = "run DURATION COMMAND [ARGUMENTS...]"
	commandShortDescriptionConstant  = "Run a command under a time limit"
	commandLongDescriptionConstant   = "run starts the command, waits up to DURATION for it to finish, and escalates from a terminate signal to a kill signal when the command overstays its welcome. A bare integer DURATION is treated as seconds."
	killAfterFlagNameConstant        = "kill-after"
	killAfterFlagUsageConstant       = "Grace period between the terminate and kill signals (0 kills immediately)."
	processGroupFlagNameConstant     = "process-group"
	processGroupFlagUsageConstant    = "Signal the command's entire process group"
	minimumArgumentCountConstant     = 2
	timeoutArgumentErrorTemplateConstant     = "invalid duration %q: %w"
	killAfterValueErrorTemplateConstant      = "invalid kill-after value %q: %w"
	supervisorCreationErrorTemplateConstant  = "unable to construct supervisor: %w"
	timeoutArgumentPositionConstant  = 0
	commandArgumentPositionConstant  = 1
	argumentsSlicePositionConstant   = 2
)

// CommandBuilder assembles the run command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	LauncherProvider             LauncherProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() CommandConfiguration
}

// Build constructs the run command. Flag parsing stops at the first
// positional argument so the supervised command keeps its own flags.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	var killAfterFlagValue string
	var processGroupFlagValue bool

	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MinimumNArgs(minimumArgumentCountConstant),
		RunE: func(command *cobra.Command, arguments []string) error {
			return builder.run(command, arguments, killAfterFlagValue, processGroupFlagValue)
		},
	}

	command.Flags().SetInterspersed(false)
	command.Flags().StringVar(&killAfterFlagValue, killAfterFlagNameConstant, "", killAfterFlagUsageConstant)
	flagutils.AddToggleFlag(command.Flags(), &processGroupFlagValue, processGroupFlagNameConstant, true, processGroupFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string, killAfterFlagValue string, processGroupFlagValue bool) error {
	commandConfiguration := builder.resolveConfiguration()

	timeout, timeoutError := utils.ParseNonNegativeDuration(arguments[timeoutArgumentPositionConstant])
	if timeoutError != nil {
		return fmt.Errorf(timeoutArgumentErrorTemplateConstant, arguments[timeoutArgumentPositionConstant], timeoutError)
	}

	killAfterValue := commandConfiguration.KillAfter
	if command.Flags().Changed(killAfterFlagNameConstant) {
		killAfterValue = killAfterFlagValue
	}

	options := supervise.Options{Timeout: timeout}
	if len(strings.TrimSpace(killAfterValue)) > 0 {
		killAfter, killAfterError := utils.ParseNonNegativeDuration(killAfterValue)
		if killAfterError != nil {
			return fmt.Errorf(killAfterValueErrorTemplateConstant, killAfterValue, killAfterError)
		}
		options.KillAfter = killAfter
		options.KillAfterEnabled = true
	}

	processGroupEnabled := commandConfiguration.ProcessGroup
	if command.Flags().Changed(processGroupFlagNameConstant) {
		processGroupEnabled = processGroupFlagValue
	}

	options.Specification = launch.CommandSpecification{
		CommandName:         arguments[commandArgumentPositionConstant],
		Arguments:           arguments[argumentsSlicePositionConstant:],
		ProcessGroupEnabled: processGroupEnabled,
		StandardInput:       command.InOrStdin(),
		StandardOutput:      command.OutOrStdout(),
		StandardError:       command.ErrOrStderr(),
	}

	logger := resolveLogger(builder.LoggerProvider)
	launcher := resolveLauncher(builder.LauncherProvider)

	observers := []supervise.SupervisionEventObserver{}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		observers = append(observers, ui.NewSupervisionEventWriter(utils.NewFlushingWriter(command.ErrOrStderr())))
	}

	supervisor, supervisorError := supervise.NewSupervisor(logger, launcher, observers...)
	if supervisorError != nil {
		return fmt.Errorf(supervisorCreationErrorTemplateConstant, supervisorError)
	}

	outcome := supervisor.Run(command.Context(), options)

	translatedCode := exitcode.NewTranslator().TranslateOutcome(outcome)
	if translatedCode != exitcode.ExitCodeSuccess {
		return exitcode.ProcessExitError{Code: translatedCode}
	}

	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}

	return builder.ConfigurationProvider().sanitize()
}
