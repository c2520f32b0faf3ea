package plan

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/runlimit/internal/exitcode"
	"github.com/temirov/runlimit/internal/launch"
	"github.com/temirov/runlimit/internal/supervise"
)

const (
	runnerLoggerMissingMessageConstant   = "plan runner requires a logger"
	runnerLauncherMissingMessageConstant = "plan runner requires a launcher"
	stepFailureErrorTemplateConstant          = "step %s: %w"
	logMessageStepStartedConstant        = "plan step started"
	logMessageStepFinishedConstant       = "plan step finished"
	logFieldStepNameConstant             = "step_name"
	logFieldStepIndexConstant            = "step_index"
	logFieldStepCountConstant            = "step_count"
	logFieldExitCodeConstant             = "exit_code"
	logFieldOutcomeConstant              = "outcome"
)

// ErrRunnerLoggerMissing indicates the runner was constructed without a logger.
var ErrRunnerLoggerMissing = errors.New(runnerLoggerMissingMessageConstant)

// ErrRunnerLauncherMissing indicates the runner was constructed without a launcher.
var ErrRunnerLauncherMissing = errors.New(runnerLauncherMissingMessageConstant)

// Runner executes plan steps sequentially, stopping at the first step whose
// translated exit code is non-zero.
type Runner struct {
	logger     *zap.Logger
	launcher   launch.Launcher
	translator exitcode.Translator
	observers  []supervise.SupervisionEventObserver
}

// NewRunner validates dependencies and constructs a Runner.
func NewRunner(logger *zap.Logger, launcher launch.Launcher, observers ...supervise.SupervisionEventObserver) (*Runner, error) {
	if logger == nil {
		return nil, ErrRunnerLoggerMissing
	}
	if launcher == nil {
		return nil, ErrRunnerLauncherMissing
	}

	return &Runner{
		logger:     logger,
		launcher:   launcher,
		translator: exitcode.NewTranslator(),
		observers:  observers,
	}, nil
}

// Run executes the supplied steps in order. The returned exit code is zero
// when every step succeeds, otherwise the translated code of the first
// failing step. A non-nil error reports tool failures rather than child
// command failures.
func (runner *Runner) Run(executionContext context.Context, steps []Step) (int, error) {
	for stepIndex, step := range steps {
		runner.logger.Info(logMessageStepStartedConstant,
			zap.String(logFieldStepNameConstant, step.Name),
			zap.Int(logFieldStepIndexConstant, stepIndex+1),
			zap.Int(logFieldStepCountConstant, len(steps)),
		)

		supervisor, supervisorError := supervise.NewSupervisor(runner.logger, runner.launcher, runner.observers...)
		if supervisorError != nil {
			return exitcode.ExitCodeToolFailure, fmt.Errorf(stepFailureErrorTemplateConstant, step.Name, supervisorError)
		}

		outcome := supervisor.Run(executionContext, supervise.Options{
			Specification: launch.CommandSpecification{
				CommandName:         step.CommandName,
				Arguments:           step.Arguments,
				ProcessGroupEnabled: step.ProcessGroupEnabled,
			},
			Timeout:          step.Timeout,
			KillAfter:        step.KillAfter,
			KillAfterEnabled: step.KillAfterEnabled,
		})

		translatedCode := runner.translator.TranslateOutcome(outcome)

		runner.logger.Info(logMessageStepFinishedConstant,
			zap.String(logFieldStepNameConstant, step.Name),
			zap.String(logFieldOutcomeConstant, outcome.Kind.String()),
			zap.Int(logFieldExitCodeConstant, translatedCode),
		)

		if translatedCode != exitcode.ExitCodeSuccess {
			return translatedCode, nil
		}
	}

	return exitcode.ExitCodeSuccess, nil
}
