package supervise

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/runlimit/internal/launch"
)

const (
	loggerNotConfiguredMessageConstant       = "logger not configured"
	launcherNotConfiguredMessageConstant     = "launcher not configured"
	negativeTimeoutMessageConstant           = "timeout duration must not be negative"
	negativeKillAfterMessageConstant         = "kill-after duration must not be negative"
	supervisionStartedMessageConstant        = "supervision started"
	processCompletedMessageConstant          = "process completed"
	terminateRequestedMessageConstant        = "terminate signal sent"
	terminateDeliveryFailedMessageConstant   = "terminate signal delivery failed"
	completedDuringGraceMessageConstant      = "process completed during grace period"
	killRequestedMessageConstant             = "kill signal sent"
	killDeliveryFailedMessageConstant        = "kill signal delivery failed"
	killConfirmedMessageConstant             = "forced termination confirmed"
	spawnFailedMessageConstant               = "unable to spawn process"
	logFieldCommandNameConstant              = "command_name"
	logFieldTimeoutConstant                  = "timeout"
	logFieldKillAfterConstant                = "kill_after"
	logFieldExitCodeConstant                 = "exit_code"
	logFieldSpawnFailureConstant             = "spawn_failure"
	logFieldProcessGroupConstant             = "process_group"
	logFieldSupervisionElapsedConstant       = "elapsed"
	logFieldSupervisionOutcomeConstant       = "outcome"
	supervisionFinishedMessageConstant       = "supervision finished"
	defaultObserverCapacityReserveConstant   = 1
)

// ErrLoggerNotConfigured indicates the supervisor was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrLauncherNotConfigured indicates the supervisor was constructed without a launcher.
var ErrLauncherNotConfigured = errors.New(launcherNotConfiguredMessageConstant)

// ErrNegativeTimeout indicates a negative timeout duration was supplied.
var ErrNegativeTimeout = errors.New(negativeTimeoutMessageConstant)

// ErrNegativeKillAfter indicates a negative kill-after duration was supplied.
var ErrNegativeKillAfter = errors.New(negativeKillAfterMessageConstant)

// Options configure one supervised execution. Timeout bounds the child's
// running time; a zero timeout fires immediately. KillAfter is honored only
// when KillAfterEnabled is set and describes the grace period between the
// terminate signal and the kill escalation.
type Options struct {
	Specification    launch.CommandSpecification
	Timeout          time.Duration
	KillAfter        time.Duration
	KillAfterEnabled bool
}

// Supervisor runs a command under a deadline and escalates termination when
// the deadline passes. A single goroutine owns the child handle: it is the
// only sender of signals, and it signals only in branches where no exit has
// been observed, so no signal can follow an observed exit.
type Supervisor struct {
	logger    *zap.Logger
	launcher  launch.Launcher
	observers []SupervisionEventObserver
}

// NewSupervisor constructs a Supervisor with the supplied collaborators.
func NewSupervisor(logger *zap.Logger, launcher launch.Launcher, observers ...SupervisionEventObserver) (*Supervisor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if launcher == nil {
		return nil, ErrLauncherNotConfigured
	}

	attachedObservers := make([]SupervisionEventObserver, 0, len(observers)+defaultObserverCapacityReserveConstant)
	for _, observer := range observers {
		if observer == nil {
			continue
		}
		attachedObservers = append(attachedObservers, observer)
	}
	if len(attachedObservers) == 0 {
		attachedObservers = append(attachedObservers, noopSupervisionEventObserver{})
	}

	return &Supervisor{logger: logger, launcher: launcher, observers: attachedObservers}, nil
}

// Run spawns the command and supervises it until a terminal outcome is
// reached. Validation failures and spawn failures surface as
// OutcomeKindSpawnFailed; every other path captures the child's fate.
//
// The race between process exit and timer expiry is resolved by channel
// selection. Tie-break: when a timer fires, a non-blocking poll of the exit
// channel runs before any signal is sent, so a simultaneously ready process
// exit always wins and an exited child is never signaled.
func (supervisor *Supervisor) Run(executionContext context.Context, options Options) Outcome {
	if options.Timeout < 0 {
		return supervisor.spawnFailureOutcome(options.Specification, ErrNegativeTimeout)
	}
	if options.KillAfterEnabled && options.KillAfter < 0 {
		return supervisor.spawnFailureOutcome(options.Specification, ErrNegativeKillAfter)
	}

	processHandle, startError := supervisor.launcher.Start(executionContext, options.Specification)
	if startError != nil {
		return supervisor.spawnFailureOutcome(options.Specification, startError)
	}

	supervisionStart := time.Now()
	supervisor.logger.Info(
		supervisionStartedMessageConstant,
		zap.String(logFieldCommandNameConstant, options.Specification.CommandName),
		zap.Duration(logFieldTimeoutConstant, options.Timeout),
		zap.Bool(logFieldProcessGroupConstant, options.Specification.ProcessGroupEnabled),
	)
	for _, observer := range supervisor.observers {
		observer.SupervisionStarted(options.Specification, options.Timeout)
	}

	outcome := supervisor.superviseHandle(processHandle, options)

	supervisor.logger.Info(
		supervisionFinishedMessageConstant,
		zap.String(logFieldCommandNameConstant, options.Specification.CommandName),
		zap.String(logFieldSupervisionOutcomeConstant, outcome.Kind.String()),
		zap.Duration(logFieldSupervisionElapsedConstant, time.Since(supervisionStart)),
	)

	return outcome
}

func (supervisor *Supervisor) superviseHandle(processHandle launch.ProcessHandle, options Options) Outcome {
	timeoutTimer := time.NewTimer(options.Timeout)
	defer timeoutTimer.Stop()

	select {
	case exitEvent := <-processHandle.ExitEvents():
		return supervisor.completedOutcome(options.Specification, exitEvent)
	case <-timeoutTimer.C:
	}

	// Timer fired; prefer a simultaneously ready process exit.
	select {
	case exitEvent := <-processHandle.ExitEvents():
		return supervisor.completedOutcome(options.Specification, exitEvent)
	default:
	}

	supervisor.sendTerminate(processHandle, options)

	if !options.KillAfterEnabled {
		return Outcome{Kind: OutcomeKindTimedOutNoEscalation}
	}

	graceTimer := time.NewTimer(options.KillAfter)
	defer graceTimer.Stop()

	select {
	case exitEvent := <-processHandle.ExitEvents():
		return supervisor.completedDuringGraceOutcome(options.Specification, exitEvent)
	case <-graceTimer.C:
	}

	select {
	case exitEvent := <-processHandle.ExitEvents():
		return supervisor.completedDuringGraceOutcome(options.Specification, exitEvent)
	default:
	}

	supervisor.sendKill(processHandle, options)

	// Forced termination is always eventually observable; this wait does not
	// itself time out.
	<-processHandle.ExitEvents()
	supervisor.logger.Info(
		killConfirmedMessageConstant,
		zap.String(logFieldCommandNameConstant, options.Specification.CommandName),
	)
	for _, observer := range supervisor.observers {
		observer.KillConfirmed(options.Specification)
	}

	return Outcome{Kind: OutcomeKindKilled}
}

func (supervisor *Supervisor) sendTerminate(processHandle launch.ProcessHandle, options Options) {
	supervisor.logger.Info(
		terminateRequestedMessageConstant,
		zap.String(logFieldCommandNameConstant, options.Specification.CommandName),
		zap.Duration(logFieldTimeoutConstant, options.Timeout),
	)
	for _, observer := range supervisor.observers {
		observer.TerminateRequested(options.Specification, options.Timeout)
	}

	// Delivery failures mean the process is already gone; the exit branch of
	// the following race observes that, so the failure is not propagated.
	if deliveryError := processHandle.SignalTerminate(); deliveryError != nil {
		supervisor.logger.Debug(
			terminateDeliveryFailedMessageConstant,
			zap.String(logFieldCommandNameConstant, options.Specification.CommandName),
			zap.Error(deliveryError),
		)
	}
}

func (supervisor *Supervisor) sendKill(processHandle launch.ProcessHandle, options Options) {
	supervisor.logger.Info(
		killRequestedMessageConstant,
		zap.String(logFieldCommandNameConstant, options.Specification.CommandName),
		zap.Duration(logFieldKillAfterConstant, options.KillAfter),
	)
	for _, observer := range supervisor.observers {
		observer.KillRequested(options.Specification, options.KillAfter)
	}

	if deliveryError := processHandle.SignalKill(); deliveryError != nil {
		supervisor.logger.Debug(
			killDeliveryFailedMessageConstant,
			zap.String(logFieldCommandNameConstant, options.Specification.CommandName),
			zap.Error(deliveryError),
		)
	}
}

func (supervisor *Supervisor) completedOutcome(specification launch.CommandSpecification, exitEvent launch.ExitEvent) Outcome {
	supervisor.logger.Info(
		processCompletedMessageConstant,
		zap.String(logFieldCommandNameConstant, specification.CommandName),
		zap.Int(logFieldExitCodeConstant, exitEvent.ExitCode),
	)
	for _, observer := range supervisor.observers {
		observer.ProcessCompleted(specification, exitEvent.ExitCode)
	}
	return Outcome{Kind: OutcomeKindCompleted, ExitCode: exitEvent.ExitCode}
}

func (supervisor *Supervisor) completedDuringGraceOutcome(specification launch.CommandSpecification, exitEvent launch.ExitEvent) Outcome {
	supervisor.logger.Info(
		completedDuringGraceMessageConstant,
		zap.String(logFieldCommandNameConstant, specification.CommandName),
		zap.Int(logFieldExitCodeConstant, exitEvent.ExitCode),
	)
	for _, observer := range supervisor.observers {
		observer.ProcessCompletedDuringGrace(specification, exitEvent.ExitCode)
	}
	return Outcome{Kind: OutcomeKindCompletedDuringGrace, ExitCode: exitEvent.ExitCode}
}

func (supervisor *Supervisor) spawnFailureOutcome(specification launch.CommandSpecification, failure error) Outcome {
	supervisor.logger.Error(
		spawnFailedMessageConstant,
		zap.String(logFieldCommandNameConstant, specification.CommandName),
		zap.NamedError(logFieldSpawnFailureConstant, failure),
	)
	for _, observer := range supervisor.observers {
		observer.SpawnFailed(specification, failure)
	}
	return Outcome{Kind: OutcomeKindSpawnFailed, SpawnFailure: failure}
}
