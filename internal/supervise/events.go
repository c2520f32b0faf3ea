package supervise

import (
	"time"

	"github.com/temirov/runlimit/internal/launch"
)

// SupervisionEventObserver receives lifecycle notifications for a supervised execution.
type SupervisionEventObserver interface {
	// SupervisionStarted notifies observers that the child process was spawned.
	SupervisionStarted(specification launch.CommandSpecification, timeout time.Duration)
	// ProcessCompleted notifies observers that the child exited before the timeout fired.
	ProcessCompleted(specification launch.CommandSpecification, exitCode int)
	// TerminateRequested notifies observers that the timeout fired and a terminate signal was sent.
	TerminateRequested(specification launch.CommandSpecification, timeout time.Duration)
	// ProcessCompletedDuringGrace notifies observers that the child exited during the kill-after grace period.
	ProcessCompletedDuringGrace(specification launch.CommandSpecification, exitCode int)
	// KillRequested notifies observers that the grace period expired and a kill signal was sent.
	KillRequested(specification launch.CommandSpecification, killAfter time.Duration)
	// KillConfirmed notifies observers that the forced termination was observed by the operating system.
	KillConfirmed(specification launch.CommandSpecification)
	// SpawnFailed reports that the child process could not be created.
	SpawnFailed(specification launch.CommandSpecification, failure error)
}

// noopSupervisionEventObserver discards all supervision events.
type noopSupervisionEventObserver struct{}

// SupervisionStarted implements SupervisionEventObserver for the no-op observer.
func (noopSupervisionEventObserver) SupervisionStarted(launch.CommandSpecification, time.Duration) {}

// ProcessCompleted implements SupervisionEventObserver for the no-op observer.
func (noopSupervisionEventObserver) ProcessCompleted(launch.CommandSpecification, int) {}

// TerminateRequested implements SupervisionEventObserver for the no-op observer.
func (noopSupervisionEventObserver) TerminateRequested(launch.CommandSpecification, time.Duration) {}

// ProcessCompletedDuringGrace implements SupervisionEventObserver for the no-op observer.
func (noopSupervisionEventObserver) ProcessCompletedDuringGrace(launch.CommandSpecification, int) {}

// KillRequested implements SupervisionEventObserver for the no-op observer.
func (noopSupervisionEventObserver) KillRequested(launch.CommandSpecification, time.Duration) {}

// KillConfirmed implements SupervisionEventObserver for the no-op observer.
func (noopSupervisionEventObserver) KillConfirmed(launch.CommandSpecification) {}

// SpawnFailed implements SupervisionEventObserver for the no-op observer.
func (noopSupervisionEventObserver) SpawnFailed(launch.CommandSpecification, error) {}
