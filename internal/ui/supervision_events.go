package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/temirov/runlimit/internal/launch"
)

const (
	supervisionStartedTemplateConstant   = "Running %s with a %s limit\n"
	processCompletedTemplateConstant     = "Completed %s with exit code %d\n"
	terminateRequestedTemplateConstant   = "%s exceeded the %s limit; terminate signal sent\n"
	completedDuringGraceTemplateConstant = "%s exited with code %d after the terminate signal\n"
	killRequestedTemplateConstant        = "%s survived the %s grace period; kill signal sent\n"
	killConfirmedTemplateConstant        = "%s forcibly terminated\n"
	spawnFailedTemplateConstant          = "Unable to run %s: %s\n"
	commandLabelSeparatorConstant        = " "
	unknownFailureMessageConstant        = "unknown error"
)

// SupervisionEventWriter renders supervision lifecycle events as
// human-readable lines on the supplied writer. It implements
// supervise.SupervisionEventObserver for console log format.
type SupervisionEventWriter struct {
	writer io.Writer
}

// NewSupervisionEventWriter wraps the provided writer; a nil writer yields a
// silent observer.
func NewSupervisionEventWriter(writer io.Writer) *SupervisionEventWriter {
	return &SupervisionEventWriter{writer: writer}
}

// SupervisionStarted reports the spawned command and its time limit.
func (eventWriter *SupervisionEventWriter) SupervisionStarted(specification launch.CommandSpecification, timeout time.Duration) {
	eventWriter.printf(supervisionStartedTemplateConstant, formatCommandLabel(specification), timeout)
}

// ProcessCompleted reports a child that finished before the timeout fired.
func (eventWriter *SupervisionEventWriter) ProcessCompleted(specification launch.CommandSpecification, exitCode int) {
	eventWriter.printf(processCompletedTemplateConstant, formatCommandLabel(specification), exitCode)
}

// TerminateRequested reports the timeout expiry and the terminate signal.
func (eventWriter *SupervisionEventWriter) TerminateRequested(specification launch.CommandSpecification, timeout time.Duration) {
	eventWriter.printf(terminateRequestedTemplateConstant, formatCommandLabel(specification), timeout)
}

// ProcessCompletedDuringGrace reports an exit inside the grace period.
func (eventWriter *SupervisionEventWriter) ProcessCompletedDuringGrace(specification launch.CommandSpecification, exitCode int) {
	eventWriter.printf(completedDuringGraceTemplateConstant, formatCommandLabel(specification), exitCode)
}

// KillRequested reports the grace period expiry and the kill signal.
func (eventWriter *SupervisionEventWriter) KillRequested(specification launch.CommandSpecification, killAfter time.Duration) {
	eventWriter.printf(killRequestedTemplateConstant, formatCommandLabel(specification), killAfter)
}

// KillConfirmed reports that the forced termination completed.
func (eventWriter *SupervisionEventWriter) KillConfirmed(specification launch.CommandSpecification) {
	eventWriter.printf(killConfirmedTemplateConstant, formatCommandLabel(specification))
}

// SpawnFailed reports that the child could not be created.
func (eventWriter *SupervisionEventWriter) SpawnFailed(specification launch.CommandSpecification, failure error) {
	failureMessage := unknownFailureMessageConstant
	if failure != nil {
		failureMessage = failure.Error()
	}
	eventWriter.printf(spawnFailedTemplateConstant, formatCommandLabel(specification), failureMessage)
}

func (eventWriter *SupervisionEventWriter) printf(template string, formatArguments ...any) {
	if eventWriter == nil || eventWriter.writer == nil {
		return
	}
	fmt.Fprintf(eventWriter.writer, template, formatArguments...)
}

func formatCommandLabel(specification launch.CommandSpecification) string {
	labelParts := append([]string{specification.CommandName}, specification.Arguments...)
	return strings.Join(labelParts, commandLabelSeparatorConstant)
}
