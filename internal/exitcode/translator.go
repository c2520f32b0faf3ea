// Package exitcode maps supervision outcomes onto the process exit codes the
// tool reports, matching the GNU timeout convention.
package exitcode

import (
	"errors"
	"fmt"

	"github.com/temirov/runlimit/internal/launch"
	"github.com/temirov/runlimit/internal/supervise"
)

const (
	// ExitCodeSuccess reports a child that exited cleanly.
	ExitCodeSuccess = 0
	// ExitCodeTimedOut reports a timeout with no kill escalation observed.
	ExitCodeTimedOut = 124
	// ExitCodeToolFailure reports a failure of the supervising tool itself.
	ExitCodeToolFailure = 125
	// ExitCodeCommandNotInvocable reports a command found but lacking execute permission.
	ExitCodeCommandNotInvocable = 126
	// ExitCodeCommandNotFound reports a command missing from the search path.
	ExitCodeCommandNotFound = 127
	// ExitCodeKilled reports a child that was forcibly killed (128 + SIGKILL).
	ExitCodeKilled = 137

	childExitCodeMaskConstant          = 0xFF
	processExitErrorTemplateConstant   = "process exited with code %d"
	unknownOutcomeKindExitCodeConstant = ExitCodeToolFailure
)

// ProcessExitError carries a translated exit code through error returns so
// command handlers can surface it without printing a tool error.
type ProcessExitError struct {
	Code int
}

// Error describes the carried exit code.
func (processExitError ProcessExitError) Error() string {
	return fmt.Sprintf(processExitErrorTemplateConstant, processExitError.Code)
}

// Translator converts supervision outcomes into process exit codes. The
// mapping is pure and retry-free; the fixed priority is spawn failures
// first, then completed exits, then timeout and kill encodings.
type Translator struct{}

// NewTranslator constructs a Translator.
func NewTranslator() Translator {
	return Translator{}
}

// TranslateOutcome maps an outcome to the exit code the tool reports.
func (translator Translator) TranslateOutcome(outcome supervise.Outcome) int {
	switch outcome.Kind {
	case supervise.OutcomeKindSpawnFailed:
		return translator.translateSpawnFailure(outcome.SpawnFailure)
	case supervise.OutcomeKindCompleted, supervise.OutcomeKindCompletedDuringGrace:
		return outcome.ExitCode & childExitCodeMaskConstant
	case supervise.OutcomeKindTimedOutNoEscalation:
		return ExitCodeTimedOut
	case supervise.OutcomeKindKilled:
		return ExitCodeKilled
	default:
		return unknownOutcomeKindExitCodeConstant
	}
}

func (translator Translator) translateSpawnFailure(spawnFailure error) int {
	switch {
	case errors.Is(spawnFailure, launch.ErrCommandNotFound):
		return ExitCodeCommandNotFound
	case errors.Is(spawnFailure, launch.ErrCommandNotInvocable):
		return ExitCodeCommandNotInvocable
	default:
		return ExitCodeToolFailure
	}
}
