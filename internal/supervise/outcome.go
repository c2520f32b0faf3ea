package supervise

const (
	outcomeKindCompletedLabelConstant            = "completed"
	outcomeKindCompletedDuringGraceLabelConstant = "completed_during_grace"
	outcomeKindKilledLabelConstant               = "killed"
	outcomeKindTimedOutLabelConstant             = "timed_out_no_escalation"
	outcomeKindSpawnFailedLabelConstant          = "spawn_failed"
	outcomeKindUnknownLabelConstant              = "unknown"
)

// OutcomeKind enumerates the terminal states of a supervised execution.
type OutcomeKind int

// Terminal supervision states.
const (
	// OutcomeKindCompleted reports a child that exited before the timeout fired.
	OutcomeKindCompleted OutcomeKind = iota
	// OutcomeKindCompletedDuringGrace reports a child that exited after the
	// terminate signal but before the kill escalation fired.
	OutcomeKindCompletedDuringGrace
	// OutcomeKindKilled reports a child that had to be forcibly killed.
	OutcomeKindKilled
	// OutcomeKindTimedOutNoEscalation reports a timeout with a terminate signal
	// sent and no kill escalation configured; the child is not re-observed.
	OutcomeKindTimedOutNoEscalation
	// OutcomeKindSpawnFailed reports a child that could not be created at all.
	OutcomeKindSpawnFailed
)

// Outcome is the tagged result of one supervised execution. It is created
// exactly once by the Supervisor and never mutated afterwards. ExitCode is
// meaningful for the completed kinds; SpawnFailure is meaningful only for
// OutcomeKindSpawnFailed.
type Outcome struct {
	Kind         OutcomeKind
	ExitCode     int
	SpawnFailure error
}

// String labels the outcome kind for logging.
func (kind OutcomeKind) String() string {
	switch kind {
	case OutcomeKindCompleted:
		return outcomeKindCompletedLabelConstant
	case OutcomeKindCompletedDuringGrace:
		return outcomeKindCompletedDuringGraceLabelConstant
	case OutcomeKindKilled:
		return outcomeKindKilledLabelConstant
	case OutcomeKindTimedOutNoEscalation:
		return outcomeKindTimedOutLabelConstant
	case OutcomeKindSpawnFailed:
		return outcomeKindSpawnFailedLabelConstant
	default:
		return outcomeKindUnknownLabelConstant
	}
}
