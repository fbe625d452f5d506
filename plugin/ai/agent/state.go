package agent

// State is a step of the per-turn state machine:
// START -> HISTORY_LOADED -> DECIDED -> TOOL_EXECUTING|DIRECT -> PERSISTED -> REPLIED.
type State string

const (
	StateStart         State = "START"
	StateHistoryLoaded State = "HISTORY_LOADED"
	StateDecided       State = "DECIDED"
	StateToolExecuting State = "TOOL_EXECUTING"
	StateDirect        State = "DIRECT"
	StatePersisted     State = "PERSISTED"
	StateReplied       State = "REPLIED"
)

// StateObserver is notified on every state transition of a turn.
type StateObserver func(sessionID string, s State)
