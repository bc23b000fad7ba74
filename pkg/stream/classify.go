package stream

// Action is the single routing decision for an event. Classification is a
// static lookup so the mapping stays total and unit-testable apart from
// rendering: every event type resolves to exactly one Action, and types the
// table has never seen resolve to ActionUnknown.
type Action int

const (
	// ActionUnknown marks event types not present in the table. The reducer
	// ignores their content but records a diagnostics log line.
	ActionUnknown Action = iota

	// ActionIgnore drops the event entirely (keep-alives and the like).
	ActionIgnore

	// ActionTranscript appends the event's content to the transcript.
	ActionTranscript

	// ActionLog appends a formatted line to the bounded API-call log.
	ActionLog

	// ActionSources merges the event's content into the source set only.
	ActionSources

	// ActionReport offers the event's content as a final-report candidate.
	ActionReport

	// ActionComplete is the successful terminal event.
	ActionComplete

	// ActionError is the failing terminal event.
	ActionError
)

var actionsByType = map[string]Action{
	TypeStageStart:       ActionTranscript,
	TypeStageUpdate:      ActionTranscript,
	TypeClarification:    ActionTranscript,
	TypeMessage:          ActionTranscript,
	TypeResearchStep:     ActionTranscript,
	TypeAPICall:          ActionLog,
	TypeTokenUsage:       ActionLog,
	TypeSources:          ActionSources,
	TypeFinalReport:      ActionReport,
	TypeResearchComplete: ActionComplete,
	TypeError:            ActionError,
	TypeHeartbeat:        ActionIgnore,
	TypePing:             ActionIgnore,
}

// Classify maps an event to its routing action.
func Classify(ev *Event) Action {
	if a, ok := actionsByType[ev.Type]; ok {
		return a
	}
	return ActionUnknown
}
