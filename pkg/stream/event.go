// Package stream implements the event reducer that folds a research
// backend's server-sent event stream into renderable session state:
// a running transcript, the current workflow stage, a bounded API-call
// log, the set of source URLs seen so far, and the final report.
//
// The reducer is single-threaded and driven one event at a time by the
// transport. It never fails on malformed or unknown input; bad lines are
// dropped and counted, unknown event types fall through to a diagnostics
// log entry.
package stream

import "encoding/json"

// Event is one parsed line of the research stream. Only Type is
// guaranteed to be present; every other field is optional and untrusted.
type Event struct {
	Type      string         `json:"type"`
	Stage     string         `json:"stage,omitempty"`
	Content   string         `json:"content,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
	NodeName  string         `json:"node_name,omitempty"`
	Error     string         `json:"error,omitempty"`
	Duration  float64        `json:"duration,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Known event types emitted by the research backend.
const (
	TypeStageStart       = "stage_start"
	TypeStageUpdate      = "stage_update"
	TypeClarification    = "clarification"
	TypeMessage          = "message"
	TypeResearchStep     = "research_step"
	TypeAPICall          = "api_call"
	TypeTokenUsage       = "token_usage"
	TypeSources          = "sources"
	TypeFinalReport      = "final_report"
	TypeResearchComplete = "research_complete"
	TypeError            = "error"
	TypeHeartbeat        = "heartbeat"
	TypePing             = "ping"
)

// Known workflow stages. Stages are advisory display labels: the reducer
// tracks whatever string the backend sends and never gates on these values.
const (
	StageClarification     = "clarification"
	StageResearchBrief     = "research_brief"
	StageResearchExecution = "research_execution"
	StageFinalReport       = "final_report"
	StageCompleted         = "completed"
)

// ParseEvent decodes one stream line into an Event. A line that is not a
// JSON object, or whose fields carry the wrong types, yields an error and
// the caller is expected to drop the line and continue.
func ParseEvent(line []byte) (*Event, error) {
	ev := &Event{}
	if err := json.Unmarshal(line, ev); err != nil {
		return nil, err
	}
	return ev, nil
}
