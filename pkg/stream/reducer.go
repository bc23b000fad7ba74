package stream

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Status is the lifecycle state of one session's reducer.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

// Terminal reports whether the status is one of the end states.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusStopped
}

// Segment is one rendered transcript entry.
type Segment struct {
	Kind  string `json:"kind"`
	Stage string `json:"stage,omitempty"`
	Text  string `json:"text"`
}

// Segment kinds.
const (
	SegmentStage   = "stage"
	SegmentStep    = "step"
	SegmentMessage = "message"
)

const (
	defaultLogCapacity    = 256
	defaultTypingDecay    = 2 * time.Second
	defaultTranscriptTail = 50
)

// Option configures a Reducer.
type Option func(*Reducer)

// WithLogCapacity bounds the API-call log ring.
func WithLogCapacity(n int) Option {
	return func(r *Reducer) { r.logs = NewLogBuffer(n) }
}

// WithTypingDecay overrides the typing-indicator decay window.
func WithTypingDecay(d time.Duration) Option {
	return func(r *Reducer) { r.typingDecay = d }
}

// WithTranscriptTail sets how many transcript segments TranscriptTail
// returns for live rendering. The full transcript is always retained.
func WithTranscriptTail(n int) Option {
	return func(r *Reducer) { r.transcriptTail = n }
}

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Reducer) { r.now = now }
}

// WithLogger sets the diagnostics logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Reducer) { r.logger = logger }
}

// Reducer folds one session's event stream into renderable state. It is
// owned by a single goroutine: the transport loop applies events in arrival
// order, interleaved with snapshot reads from the same loop.
type Reducer struct {
	logger *zap.Logger
	now    func() time.Time

	typingDecay    time.Duration
	transcriptTail int

	stage       string
	typingUntil time.Time
	transcript  []Segment
	logs        *LogBuffer
	sources     *SourceSet
	report      reportSelector

	status      Status
	errMsg      string
	events      int
	parseErrors int
}

// NewReducer creates a Reducer in the running state.
func NewReducer(opts ...Option) *Reducer {
	r := &Reducer{
		logger:         zap.NewNop(),
		now:            time.Now,
		typingDecay:    defaultTypingDecay,
		transcriptTail: defaultTranscriptTail,
		logs:           NewLogBuffer(defaultLogCapacity),
		sources:        NewSourceSet(),
		status:         StatusRunning,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ApplyLine parses one raw stream line and applies it. Malformed lines are
// dropped, counted, and logged at debug level; processing continues.
func (r *Reducer) ApplyLine(line []byte) {
	ev, err := ParseEvent(line)
	if err != nil {
		r.parseErrors++
		r.logger.Debug("dropping malformed event line",
			zap.Error(err),
			zap.Int("parse_errors", r.parseErrors),
		)
		return
	}
	r.Apply(ev)
}

// Apply folds one event into the session state. Events arriving after a
// terminal state are ignored.
func (r *Reducer) Apply(ev *Event) {
	if ev == nil || r.status.Terminal() {
		return
	}
	r.events++

	// Stage tracking is last-write-wins and refreshes the typing window.
	if ev.Stage != "" {
		r.stage = ev.Stage
		r.typingUntil = r.now().Add(r.typingDecay)
	}

	// Source extraction runs on every content-bearing event, whatever
	// the classification says.
	r.sources.Scan(ev.Content)
	r.sources.Scan(ev.Error)

	// Anything with content is a last-resort report candidate.
	r.report.observe(ev.Content)

	// Content carried while in the final_report stage is the most
	// authoritative candidate, regardless of event type.
	if ev.Stage == StageFinalReport || ev.Type == TypeFinalReport {
		r.report.offer(priorityStage, ev.Content)
	}

	switch Classify(ev) {
	case ActionTranscript:
		r.appendTranscript(ev)

	case ActionLog:
		r.logs.Append(formatLogLine(ev))

	case ActionSources:
		// Already scanned above.

	case ActionReport:
		// Offered above via the final_report stage path.

	case ActionComplete:
		r.report.offer(priorityComplete, ev.Content)
		r.finish(StatusCompleted, "")

	case ActionError:
		msg := ev.Error
		if msg == "" {
			msg = ev.Content
		}
		if msg == "" {
			msg = "the research backend reported an unspecified error"
		}
		r.finish(StatusFailed, msg)

	case ActionIgnore:
		// Keep-alive traffic.

	case ActionUnknown:
		r.logs.Append(fmt.Sprintf("unhandled event type %q", ev.Type))
		r.logger.Debug("ignoring unknown event type", zap.String("type", ev.Type))
	}
}

// Fail records a transport-level failure (connection drop, non-2xx status)
// as the terminal state. Already-folded state is kept.
func (r *Reducer) Fail(msg string) {
	if r.status.Terminal() {
		return
	}
	r.finish(StatusFailed, msg)
}

// Stop records a user cancellation. Not an error: folded state is kept
// and the status becomes stopped.
func (r *Reducer) Stop() {
	if r.status.Terminal() {
		return
	}
	r.finish(StatusStopped, "")
}

// finish transitions to a terminal state and clears in-flight indicators
// so no terminal path leaves the typing marker stuck on.
func (r *Reducer) finish(status Status, errMsg string) {
	r.status = status
	r.errMsg = errMsg
	r.typingUntil = time.Time{}
}

func (r *Reducer) appendTranscript(ev *Event) {
	switch ev.Type {
	case TypeStageStart:
		text := ev.Content
		if text == "" {
			text = fmt.Sprintf("entering stage %s", ev.Stage)
		}
		r.transcript = append(r.transcript, Segment{Kind: SegmentStage, Stage: ev.Stage, Text: text})
	case TypeClarification, TypeMessage:
		if ev.Content != "" {
			r.transcript = append(r.transcript, Segment{Kind: SegmentMessage, Stage: ev.Stage, Text: ev.Content})
		}
	default:
		if ev.Content != "" {
			r.transcript = append(r.transcript, Segment{Kind: SegmentStep, Stage: ev.Stage, Text: ev.Content})
		}
	}
}

func formatLogLine(ev *Event) string {
	node := ev.NodeName
	if node == "" {
		node = ev.Type
	}
	if ev.Duration > 0 {
		return fmt.Sprintf("[%s] %s (%.2fs)", node, ev.Content, ev.Duration)
	}
	return fmt.Sprintf("[%s] %s", node, ev.Content)
}

// Snapshot is an immutable view of the reducer state for rendering and
// export. Slices are copies; mutating them does not affect the reducer.
type Snapshot struct {
	Status      Status
	Stage       string
	Typing      bool
	Transcript  []Segment
	LogTail     []string
	FullLog     []string
	Sources     []string
	Report      string
	Error       string
	Retryable   bool
	Events      int
	ParseErrors int
}

// Snapshot captures the current state. For a running session Report holds
// the best candidate so far (possibly empty); for a terminal session it is
// the final selection including the fallback.
func (r *Reducer) Snapshot() Snapshot {
	transcript := make([]Segment, len(r.transcript))
	copy(transcript, r.transcript)

	report := r.report.selected()
	if r.status == StatusCompleted {
		report = r.report.final()
	}

	return Snapshot{
		Status:      r.status,
		Stage:       r.stage,
		Typing:      r.status == StatusRunning && r.now().Before(r.typingUntil),
		Transcript:  transcript,
		LogTail:     r.logs.Tail(),
		FullLog:     r.logs.All(),
		Sources:     r.sources.URLs(),
		Report:      report,
		Error:       r.errMsg,
		Retryable:   r.errMsg != "" && Retryable(r.errMsg),
		Events:      r.events,
		ParseErrors: r.parseErrors,
	}
}

// TranscriptTail returns the last configured window of transcript segments
// for live rendering.
func (r *Reducer) TranscriptTail() []Segment {
	n := len(r.transcript)
	if n > r.transcriptTail {
		n = r.transcriptTail
	}
	out := make([]Segment, n)
	copy(out, r.transcript[len(r.transcript)-n:])
	return out
}

// Status returns the current lifecycle state.
func (r *Reducer) Status() Status {
	return r.status
}
