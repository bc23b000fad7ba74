// Package session ties one research query submission to its event stream
// and reducer. A Session owns its reducer exclusively for its lifetime:
// created on submit, terminated on completion, backend error, or user
// abort, after which its final state can be archived and exported.
package session

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

// doneSentinel is the stream terminator some backends emit after the last
// event. It is not an event and is never handed to the reducer.
const doneSentinel = "[DONE]"

// UpdateFunc observes the session state after each folded event. It runs on
// the stream loop goroutine, interleaved with event processing.
type UpdateFunc func(stream.Snapshot)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithUpdateFunc registers a render callback.
func WithUpdateFunc(fn UpdateFunc) Option {
	return func(s *Session) { s.onUpdate = fn }
}

// WithReducerOptions forwards options to the session's reducer.
func WithReducerOptions(opts ...stream.Option) Option {
	return func(s *Session) { s.reducerOpts = opts }
}

// Session is the lifetime of one query submission.
type Session struct {
	ID      string
	Query   string
	Model   string
	Started time.Time

	logger      *zap.Logger
	onUpdate    UpdateFunc
	reducerOpts []stream.Option

	reducer  *stream.Reducer
	raw      bytes.Buffer
	duration time.Duration
}

// New creates a Session for one query against one model.
func New(query, model string, opts ...Option) *Session {
	s := &Session{
		ID:     uuid.NewString(),
		Query:  query,
		Model:  model,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reducer = stream.NewReducer(append([]stream.Option{stream.WithLogger(s.logger)}, s.reducerOpts...)...)
	return s
}

// Run opens the stream and folds events until a terminal state. It always
// leaves the session in a terminal state:
//
//   - research_complete or error events terminate via the reducer;
//   - context cancellation marks the session stopped, keeping folded state;
//   - transport failures (connect errors, non-2xx, mid-stream drops) mark
//     the session failed with the raw message.
//
// The returned error is non-nil only for transport failures; backend error
// events and user cancellation are normal terminal outcomes.
func (s *Session) Run(ctx context.Context, c *client.Client, apiKey string) error {
	s.Started = time.Now()
	defer func() { s.duration = time.Since(s.Started) }()

	st, err := c.OpenStream(ctx, client.ResearchRequest{
		Query:  s.Query,
		Model:  s.Model,
		APIKey: apiKey,
	}, &s.raw)
	if err != nil {
		if ctx.Err() != nil {
			s.reducer.Stop()
			return nil
		}
		s.reducer.Fail(err.Error())
		return err
	}
	defer st.Close()

	for {
		ev, err := st.Next()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				s.reducer.Stop()
				s.notify()
				return nil
			}
			s.reducer.Fail("reading stream: " + err.Error())
			s.notify()
			return err
		}

		if ev == nil {
			// Stream ended. Without a terminal event that is a failure,
			// not a completion.
			if !s.reducer.Status().Terminal() {
				s.reducer.Fail("stream ended before completion")
				s.notify()
				return errors.New("stream ended before completion")
			}
			return nil
		}

		if ev.Data == "" || ev.Data == doneSentinel {
			continue
		}

		s.reducer.ApplyLine([]byte(ev.Data))
		s.notify()

		if s.reducer.Status().Terminal() {
			return nil
		}
	}
}

func (s *Session) notify() {
	if s.onUpdate != nil {
		s.onUpdate(s.reducer.Snapshot())
	}
}

// Snapshot returns the current reducer state.
func (s *Session) Snapshot() stream.Snapshot {
	return s.reducer.Snapshot()
}

// RawStream returns the captured wire bytes for diagnostics.
func (s *Session) RawStream() []byte {
	return s.raw.Bytes()
}

// Result summarizes a terminal session.
type Result struct {
	ID          string
	Query       string
	Model       string
	Status      stream.Status
	Stage       string
	Report      string
	Sources     []string
	Transcript  []stream.Segment
	Log         []string
	Error       string
	Retryable   bool
	Events      int
	ParseErrors int
	Started     time.Time
	Duration    time.Duration
}

// Result captures the session's terminal state for archiving, export, and
// comparison aggregation.
func (s *Session) Result() Result {
	snap := s.reducer.Snapshot()
	return Result{
		ID:          s.ID,
		Query:       s.Query,
		Model:       s.Model,
		Status:      snap.Status,
		Stage:       snap.Stage,
		Report:      snap.Report,
		Sources:     snap.Sources,
		Transcript:  snap.Transcript,
		Log:         snap.FullLog,
		Error:       snap.Error,
		Retryable:   snap.Retryable,
		Events:      snap.Events,
		ParseErrors: snap.ParseErrors,
		Started:     s.Started,
		Duration:    s.duration,
	}
}
