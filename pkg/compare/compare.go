// Package compare orchestrates multi-model comparison runs. Each model
// gets its own session with its own network connection and isolated
// reducer state, so no locking is needed between them; the runner only
// waits for every session to reach a terminal state before aggregating.
package compare

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/session"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

// KeyFunc resolves the API key to send for a given model. Returning an
// empty string sends no key.
type KeyFunc func(model string) string

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithTimeout bounds each model's session. Zero means no internal timeout;
// the transport and the caller's context still apply.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithKeyFunc sets the per-model API key resolver.
func WithKeyFunc(fn KeyFunc) Option {
	return func(r *Runner) { r.keys = fn }
}

// WithSessionOptions forwards options to every session the runner creates.
func WithSessionOptions(opts ...session.Option) Option {
	return func(r *Runner) { r.sessionOpts = opts }
}

// Runner executes comparison runs against one backend.
type Runner struct {
	client      *client.Client
	logger      *zap.Logger
	timeout     time.Duration
	keys        KeyFunc
	sessionOpts []session.Option
}

// NewRunner creates a Runner.
func NewRunner(c *client.Client, opts ...Option) *Runner {
	r := &Runner{
		client: c,
		logger: zap.NewNop(),
		keys:   func(string) string { return "" },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Summary aggregates the terminal results of one comparison run.
type Summary struct {
	Query     string
	Results   []session.Result
	Completed int
	Failed    int
	Stopped   int

	// Fastest is the model of the quickest completed session, empty when
	// nothing completed.
	Fastest string

	Elapsed time.Duration
}

// Run fires one session per model concurrently and blocks until all reach
// a terminal state. Cancelling the parent context stops every session;
// one session's failure or cancellation never affects its siblings.
// Results are returned in the order models were given.
func (r *Runner) Run(ctx context.Context, query string, models []string) *Summary {
	start := time.Now()
	results := make([]session.Result, len(models))

	var wg sync.WaitGroup
	wg.Add(len(models))
	for i, model := range models {
		go func(i int, model string) {
			defer wg.Done()

			sessCtx := ctx
			var cancel context.CancelFunc
			if r.timeout > 0 {
				sessCtx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}

			s := session.New(query, model, append([]session.Option{session.WithLogger(r.logger)}, r.sessionOpts...)...)
			if err := s.Run(sessCtx, r.client, r.keys(model)); err != nil {
				r.logger.Debug("comparison session failed",
					zap.String("model", model),
					zap.Error(err),
				)
			}
			results[i] = s.Result()
		}(i, model)
	}
	wg.Wait()

	summary := &Summary{
		Query:   query,
		Results: results,
		Elapsed: time.Since(start),
	}

	var fastest time.Duration
	for _, res := range results {
		switch res.Status {
		case stream.StatusCompleted:
			summary.Completed++
			if summary.Fastest == "" || res.Duration < fastest {
				summary.Fastest = res.Model
				fastest = res.Duration
			}
		case stream.StatusFailed:
			summary.Failed++
		case stream.StatusStopped:
			summary.Stopped++
		}
	}

	return summary
}

// CompareRequest converts the summary into the backend's comparison
// submission format.
func (s *Summary) CompareRequest() client.CompareRequest {
	req := client.CompareRequest{
		Query:   s.Query,
		Models:  make([]string, 0, len(s.Results)),
		Results: make([]client.CompareResult, 0, len(s.Results)),
	}
	for _, res := range s.Results {
		req.Models = append(req.Models, res.Model)
		req.Results = append(req.Results, client.CompareResult{
			Model:        res.Model,
			Status:       string(res.Status),
			DurationSecs: res.Duration.Seconds(),
			Events:       res.Events,
			SourceCount:  len(res.Sources),
			ReportLength: len(res.Report),
			Error:        res.Error,
		})
	}
	return req
}
