// Package replay is a local stand-in for the research backend. It replays
// a scripted event fixture over the same streaming endpoint the real
// backend serves, so the client, reducer, and TUI can be exercised without
// a live agent. Comparison submissions are kept in memory.
package replay

import (
	"bufio"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
)

// doneSentinel terminates a replayed stream, matching the real backend.
const doneSentinel = "[DONE]"

// Config holds the replay server settings.
type Config struct {
	// ListenAddr is the address to serve on, e.g. ":8090".
	ListenAddr string
	// Delay is the pause between replayed events. Zero replays at full speed.
	Delay time.Duration
}

// Server replays a fixture as a research event stream.
type Server struct {
	config  Config
	fixture *Fixture
	logger  *zap.Logger
	app     *fiber.App

	mu          sync.Mutex
	comparisons []client.CompareRequest
}

// NewServer creates a replay server for the given fixture.
// A nil fixture falls back to the built-in demo script.
func NewServer(config Config, fixture *Fixture, logger *zap.Logger) *Server {
	if fixture == nil {
		fixture = DemoFixture()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		fixture: fixture,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/research/stream", s.handleStream)
	app.Post("/research/compare", s.handleCompare)
	app.Get("/research/comparison", s.handleComparison)

	return s
}

// Run starts the replay server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting replay server",
		zap.String("listen", s.config.ListenAddr),
		zap.Int("fixture_events", len(s.fixture.Lines)),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the replay server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleStream replays the fixture as a server-sent event stream.
func (s *Server) handleStream(c *fiber.Ctx) error {
	req := client.ResearchRequest{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query is required"})
	}

	s.logger.Info("replaying stream",
		zap.String("query", req.Query),
		zap.String("model", req.Model),
	)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	lines := s.fixture.Lines
	delay := s.config.Delay

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		for _, line := range lines {
			if _, err := w.WriteString("data: " + line + "\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// Client went away mid-replay.
				return
			}
			if delay > 0 {
				time.Sleep(delay)
			}
		}
		_, _ = w.WriteString("data: " + doneSentinel + "\n\n")
		_ = w.Flush()
	})

	return nil
}

// handleCompare records a comparison submission.
func (s *Server) handleCompare(c *fiber.Ctx) error {
	req := client.CompareRequest{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Query == "" || len(req.Models) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "query and models are required"})
	}

	s.mu.Lock()
	s.comparisons = append(s.comparisons, req)
	s.mu.Unlock()

	s.logger.Info("recorded comparison",
		zap.String("query", req.Query),
		zap.Strings("models", req.Models),
	)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"recorded": true})
}

// handleComparison aggregates every recorded submission into per-model stats.
func (s *Server) handleComparison(c *fiber.Ctx) error {
	s.mu.Lock()
	recorded := make([]client.CompareRequest, len(s.comparisons))
	copy(recorded, s.comparisons)
	s.mu.Unlock()

	type tally struct {
		runs      int
		completed int
		failed    int
		duration  float64
		sources   int
	}
	tallies := map[string]*tally{}

	for _, cmp := range recorded {
		for _, res := range cmp.Results {
			t := tallies[res.Model]
			if t == nil {
				t = &tally{}
				tallies[res.Model] = t
			}
			t.runs++
			switch res.Status {
			case "completed":
				t.completed++
			case "failed":
				t.failed++
			}
			t.duration += res.DurationSecs
			t.sources += res.SourceCount
		}
	}

	stats := client.ComparisonStats{
		TotalRuns: len(recorded),
		Models:    make(map[string]client.ModelStats, len(tallies)),
	}
	for model, t := range tallies {
		stats.Models[model] = client.ModelStats{
			Runs:            t.runs,
			Completed:       t.completed,
			Failed:          t.failed,
			AvgDurationSecs: t.duration / float64(t.runs),
			AvgSources:      float64(t.sources) / float64(t.runs),
		}
	}

	return c.JSON(stats)
}
