package replay

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
)

func jsonRequest(method, path string, payload any) *http.Request {
	body, err := json.Marshal(payload)
	Expect(err).NotTo(HaveOccurred())
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

var _ = Describe("Server", func() {
	var server *Server

	BeforeEach(func() {
		server = NewServer(Config{ListenAddr: ":0"}, nil, zap.NewNop())
	})

	Describe("stream replay", func() {
		It("replays the fixture as SSE data lines ending with the done sentinel", func() {
			req := jsonRequest(http.MethodPost, "/research/stream", client.ResearchRequest{
				Query: "what is x",
				Model: "gpt-4o",
			})

			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("text/event-stream"))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			text := string(body)
			Expect(strings.Count(text, "data: ")).To(Equal(len(DemoFixture().Lines) + 1))
			Expect(text).To(ContainSubstring(`"type":"research_complete"`))
			Expect(text).To(HaveSuffix("data: [DONE]\n\n"))
		})

		It("rejects a request without a query", func() {
			req := jsonRequest(http.MethodPost, "/research/stream", client.ResearchRequest{Model: "gpt-4o"})

			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("comparison endpoints", func() {
		submit := func(model, status string, duration float64, sources int) {
			req := jsonRequest(http.MethodPost, "/research/compare", client.CompareRequest{
				Query:  "what is x",
				Models: []string{model},
				Results: []client.CompareResult{
					{Model: model, Status: status, DurationSecs: duration, SourceCount: sources},
				},
			})
			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		}

		It("aggregates submissions into per-model stats", func() {
			submit("gpt-4o", "completed", 10, 4)
			submit("gpt-4o", "failed", 20, 0)
			submit("claude-sonnet-4", "completed", 5, 2)

			req := httptest.NewRequest(http.MethodGet, "/research/comparison", nil)
			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			stats := client.ComparisonStats{}
			Expect(json.NewDecoder(resp.Body).Decode(&stats)).To(Succeed())

			Expect(stats.TotalRuns).To(Equal(3))
			Expect(stats.Models["gpt-4o"].Runs).To(Equal(2))
			Expect(stats.Models["gpt-4o"].Completed).To(Equal(1))
			Expect(stats.Models["gpt-4o"].Failed).To(Equal(1))
			Expect(stats.Models["gpt-4o"].AvgDurationSecs).To(BeNumerically("==", 15))
			Expect(stats.Models["gpt-4o"].AvgSources).To(BeNumerically("==", 2))
			Expect(stats.Models["claude-sonnet-4"].Runs).To(Equal(1))
		})

		It("rejects a submission without models", func() {
			req := jsonRequest(http.MethodPost, "/research/compare", client.CompareRequest{Query: "q"})
			resp, err := server.app.Test(req, -1)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("LoadFixture", func() {
	It("loads JSONL events and skips blanks and comments", func() {
		path := filepath.Join(GinkgoT().TempDir(), "fixture.jsonl")
		content := "# a scripted run\n" +
			`{"type":"stage_start","stage":"clarification"}` + "\n" +
			"\n" +
			`{"type":"research_complete","stage":"completed"}` + "\n"
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())

		fixture, err := LoadFixture(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(fixture.Lines).To(HaveLen(2))
		Expect(fixture.Lines[0]).To(ContainSubstring("stage_start"))
	})

	It("rejects files with invalid JSON lines", func() {
		path := filepath.Join(GinkgoT().TempDir(), "bad.jsonl")
		Expect(os.WriteFile(path, []byte("not json\n"), 0o644)).To(Succeed())

		_, err := LoadFixture(path)
		Expect(err).To(MatchError(ContainSubstring("line 1")))
	})

	It("rejects empty fixtures", func() {
		path := filepath.Join(GinkgoT().TempDir(), "empty.jsonl")
		Expect(os.WriteFile(path, []byte("# only comments\n"), 0o644)).To(Succeed())

		_, err := LoadFixture(path)
		Expect(err).To(MatchError(ContainSubstring("no events")))
	})
})
