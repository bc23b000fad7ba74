package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

// perModelBackend streams a different scripted outcome depending on the
// model named in the request body.
func perModelBackend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req client.ResearchRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		switch req.Model {
		case "good-model":
			fmt.Fprintf(w, "data: %s\n\n", `{"type":"research_step","content":"see https://example.com/good"}`)
			fmt.Fprintf(w, "data: %s\n\n", `{"type":"research_complete","content":"Good report."}`)
		case "slow-model":
			flusher.Flush()
			<-r.Context().Done()
		default:
			fmt.Fprintf(w, "data: %s\n\n", `{"type":"error","error":"model unavailable"}`)
		}
		flusher.Flush()
	}
}

var _ = Describe("Runner", func() {
	var srv *httptest.Server

	BeforeEach(func() {
		srv = httptest.NewServer(perModelBackend())
		DeferCleanup(srv.Close)
	})

	It("aggregates isolated per-model terminal states", func() {
		runner := NewRunner(client.New(srv.URL))
		summary := runner.Run(context.Background(), "q", []string{"good-model", "bad-model"})

		Expect(summary.Results).To(HaveLen(2))
		Expect(summary.Results[0].Model).To(Equal("good-model"))
		Expect(summary.Results[0].Status).To(Equal(stream.StatusCompleted))
		Expect(summary.Results[0].Report).To(Equal("Good report."))
		Expect(summary.Results[1].Status).To(Equal(stream.StatusFailed))
		Expect(summary.Results[1].Error).To(Equal("model unavailable"))

		Expect(summary.Completed).To(Equal(1))
		Expect(summary.Failed).To(Equal(1))
		Expect(summary.Fastest).To(Equal("good-model"))
	})

	It("times out a stuck model without affecting its siblings", func() {
		runner := NewRunner(client.New(srv.URL), WithTimeout(200*time.Millisecond))
		summary := runner.Run(context.Background(), "q", []string{"good-model", "slow-model"})

		Expect(summary.Results[0].Status).To(Equal(stream.StatusCompleted))
		Expect(summary.Results[1].Status).To(Equal(stream.StatusStopped))
		Expect(summary.Stopped).To(Equal(1))
	})

	It("resolves API keys per model", func() {
		seen := make(chan string, 2)
		keySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req client.ResearchRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			seen <- req.APIKey
			fmt.Fprintf(w, "data: %s\n\n", `{"type":"research_complete","content":"ok"}`)
		}))
		defer keySrv.Close()

		runner := NewRunner(client.New(keySrv.URL), WithKeyFunc(func(model string) string {
			return "key-for-" + model
		}))
		runner.Run(context.Background(), "q", []string{"a", "b"})

		Expect([]string{<-seen, <-seen}).To(ConsistOf("key-for-a", "key-for-b"))
	})

	It("converts a summary into a comparison submission", func() {
		runner := NewRunner(client.New(srv.URL))
		summary := runner.Run(context.Background(), "q", []string{"good-model", "bad-model"})

		req := summary.CompareRequest()
		Expect(req.Query).To(Equal("q"))
		Expect(req.Models).To(Equal([]string{"good-model", "bad-model"}))
		Expect(req.Results[0].Status).To(Equal("completed"))
		Expect(req.Results[0].SourceCount).To(Equal(1))
		Expect(req.Results[1].Error).To(Equal("model unavailable"))
	})
})
