package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

// sseHandler writes each line as one SSE data event and flushes between
// events, mimicking the backend's chunked response.
func sseHandler(lines ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, line := range lines {
			fmt.Fprintf(w, "data: %s\n\n", line)
			flusher.Flush()
		}
	}
}

var _ = Describe("Session", func() {
	It("completes on research_complete", func() {
		srv := httptest.NewServer(sseHandler(
			`{"type":"stage_start","stage":"clarification"}`,
			`{"type":"research_step","content":"Found paper at https://example.com/x"}`,
			`{"type":"research_complete","content":"Done."}`,
		))
		defer srv.Close()

		s := New("what is x", "gpt-4o")
		err := s.Run(context.Background(), client.New(srv.URL), "test-key")
		Expect(err).NotTo(HaveOccurred())

		result := s.Result()
		Expect(result.Status).To(Equal(stream.StatusCompleted))
		Expect(result.Report).To(Equal("Done."))
		Expect(result.Sources).To(Equal([]string{"https://example.com/x"}))
	})

	It("fails on a backend error event without a transport error", func() {
		srv := httptest.NewServer(sseHandler(
			`{"type":"error","error":"rate limit exceeded"}`,
		))
		defer srv.Close()

		s := New("q", "gpt-4o")
		err := s.Run(context.Background(), client.New(srv.URL), "")
		Expect(err).NotTo(HaveOccurred())

		result := s.Result()
		Expect(result.Status).To(Equal(stream.StatusFailed))
		Expect(result.Error).To(Equal("rate limit exceeded"))
		Expect(result.Retryable).To(BeTrue())
	})

	It("surfaces a non-2xx response as a failed session", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such model", http.StatusBadRequest)
		}))
		defer srv.Close()

		s := New("q", "bogus")
		err := s.Run(context.Background(), client.New(srv.URL), "")
		Expect(err).To(HaveOccurred())

		statusErr := &client.StatusError{}
		Expect(err).To(BeAssignableToTypeOf(statusErr))
		Expect(s.Result().Status).To(Equal(stream.StatusFailed))
	})

	It("marks the session failed when the stream ends without a terminal event", func() {
		srv := httptest.NewServer(sseHandler(
			`{"type":"research_step","content":"partial"}`,
		))
		defer srv.Close()

		s := New("q", "gpt-4o")
		err := s.Run(context.Background(), client.New(srv.URL), "")
		Expect(err).To(HaveOccurred())

		result := s.Result()
		Expect(result.Status).To(Equal(stream.StatusFailed))
		Expect(result.Transcript).To(HaveLen(1))
	})

	It("keeps folded state and marks the session stopped on cancel", func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			fmt.Fprintf(w, "data: %s\n\n", `{"type":"research_step","content":"see https://example.com/y"}`)
			flusher.Flush()
			<-release
		}))
		defer srv.Close()
		defer close(release)

		ctx, cancel := context.WithCancel(context.Background())

		applied := make(chan struct{}, 1)
		s := New("q", "gpt-4o", WithUpdateFunc(func(snap stream.Snapshot) {
			select {
			case applied <- struct{}{}:
			default:
			}
		}))

		done := make(chan error, 1)
		go func() { done <- s.Run(ctx, client.New(srv.URL), "") }()

		Eventually(applied).Should(Receive())
		cancel()
		Eventually(done, 5*time.Second).Should(Receive(BeNil()))

		result := s.Result()
		Expect(result.Status).To(Equal(stream.StatusStopped))
		Expect(result.Error).To(BeEmpty())
		Expect(result.Sources).To(Equal([]string{"https://example.com/y"}))
		Expect(result.Transcript).To(HaveLen(1))
	})

	It("isolates concurrent sessions from each other", func() {
		okSrv := httptest.NewServer(sseHandler(
			`{"type":"research_complete","content":"All good."}`,
		))
		defer okSrv.Close()

		failSrv := httptest.NewServer(sseHandler(
			`{"type":"error","error":"model unavailable"}`,
		))
		defer failSrv.Close()

		good := New("q", "model-a")
		bad := New("q", "model-b")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = good.Run(context.Background(), client.New(okSrv.URL), "")
		}()
		go func() {
			defer wg.Done()
			_ = bad.Run(context.Background(), client.New(failSrv.URL), "")
		}()
		wg.Wait()

		Expect(good.Result().Status).To(Equal(stream.StatusCompleted))
		Expect(good.Result().Error).To(BeEmpty())
		Expect(bad.Result().Status).To(Equal(stream.StatusFailed))
		Expect(bad.Result().Error).To(Equal("model unavailable"))
	})

	It("captures the raw wire bytes for diagnostics", func() {
		srv := httptest.NewServer(sseHandler(
			`{"type":"research_complete","content":"Done."}`,
		))
		defer srv.Close()

		s := New("q", "gpt-4o")
		Expect(s.Run(context.Background(), client.New(srv.URL), "")).To(Succeed())
		Expect(string(s.RawStream())).To(ContainSubstring("research_complete"))
	})
})
