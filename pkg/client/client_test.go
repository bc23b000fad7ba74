package client_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/client"
)

var _ = Describe("OpenStream", func() {
	It("posts the research request and yields the event stream", func() {
		var gotReq client.ResearchRequest
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/research/stream"))
			Expect(r.Header.Get("Accept")).To(Equal("text/event-stream"))
			Expect(json.NewDecoder(r.Body).Decode(&gotReq)).To(Succeed())

			w.Header().Set("Content-Type", "text/event-stream")
			io.WriteString(w, "data: {\"type\":\"research_started\"}\n\n")
			io.WriteString(w, "data: [DONE]\n\n")
		}))
		defer backend.Close()

		cl := client.New(backend.URL)
		stream, err := cl.OpenStream(context.Background(), client.ResearchRequest{
			Query: "quantum error correction",
			Model: "gpt-4o",
		}, nil)
		Expect(err).NotTo(HaveOccurred())
		defer stream.Close()

		Expect(gotReq.Query).To(Equal("quantum error correction"))
		Expect(gotReq.Model).To(Equal("gpt-4o"))

		ev, err := stream.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(ContainSubstring("research_started"))

		ev, err = stream.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Data).To(Equal("[DONE]"))
	})

	It("copies raw bytes into the capture writer", func() {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "data: {\"type\":\"token_usage\"}\n\n")
		}))
		defer backend.Close()

		var capture bytes.Buffer
		cl := client.New(backend.URL)
		stream, err := cl.OpenStream(context.Background(), client.ResearchRequest{Query: "q", Model: "m"}, &capture)
		Expect(err).NotTo(HaveOccurred())
		defer stream.Close()

		_, err = stream.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(capture.String()).To(ContainSubstring("token_usage"))
	})

	It("surfaces non-200 responses as StatusError", func() {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "query is required", http.StatusBadRequest)
		}))
		defer backend.Close()

		cl := client.New(backend.URL)
		_, err := cl.OpenStream(context.Background(), client.ResearchRequest{}, nil)
		Expect(err).To(HaveOccurred())

		var statusErr *client.StatusError
		Expect(err).To(BeAssignableToTypeOf(statusErr))
		statusErr = err.(*client.StatusError)
		Expect(statusErr.Code).To(Equal(http.StatusBadRequest))
		Expect(statusErr.Body).To(ContainSubstring("query is required"))
	})
})

var _ = Describe("SubmitComparison", func() {
	It("posts the run and accepts a 201", func() {
		var got client.CompareRequest
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/research/compare"))
			Expect(json.NewDecoder(r.Body).Decode(&got)).To(Succeed())
			w.WriteHeader(http.StatusCreated)
		}))
		defer backend.Close()

		cl := client.New(backend.URL)
		err := cl.SubmitComparison(context.Background(), client.CompareRequest{
			Query:  "compare me",
			Models: []string{"gpt-4o", "claude-sonnet-4"},
			Results: []client.CompareResult{
				{Model: "gpt-4o", Status: "completed", DurationSecs: 12.5, SourceCount: 3},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Models).To(HaveLen(2))
		Expect(got.Results[0].DurationSecs).To(BeNumerically("~", 12.5))
	})

	It("returns a StatusError on backend rejection", func() {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "at least two models required", http.StatusBadRequest)
		}))
		defer backend.Close()

		cl := client.New(backend.URL)
		err := cl.SubmitComparison(context.Background(), client.CompareRequest{Query: "q"})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("400"))
	})
})

var _ = Describe("ComparisonStats", func() {
	It("decodes the aggregate metrics", func() {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/research/comparison"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(client.ComparisonStats{
				TotalRuns: 4,
				Models: map[string]client.ModelStats{
					"gpt-4o": {Runs: 4, Completed: 3, Failed: 1, AvgDurationSecs: 20.5, AvgSources: 2.5},
				},
			})
		}))
		defer backend.Close()

		cl := client.New(backend.URL)
		stats, err := cl.ComparisonStats(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.TotalRuns).To(Equal(4))
		Expect(stats.Models["gpt-4o"].Completed).To(Equal(3))
		Expect(stats.Models["gpt-4o"].AvgDurationSecs).To(BeNumerically("~", 20.5))
	})

	It("fails on malformed JSON", func() {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "{not json")
		}))
		defer backend.Close()

		cl := client.New(backend.URL)
		_, err := cl.ComparisonStats(context.Background())
		Expect(err).To(HaveOccurred())
	})
})
