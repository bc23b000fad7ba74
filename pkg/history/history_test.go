package history

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/session"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

func sampleResult(id string, started time.Time) session.Result {
	return session.Result{
		ID:     id,
		Query:  "what is x",
		Model:  "gpt-4o",
		Status: stream.StatusCompleted,
		Stage:  stream.StageCompleted,
		Report: "The report.",
		Sources: []string{
			"https://example.com/a",
		},
		Transcript: []stream.Segment{
			{Kind: stream.SegmentStep, Text: "step one"},
		},
		Log:      []string{"[searcher] query issued"},
		Events:   5,
		Started:  started,
		Duration: 3 * time.Second,
	}
}

var _ = Describe("Store", func() {
	var (
		store *Store
		ctx   context.Context
	)

	BeforeEach(func() {
		var err error
		store, err = Open(":memory:")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { store.Close() })

		ctx = context.Background()
	})

	It("round-trips a session result", func() {
		started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		Expect(store.Save(ctx, sampleResult("s1", started))).To(Succeed())

		rec, err := store.Get(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Query).To(Equal("what is x"))
		Expect(rec.Status).To(Equal(stream.StatusCompleted))
		Expect(rec.Report).To(Equal("The report."))
		Expect(rec.Sources).To(Equal([]string{"https://example.com/a"}))
		Expect(rec.Transcript).To(HaveLen(1))
		Expect(rec.Log).To(Equal([]string{"[searcher] query issued"}))
		Expect(rec.Duration).To(Equal(3 * time.Second))
	})

	It("returns ErrNotFound for unknown IDs", func() {
		_, err := store.Get(ctx, "missing")
		Expect(err).To(MatchError(ErrNotFound))
	})

	It("replaces a record saved twice under the same ID", func() {
		started := time.Now().UTC()
		res := sampleResult("s1", started)
		Expect(store.Save(ctx, res)).To(Succeed())

		res.Report = "Updated report."
		Expect(store.Save(ctx, res)).To(Succeed())

		rec, err := store.Get(ctx, "s1")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.Report).To(Equal("Updated report."))

		records, err := store.List(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(1))
	})

	It("lists sessions newest-first and returns the latest", func() {
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		Expect(store.Save(ctx, sampleResult("old", base))).To(Succeed())
		Expect(store.Save(ctx, sampleResult("new", base.Add(time.Hour)))).To(Succeed())

		records, err := store.List(ctx, 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(2))
		Expect(records[0].ID).To(Equal("new"))

		latest, err := store.Latest(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(latest.ID).To(Equal("new"))
	})

	It("returns ErrNotFound from Latest on an empty archive", func() {
		_, err := store.Latest(ctx)
		Expect(err).To(MatchError(ErrNotFound))
	})
})
