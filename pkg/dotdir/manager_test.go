package dotdir

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Manager", func() {
	var (
		m      *Manager
		tmpDir string
	)

	BeforeEach(func() {
		m = NewManager()
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(tmpDir) })
	})

	Describe("Target", func() {
		It("uses the override directory when provided", func() {
			override := filepath.Join(tmpDir, "custom")
			target, err := m.Target(override)
			Expect(err).NotTo(HaveOccurred())
			Expect(target).To(Equal(override))
			Expect(override).To(BeADirectory())
		})
	})

	Describe("last run state", func() {
		It("returns nil when no run has been recorded", func() {
			state, err := m.LoadLastRun(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips the last-run pointer", func() {
			in := &LastRun{
				SessionID:  "abc-123",
				Query:      "what is x",
				Model:      "gpt-4o",
				Status:     "completed",
				FinishedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			}
			Expect(m.SaveLastRun(in, tmpDir)).To(Succeed())

			out, err := m.LoadLastRun(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(in))
		})

		It("clears the pointer idempotently", func() {
			Expect(m.SaveLastRun(&LastRun{SessionID: "x"}, tmpDir)).To(Succeed())
			Expect(m.ClearLastRun(tmpDir)).To(Succeed())
			Expect(m.ClearLastRun(tmpDir)).To(Succeed())

			state, err := m.LoadLastRun(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("rejects saving a nil pointer", func() {
			Expect(m.SaveLastRun(nil, tmpDir)).NotTo(Succeed())
		})
	})
})
