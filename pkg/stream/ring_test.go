package stream

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LogBuffer", func() {
	It("returns appended lines oldest-first before filling", func() {
		b := NewLogBuffer(4)
		b.Append("one")
		b.Append("two")

		Expect(b.Tail()).To(Equal([]string{"one", "two"}))
		Expect(b.Len()).To(Equal(2))
	})

	It("evicts the oldest entries once full", func() {
		b := NewLogBuffer(3)
		for i := 1; i <= 5; i++ {
			b.Append(fmt.Sprintf("line %d", i))
		}

		Expect(b.Tail()).To(Equal([]string{"line 3", "line 4", "line 5"}))
	})

	It("retains the full log for export", func() {
		b := NewLogBuffer(2)
		for i := 1; i <= 4; i++ {
			b.Append(fmt.Sprintf("line %d", i))
		}

		Expect(b.All()).To(Equal([]string{"line 1", "line 2", "line 3", "line 4"}))
		Expect(b.Len()).To(Equal(4))
	})

	It("tolerates a non-positive capacity", func() {
		b := NewLogBuffer(0)
		b.Append("only")
		b.Append("latest")

		Expect(b.Tail()).To(Equal([]string{"latest"}))
	})
})

var _ = Describe("SourceSet", func() {
	It("deduplicates and preserves insertion order", func() {
		s := NewSourceSet()
		s.Scan("see https://a.example.com and https://b.example.com.")
		s.Scan("again https://a.example.com")

		Expect(s.URLs()).To(Equal([]string{"https://a.example.com", "https://b.example.com"}))
		Expect(s.Len()).To(Equal(2))
	})

	It("trims trailing prose punctuation", func() {
		s := NewSourceSet()
		s.Scan("(https://example.com/paper), and https://example.com/other;")

		Expect(s.URLs()).To(Equal([]string{"https://example.com/paper", "https://example.com/other"}))
	})

	It("ignores non-http schemes and plain text", func() {
		s := NewSourceSet()
		Expect(s.Scan("ftp://example.com file:///etc/passwd nothing here")).To(Equal(0))
	})
})

var _ = Describe("Classify", func() {
	It("is total over arbitrary types", func() {
		Expect(Classify(&Event{Type: TypeResearchStep})).To(Equal(ActionTranscript))
		Expect(Classify(&Event{Type: TypeAPICall})).To(Equal(ActionLog))
		Expect(Classify(&Event{Type: TypeHeartbeat})).To(Equal(ActionIgnore))
		Expect(Classify(&Event{Type: TypeResearchComplete})).To(Equal(ActionComplete))
		Expect(Classify(&Event{Type: "never_seen_before"})).To(Equal(ActionUnknown))
		Expect(Classify(&Event{})).To(Equal(ActionUnknown))
	})
})
