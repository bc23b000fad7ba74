package sse

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Reader", func() {
	Describe("Next", func() {
		Context("with standard SSE events", func() {
			It("parses a single event", func() {
				src := strings.NewReader("data: hello world\n\n")
				r := NewReader(src)

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("hello world"))
				Expect(ev.Type).To(BeEmpty())
				Expect(ev.ID).To(BeEmpty())

				ev, err = r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev).To(BeNil())
			})

			It("parses multiple events", func() {
				src := strings.NewReader("data: first\n\ndata: second\n\n")
				r := NewReader(src)

				ev1, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev1.Data).To(Equal("first"))

				ev2, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev2.Data).To(Equal("second"))

				ev3, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev3).To(BeNil())
			})

			It("joins multiple data lines with newline", func() {
				src := strings.NewReader("data: line one\ndata: line two\n\n")
				r := NewReader(src)

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("line one\nline two"))
			})

			It("skips comments and keep-alive blank lines", func() {
				src := strings.NewReader(": keep-alive\n\n\ndata: payload\n\n")
				r := NewReader(src)

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("payload"))
			})

			It("yields a trailing event without a final blank line", func() {
				src := strings.NewReader("data: last")
				r := NewReader(src)

				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev.Data).To(Equal("last"))
			})
		})

		Context("with research stream payloads", func() {
			It("parses JSON event lines verbatim", func() {
				input := "data: {\"type\":\"stage_start\",\"stage\":\"clarification\"}\n\n" +
					"data: {\"type\":\"research_complete\",\"content\":\"Done.\"}\n\n"
				r := NewReader(strings.NewReader(input))

				ev1, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev1.Data).To(Equal(`{"type":"stage_start","stage":"clarification"}`))

				ev2, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				Expect(ev2.Data).To(Equal(`{"type":"research_complete","content":"Done."}`))
			})
		})

		Context("with a capture writer", func() {
			It("mirrors the raw stream bytes", func() {
				input := ": comment\ndata: one\n\ndata: two\n\n"
				capture := &bytes.Buffer{}
				r := NewCaptureReader(strings.NewReader(input), capture)

				for {
					ev, err := r.Next()
					Expect(err).NotTo(HaveOccurred())
					if ev == nil {
						break
					}
				}

				Expect(capture.String()).To(Equal(input))
			})
		})
	})
})
