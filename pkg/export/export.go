// Package export renders a session's final state as Markdown or HTML.
// It reads archived records and never mutates them.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/history"
)

// Format is an export output format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unknown export format %q (available: markdown, html)", name)
	}
}

// Render produces the export document for a record in the given format.
func Render(rec *history.Record, format Format) (string, error) {
	md := Markdown(rec)
	if format == FormatMarkdown {
		return md, nil
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&doc, "<title>%s</title>\n", htmlEscape(rec.Query))
	doc.WriteString("</head>\n<body>\n")
	doc.Write(buf.Bytes())
	doc.WriteString("</body>\n</html>\n")

	return doc.String(), nil
}

// Markdown builds the canonical Markdown export: report first, then
// sources, then the full transcript and API-call log as appendices.
func Markdown(rec *history.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Research: %s\n\n", rec.Query)
	fmt.Fprintf(&b, "- **Model:** %s\n", rec.Model)
	fmt.Fprintf(&b, "- **Status:** %s\n", rec.Status)
	fmt.Fprintf(&b, "- **Started:** %s\n", rec.Started.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- **Duration:** %s\n", rec.Duration.Round(1e6))
	if rec.Error != "" {
		fmt.Fprintf(&b, "- **Error:** %s\n", rec.Error)
	}
	b.WriteString("\n")

	if rec.Report != "" {
		b.WriteString("## Report\n\n")
		b.WriteString(rec.Report)
		b.WriteString("\n\n")
	}

	if len(rec.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for i, src := range rec.Sources {
			fmt.Fprintf(&b, "%d. <%s>\n", i+1, src)
		}
		b.WriteString("\n")
	}

	if len(rec.Transcript) > 0 {
		b.WriteString("## Transcript\n\n")
		for _, seg := range rec.Transcript {
			if seg.Stage != "" {
				fmt.Fprintf(&b, "- `[%s]` %s\n", seg.Stage, seg.Text)
			} else {
				fmt.Fprintf(&b, "- %s\n", seg.Text)
			}
		}
		b.WriteString("\n")
	}

	if len(rec.Log) > 0 {
		b.WriteString("## API calls\n\n```\n")
		for _, line := range rec.Log {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("```\n")
	}

	return b.String()
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func htmlEscape(s string) string {
	return htmlEscaper.Replace(s)
}
