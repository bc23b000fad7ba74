package researchcmder

import (
	"fmt"
	"io"

	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/cliui"
	"github.com/ShenSeanChen/yt-DeepResearch-Frontend/pkg/stream"
)

// plainRenderer streams session progress as plain lines. It is incremental:
// each snapshot prints only the transcript segments, log lines, and sources
// that appeared since the previous one, so it works for pipes and CI logs.
type plainRenderer struct {
	w     io.Writer
	model string

	printedSegments int
	printedLogs     int
	printedSources  int
}

func newPlainRenderer(w io.Writer, model string) *plainRenderer {
	return &plainRenderer{w: w, model: model}
}

func (r *plainRenderer) Start(query string) {
	fmt.Fprintf(r.w, "\n  %s %s\n", cliui.KeyStyle.Render("Query:"), query)
	fmt.Fprintf(r.w, "  %s %s\n\n", cliui.KeyStyle.Render("Model:"), cliui.NameStyle.Render(r.model))
}

// Update implements session.UpdateFunc.
func (r *plainRenderer) Update(snap stream.Snapshot) {
	for _, seg := range snap.Transcript[r.printedSegments:] {
		switch seg.Kind {
		case stream.SegmentStage:
			fmt.Fprintf(r.w, "\n%s\n", cliui.StageStyle.Render("── "+seg.Stage+" ──"))
			if seg.Text != "" {
				fmt.Fprintf(r.w, "  %s\n", seg.Text)
			}
		default:
			fmt.Fprintf(r.w, "  %s\n", seg.Text)
		}
	}
	r.printedSegments = len(snap.Transcript)

	for _, line := range snap.FullLog[r.printedLogs:] {
		fmt.Fprintf(r.w, "  %s\n", cliui.DimStyle.Render(line))
	}
	r.printedLogs = len(snap.FullLog)

	for _, src := range snap.Sources[r.printedSources:] {
		fmt.Fprintf(r.w, "  %s %s\n", cliui.DimStyle.Render("+"), cliui.SourceStyle.Render(src))
	}
	r.printedSources = len(snap.Sources)

	if snap.Status == stream.StatusFailed && snap.Error != "" {
		fmt.Fprintf(r.w, "\n  %s %s\n", cliui.FailMark, cliui.ErrorStyle.Render(snap.Error))
	}
}
