package stream

import "regexp"

// FallbackReport is returned when a session reaches a terminal state
// without any usable final-report candidate.
const FallbackReport = "No report was produced. Check the activity log for details."

// minReportLength is the threshold below which a generic content block is
// not considered a plausible report on length alone.
const minReportLength = 200

// Report candidate priorities, highest wins. Once a candidate at a given
// priority is accepted, lower-priority candidates never overwrite it.
// The selection is deliberately isolated here: if the backend ever emits an
// explicit "this is final" marker, only offer call sites change.
type reportPriority int

const (
	priorityNone reportPriority = iota

	// priorityLongest: the longest content block seen across the session,
	// provided it exceeds minReportLength. Tracked continuously, consulted
	// only when nothing explicit arrived.
	priorityLongest

	// priorityComplete: content carried by the research_complete event.
	priorityComplete

	// priorityStage: content of an event in the final_report stage.
	priorityStage
)

// reportSelector picks the final report among competing candidates.
type reportSelector struct {
	text     string
	priority reportPriority
	longest  string
}

// offer proposes text at the given priority. Empty text never displaces
// anything; equal or lower priority never overwrites.
func (r *reportSelector) offer(p reportPriority, text string) {
	if text == "" || p <= r.priority {
		return
	}
	r.text = text
	r.priority = p
}

// observe tracks the longest content block seen, the lowest-priority
// candidate pool.
func (r *reportSelector) observe(text string) {
	if len(text) > len(r.longest) {
		r.longest = text
	}
}

// selected returns the report chosen so far, without the fallback. Empty
// means no candidate has qualified yet.
func (r *reportSelector) selected() string {
	if r.priority > priorityLongest {
		return r.text
	}
	if len(r.longest) >= minReportLength {
		return r.longest
	}
	return ""
}

// final returns the report for a terminal session, falling back to the
// literal diagnostic string when nothing qualified.
func (r *reportSelector) final() string {
	if s := r.selected(); s != "" {
		return s
	}
	return FallbackReport
}

// transientPattern recognizes error text that usually indicates a
// transient cause worth resubmitting (rate limits, timeouts, 5xx).
var transientPattern = regexp.MustCompile(`(?i)rate.?limit|timed?.?out|timeout|429|5\d\d|overloaded|unavailable|try again|too many requests`)

// Retryable reports whether an error message looks like a transient
// failure. Advisory only: the client never retries automatically.
func Retryable(msg string) bool {
	return transientPattern.MatchString(msg)
}
