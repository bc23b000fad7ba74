package stream

import (
	"regexp"
	"strings"
)

// urlPattern is a best-effort match for http(s) URLs embedded in prose.
// Source extraction is a heuristic, not a correctness-critical path: false
// positives and negatives are acceptable.
var urlPattern = regexp.MustCompile(`https?://[^\s<>"'\)\]]+`)

// trailingPunct strips punctuation that prose tends to glue onto a URL.
const trailingPunct = ".,;:!?)]}'\""

// SourceSet accumulates deduplicated source URLs in insertion order.
// It only ever grows within a session.
type SourceSet struct {
	seen map[string]struct{}
	urls []string
}

// NewSourceSet returns an empty SourceSet.
func NewSourceSet() *SourceSet {
	return &SourceSet{seen: make(map[string]struct{})}
}

// Scan folds every URL found in text into the set and returns the number
// of URLs that were new.
func (s *SourceSet) Scan(text string) int {
	if text == "" {
		return 0
	}

	added := 0
	for _, match := range urlPattern.FindAllString(text, -1) {
		url := strings.TrimRight(match, trailingPunct)
		if url == "" {
			continue
		}
		if _, ok := s.seen[url]; ok {
			continue
		}
		s.seen[url] = struct{}{}
		s.urls = append(s.urls, url)
		added++
	}
	return added
}

// URLs returns the accumulated URLs in insertion order.
func (s *SourceSet) URLs() []string {
	out := make([]string, len(s.urls))
	copy(out, s.urls)
	return out
}

// Len is the number of distinct URLs seen.
func (s *SourceSet) Len() int {
	return len(s.urls)
}
