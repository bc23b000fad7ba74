package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Fixture is a scripted event stream: one JSON event per line, replayed in
// order. Blank lines and '#' comments are skipped; every other line must be
// a JSON object so the replayed wire bytes match what a real backend sends.
type Fixture struct {
	Lines []string
}

// LoadFixture reads a JSONL fixture file.
func LoadFixture(path string) (*Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening fixture: %w", err)
	}
	defer f.Close()

	fixture := &Fixture{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if !json.Valid(line) {
			return nil, fmt.Errorf("fixture line %d is not valid JSON", lineNo)
		}
		fixture.Lines = append(fixture.Lines, string(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}

	if len(fixture.Lines) == 0 {
		return nil, fmt.Errorf("fixture %s contains no events", path)
	}

	return fixture, nil
}

// DemoFixture is the built-in script used when no fixture file is given.
// It walks a full research run: staged progress, steps with sources, an
// API-call line, and a final report.
func DemoFixture() *Fixture {
	return &Fixture{Lines: []string{
		`{"type":"stage_start","stage":"clarification","content":"Clarifying the question"}`,
		`{"type":"clarification","stage":"clarification","content":"Interpreting the query as a survey request."}`,
		`{"type":"stage_start","stage":"research_brief","content":"Writing the research brief"}`,
		`{"type":"research_step","stage":"research_brief","content":"Brief drafted: three sub-questions identified."}`,
		`{"type":"stage_start","stage":"research_execution","content":"Executing research"}`,
		`{"type":"api_call","node_name":"searcher","content":"web search issued","duration":1.2}`,
		`{"type":"research_step","stage":"research_execution","content":"Found survey at https://example.com/survey and follow-up at https://example.com/followup"}`,
		`{"type":"token_usage","node_name":"synthesizer","content":"2314 tokens"}`,
		`{"type":"stage_start","stage":"final_report","content":"Writing the final report"}`,
		`{"type":"message","stage":"final_report","content":"# Findings\n\nThe demo backend produced this report. It is long enough to stand on its own as a final report candidate, summarizing the survey, the follow-up, and the synthesis performed across the demo run's research stages."}`,
		`{"type":"research_complete","stage":"completed","content":""}`,
	}}
}
