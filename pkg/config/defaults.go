package config

const (
	defaultAPITarget = "http://localhost:8000"

	defaultModel = "gpt-4o"

	defaultTimeoutSeconds uint = 600

	defaultLogCapacity    uint = 256
	defaultTranscriptTail uint = 50

	defaultServeListen = ":8090"
)

// defaultCompareModels is the default model set for comparison runs.
var defaultCompareModels = []string{"gpt-4o", "claude-sonnet-4", "gemini-2.5-pro"}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			APITarget: defaultAPITarget,
		},
		Research: ResearchConfig{
			Model:          defaultModel,
			Models:         append([]string(nil), defaultCompareModels...),
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Stream: StreamConfig{
			LogCapacity:    defaultLogCapacity,
			TranscriptTail: defaultTranscriptTail,
		},
		Serve: ServeConfig{
			Listen: defaultServeListen,
		},
	}
}
