package manager

// Sampler carries the knobs controlling token selection. It is a value type;
// copies never alias, and the core never validates ranges (the backend owns that).
type Sampler struct {
	Temperature      float32
	TopP             float32
	PresencePenalty  float32
	FrequencyPenalty float32
}
