package cvgen

import "context"

// Generation parameters tuned for structured, low-variance output.
const (
	genTemperature     = 0.2
	genTopP            = 0.8
	genTopK            = 40
	genMaxOutputTokens = 2048
)

// Generator produces tailored CV data from a job description and resume.
type Generator interface {
	// GenerateCV returns the structured CV payload as a decoded JSON object.
	GenerateCV(ctx context.Context, jobDescription, resume string) (map[string]any, error)
}
