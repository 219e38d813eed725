package cvgen

import "errors"

var (
	// ErrInvalidAPIKey indicates an invalid or missing API key.
	ErrInvalidAPIKey = errors.New("invalid or missing API key")

	// ErrGenerationFailed indicates the provider call failed.
	ErrGenerationFailed = errors.New("failed to generate CV")

	// ErrEmptyModelOutput indicates the provider returned no usable text.
	ErrEmptyModelOutput = errors.New("empty model output")

	// ErrMalformedModelOutput indicates the model response contained no
	// decodable JSON object.
	ErrMalformedModelOutput = errors.New("malformed model output")
)
