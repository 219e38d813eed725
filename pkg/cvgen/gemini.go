package cvgen

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used unless overridden via WithGeminiModel.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini implements the Generator interface using Google's Generative AI API.
type Gemini struct {
	client *genai.Client
	model  string
}

// GeminiOption is a functional option for configuring Gemini.
type GeminiOption func(*Gemini)

// WithGeminiModel sets the model to use.
func WithGeminiModel(model string) GeminiOption {
	return func(g *Gemini) {
		if model != "" {
			g.model = model
		}
	}
}

// NewGemini creates a new Gemini generator with API key authentication.
func NewGemini(ctx context.Context, apiKey string, opts ...GeminiOption) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	g := &Gemini{
		model: DefaultGeminiModel,
	}

	for _, opt := range opts {
		opt(g)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	g.client = client

	return g, nil
}

// GenerateCV returns the structured CV payload as a decoded JSON object.
func (g *Gemini) GenerateCV(ctx context.Context, jobDescription, resume string) (map[string]any, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(buildPrompt(jobDescription, resume))},
		},
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](genTemperature),
		TopP:            genai.Ptr[float32](genTopP),
		TopK:            genai.Ptr[float32](genTopK),
		MaxOutputTokens: genMaxOutputTokens,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	text := collectText(resp)
	if text == "" {
		return nil, ErrEmptyModelOutput
	}

	return extractJSON(text)
}

// collectText concatenates the text parts of the first candidate.
func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return ""
	}

	var text string
	for _, part := range candidate.Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	return text
}
