package cvgen

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used unless overridden via WithOpenAIModel.
const DefaultOpenAIModel = string(openai.ChatModelGPT4oMini)

// OpenAI implements the Generator interface using OpenAI's chat API.
type OpenAI struct {
	client     openai.Client
	model      string
	httpClient *http.Client
}

// OpenAIOption is a functional option for configuring OpenAI.
type OpenAIOption func(*OpenAI)

// WithOpenAIModel sets the model to use.
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *OpenAI) {
		if model != "" {
			o.model = model
		}
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		o.httpClient = client
	}
}

// NewOpenAI creates a new OpenAI generator.
func NewOpenAI(apiKey string, opts ...OpenAIOption) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrInvalidAPIKey
	}

	o := &OpenAI{
		model: DefaultOpenAIModel,
	}

	for _, opt := range opts {
		opt(o)
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	}
	o.client = openai.NewClient(clientOpts...)

	return o, nil
}

// GenerateCV returns the structured CV payload as a decoded JSON object.
func (o *OpenAI) GenerateCV(ctx context.Context, jobDescription, resume string) (map[string]any, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildPrompt(jobDescription, resume)),
		},
		Temperature:         openai.Float(genTemperature),
		TopP:                openai.Float(genTopP),
		MaxCompletionTokens: openai.Int(genMaxOutputTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, ErrEmptyModelOutput
	}

	return extractJSON(resp.Choices[0].Message.Content)
}
