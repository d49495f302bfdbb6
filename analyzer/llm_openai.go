package analyzer

import (
	"context"
	"encoding/base64"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// GeminiBaseURL is Gemini's OpenAI-compatible endpoint.
	GeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIVision implements VisionClient using the official openai-go SDK (chat completions
// with an image content part). Any OpenAI-compatible endpoint works through BaseURL.
type OpenAIVision struct {
	Model string
	Opts  []option.RequestOption
}

func NewOpenAIVisionFromConfig(cfg *LLMSettings) (*OpenAIVision, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("vision api key missing; provide llm.api_key or the api_key_env variable")
	}
	model, baseURL := cfg.Model, cfg.BaseURL
	switch cfg.Provider {
	case "", "gemini":
		if model == "" {
			model = DefaultGeminiModel
		}
		if baseURL == "" {
			baseURL = GeminiBaseURL
		}
	case "openai":
		if model == "" {
			model = DefaultOpenAIModel
		}
	}
	if model == "" {
		return nil, errors.New("llm model is required")
	}
	// one attempt per analysis; the SDK retries twice by default
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIVision{Model: model, Opts: opts}, nil
}

func (o *OpenAIVision) Describe(ctx context.Context, prompt Prompt, image Image) (string, error) {
	if len(image.Data) == 0 {
		return "", errors.New("image is empty")
	}
	client := openai.NewClient(o.Opts...)

	mime := image.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image.Data)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	if prompt.System != "" {
		msgs = append(msgs, openai.SystemMessage(prompt.System))
	}
	msgs = append(msgs, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt.User),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	}))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// OpenAIFactory is the ClientFactory for provider/model/baseURL with the key supplied later.
func OpenAIFactory(settings LLMSettings) ClientFactory {
	return func(apiKey string) (VisionClient, error) {
		s := settings
		s.APIKey = apiKey
		return NewOpenAIVisionFromConfig(&s)
	}
}
