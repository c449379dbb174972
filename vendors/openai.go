package vendors

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/sashabaranov/go-openai"

	"github.com/plugnplai/relnotes/config"
	"github.com/plugnplai/relnotes/log"
)

var (
	openaiClient     *OpenAIClient
	openaiClientOnce sync.Once
	openaiLogger     = log.GetLogger("OpenAI")
)

// OpenAIClient wraps chat completions and Whisper transcription behind
// one handle. A nil client means the API key was never configured.
type OpenAIClient struct {
	client       *openai.Client
	model        string
	whisperModel string
}

// CompletionOptions holds options for completions
type CompletionOptions struct {
	SystemPrompt string
	Prompt       string
	MaxTokens    int
	Temperature  float32
}

// CompletionResponse represents a completion response
type CompletionResponse struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// Usage holds token accounting from a completion
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add accumulates usage from another response
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// GetOpenAIClient returns the singleton OpenAI client, nil if unconfigured
func GetOpenAIClient() *OpenAIClient {
	openaiClientOnce.Do(func() {
		cfg := config.Get()
		if cfg.OpenAIAPIKey == "" {
			openaiLogger.Warn().Msg("OPENAI_API_KEY not configured, generation disabled")
			return
		}

		clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" && cfg.OpenAIBaseURL != "https://api.openai.com/v1" {
			clientConfig.BaseURL = cfg.OpenAIBaseURL
		}

		openaiClient = &OpenAIClient{
			client:       openai.NewClientWithConfig(clientConfig),
			model:        cfg.OpenAIModel,
			whisperModel: cfg.OpenAIWhisperModel,
		}
		openaiLogger.Info().Str("model", cfg.OpenAIModel).Str("baseURL", cfg.OpenAIBaseURL).Msg("OpenAI initialized")
	})

	return openaiClient
}

// Model returns the configured chat model name
func (o *OpenAIClient) Model() string {
	if o == nil {
		return ""
	}
	return o.model
}

func buildMessages(opts CompletionOptions) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if opts.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: opts.SystemPrompt,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: opts.Prompt,
	})
}

// Complete performs a chat completion
func (o *OpenAIClient) Complete(ctx context.Context, opts CompletionOptions) (*CompletionResponse, error) {
	if o == nil {
		return nil, fmt.Errorf("openai client not configured")
	}

	openaiLogger.Debug().
		Str("model", o.model).
		Int("maxTokens", opts.MaxTokens).
		Float32("temperature", opts.Temperature).
		Int("promptLen", len(opts.Prompt)).
		Msg("chat completion request")

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    buildMessages(opts),
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	})
	if err != nil {
		openaiLogger.Error().Err(err).Msg("completion failed")
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai response has no choices")
	}

	choice := resp.Choices[0]
	openaiLogger.Debug().
		Str("finishReason", string(choice.FinishReason)).
		Int("promptTokens", resp.Usage.PromptTokens).
		Int("completionTokens", resp.Usage.CompletionTokens).
		Int("totalTokens", resp.Usage.TotalTokens).
		Msg("chat completion response")

	return &CompletionResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Transcribe runs speech-to-text on an audio or video file
func (o *OpenAIClient) Transcribe(ctx context.Context, filePath string) (string, error) {
	if o == nil {
		return "", fmt.Errorf("openai client not configured")
	}
	if _, err := os.Stat(filePath); err != nil {
		return "", fmt.Errorf("media file not accessible: %w", err)
	}

	openaiLogger.Info().Str("file", filePath).Str("model", o.whisperModel).Msg("transcribing media")

	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.whisperModel,
		FilePath: filePath,
	})
	if err != nil {
		openaiLogger.Error().Err(err).Str("file", filePath).Msg("transcription failed")
		return "", err
	}
	return resp.Text, nil
}

// ModelInfo represents model metadata from OpenAI API
type ModelInfo struct {
	ID      string `json:"id"`
	OwnedBy string `json:"owned_by,omitempty"`
}

// ListModels returns available models
func (o *OpenAIClient) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if o == nil {
		return []ModelInfo{}, nil
	}

	resp, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, ModelInfo{ID: m.ID, OwnedBy: m.OwnedBy})
	}
	return models, nil
}
