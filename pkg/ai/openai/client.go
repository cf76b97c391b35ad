package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"lyricconv/pkg/ai"
)

var _ ai.Client = (*OpenAI)(nil)

var logger = log.With().Str("component", "openai").Logger()

type OpenAI struct {
	model  string
	client *openai.Client
}

// NewOpenAI baseURL 为空时使用官方地址，可指向任意兼容 OpenAI 的服务
func NewOpenAI(apiKey, modelName, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	return &OpenAI{model: modelName, client: openai.NewClientWithConfig(cfg)}
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) HandleText(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   4000,
		Temperature: 0.2,
	}

	var lastErr error
	for i := 0; i < ai.MaxRetries; i++ {
		resp, err := o.client.CreateChatCompletion(ctx, req)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", errors.New("openai: empty response")
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = err
		logger.Warn().Err(err).Int("attempt", i+1).Msg("failed to send message to openai")
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("openai: %w", lastErr)
}
