package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"lyricconv/pkg/ai"
)

// DefaultModel 未指定模型时使用
const DefaultModel = "gemini-2.5-flash"

var _ ai.Client = (*Gemini)(nil)

var logger = log.With().Str("component", "gemini").Logger()

type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.2)
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Name() string {
	return "gemini"
}

// HandleText 失败时最多重试 ai.MaxRetries 次
func (g *Gemini) HandleText(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i := range ai.MaxRetries {
		resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
		if err == nil {
			return responseText(resp)
		}
		lastErr = err
		logger.Warn().Err(err).Int("attempt", i+1).Msg("could not get response from gemini")
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("gemini: %w", lastErr)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini: empty response")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String(), nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
