package providers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"learnwise/internal/models"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAICompatProvider speaks the OpenAI chat completions protocol. Every
// table entry except zhipu and mock goes through it.
type OpenAICompatProvider struct {
	name   string
	model  string
	client openai.Client
}

func NewOpenAICompatProvider(cfg ProviderConfig, timeout time.Duration, maxRetries int, hc *http.Client) *OpenAICompatProvider {
	opts := []option.RequestOption{
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/"),
		option.WithMaxRetries(maxRetries),
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	return &OpenAICompatProvider{
		name:   cfg.Provider,
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}
}

func (o *OpenAICompatProvider) Chat(ctx context.Context, msgs []models.Message, opts ChatOptions) (string, error) {
	opts = opts.withDefaults()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    toOpenAIMessages(msgs),
		Temperature: openai.Float(*opts.Temperature),
		MaxTokens:   openai.Int(int64(opts.MaxTokens)),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", o.name)
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(msgs []models.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case models.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
