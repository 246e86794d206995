package providers

import (
	"context"
	"strings"

	"learnwise/internal/models"
)

// MockProvider answers offline with deterministic text. Useful for local
// development without an API key.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Chat(ctx context.Context, msgs []models.Message, opts ChatOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	last := ""
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			last = msgs[i].Content
			break
		}
	}
	low := strings.ToLower(last)
	switch {
	case strings.Contains(low, "summar"):
		return "## Mock Summary\n\n- Deterministic summary output; configure a real provider for content-aware results.", nil
	case last == "":
		return "Mock response.", nil
	default:
		runes := []rune(strings.TrimSpace(last))
		if len(runes) > 80 {
			runes = runes[:80]
		}
		return "Mock response to: " + string(runes), nil
	}
}
