package providers

import (
	"context"

	"learnwise/internal/models"
)

const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// ChatOptions tunes one completion. A nil Temperature means DefaultTemperature.
type ChatOptions struct {
	Temperature *float64
	MaxTokens   int
}

// Float returns a pointer to v for ChatOptions.Temperature.
func Float(v float64) *float64 { return &v }

func (o ChatOptions) withDefaults() ChatOptions {
	if o.Temperature == nil || *o.Temperature < 0 {
		o.Temperature = Float(DefaultTemperature)
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = DefaultMaxTokens
	}
	return o
}

// ChatProvider is one wire variant. Implementations return raw errors and
// leave classification to the gateway.
type ChatProvider interface {
	Chat(ctx context.Context, msgs []models.Message, opts ChatOptions) (string, error)
}
