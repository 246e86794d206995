package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"learnwise/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const zhipuTokenTTL = time.Hour

// ZhipuProvider signs every request with a short-lived JWT derived from an
// "id.secret" key. Keys without a dot are sent as plain bearer tokens.
type ZhipuProvider struct {
	baseURL    string
	model      string
	apiKey     string
	maxRetries int
	backoff    time.Duration
	client     *http.Client
	now        func() time.Time
}

func NewZhipuProvider(cfg ProviderConfig, timeout time.Duration, maxRetries int, hc *http.Client) *ZhipuProvider {
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ZhipuProvider{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		maxRetries: maxRetries,
		backoff:    500 * time.Millisecond,
		client:     hc,
		now:        time.Now,
	}
}

type zhipuRequest struct {
	Model       string           `json:"model"`
	Messages    []models.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

type zhipuResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (z *ZhipuProvider) Chat(ctx context.Context, msgs []models.Message, opts ChatOptions) (string, error) {
	opts = opts.withDefaults()
	payload, err := json.Marshal(zhipuRequest{
		Model:       z.model,
		Messages:    msgs,
		Temperature: *opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode zhipu request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= z.maxRetries; attempt++ {
		if attempt > 0 {
			wait := z.backoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
		text, retry, err := z.once(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (z *ZhipuProvider) once(ctx context.Context, payload []byte) (string, bool, error) {
	token, err := zhipuToken(z.apiKey, z.now(), zhipuTokenTTL)
	if err != nil {
		return "", false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := z.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("zhipu request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", true, fmt.Errorf("read zhipu response: %w", err)
	}
	if resp.StatusCode >= 400 {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", retry, newStatusError(resp.StatusCode, body)
	}
	var parsed zhipuResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false, fmt.Errorf("decode zhipu response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("zhipu returned no choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}

// zhipuToken builds the HS256 token the Zhipu platform expects: claims in
// milliseconds and a sign_type header.
func zhipuToken(apiKey string, now time.Time, ttl time.Duration) (string, error) {
	id, secret, ok := strings.Cut(apiKey, ".")
	if !ok || id == "" || secret == "" {
		return apiKey, nil
	}
	ms := now.UnixMilli()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"api_key":   id,
		"exp":       ms + ttl.Milliseconds(),
		"timestamp": ms,
	})
	tok.Header["sign_type"] = "SIGN"
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign zhipu token: %w", err)
	}
	return signed, nil
}
