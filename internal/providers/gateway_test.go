package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"learnwise/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

const completionBody = `{"id":"cmpl-1","object":"chat.completion","created":1,"model":"deepseek-chat",` +
	`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"hello learner"}}]}`

func TestResolveConfigDefaultsAndFallback(t *testing.T) {
	cfg := ResolveConfig("DeepSeek", envMap(map[string]string{"OPENAI_API_KEY": "sk-openai-fallback"}))
	require.True(t, cfg.Known)
	require.Equal(t, "deepseek", cfg.Provider)
	require.Equal(t, "https://api.deepseek.com/v1", cfg.BaseURL)
	require.Equal(t, "deepseek-chat", cfg.Model)
	require.True(t, cfg.HasAPIKey)
	require.Equal(t, "OPENAI_API_KEY", cfg.KeyEnv)
	require.Equal(t, "sk-open...", cfg.APIKeyPrefix())

	cfg = ResolveConfig("qwen", envMap(map[string]string{
		"DASHSCOPE_API_KEY": "dash",
		"QWEN_MODEL":        "qwen-max",
		"QWEN_BASE_URL":     "http://proxy.local/v1",
	}))
	require.Equal(t, "dash", cfg.APIKey)
	require.Equal(t, "qwen-max", cfg.Model)
	require.Equal(t, "http://proxy.local/v1", cfg.BaseURL)

	cfg = ResolveConfig("moonshot", envMap(nil))
	require.False(t, cfg.HasAPIKey)
	require.Equal(t, "MOONSHOT_API_KEY", cfg.KeyEnv)
	require.Equal(t, "not configured", cfg.APIKeyPrefix())

	require.False(t, ResolveConfig("nope", envMap(nil)).Known)
}

func TestGatewayMissingKeyMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	g := NewGateway(Options{Provider: "openai", Getenv: envMap(map[string]string{"OPENAI_BASE_URL": srv.URL})})
	_, err := g.Chat(context.Background(), []models.Message{{Role: models.RoleUser, Content: "hi"}}, ChatOptions{})
	var ge *Error
	require.True(t, errors.As(err, &ge))
	require.Equal(t, ErrorConfig, ge.Kind)
	require.Contains(t, ge.Details, "OPENAI_API_KEY")
	require.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestGatewayUnknownProvider(t *testing.T) {
	g := NewGateway(Options{Provider: "acme", Getenv: envMap(nil)})
	_, err := g.Chat(context.Background(), nil, ChatOptions{})
	var ge *Error
	require.True(t, errors.As(err, &ge))
	require.Equal(t, ErrorConfig, ge.Kind)
	require.Equal(t, http.StatusInternalServerError, ge.Status)
}

func TestGatewayOpenAICompatible(t *testing.T) {
	var got struct {
		Model       string           `json:"model"`
		Messages    []models.Message `json:"messages"`
		Temperature float64          `json:"temperature"`
		MaxTokens   int              `json:"max_tokens"`
	}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	g := NewGateway(Options{Provider: "deepseek", Getenv: envMap(map[string]string{
		"DEEPSEEK_API_KEY":  "sk-test",
		"DEEPSEEK_BASE_URL": srv.URL + "/v1",
	})})
	text, err := g.Chat(context.Background(), []models.Message{
		{Role: models.RoleSystem, Content: "be helpful"},
		{Role: models.RoleUser, Content: "hi"},
	}, ChatOptions{})
	require.NoError(t, err)
	require.Equal(t, "hello learner", text)
	require.Equal(t, "Bearer sk-test", auth)
	require.Equal(t, "deepseek-chat", got.Model)
	require.Len(t, got.Messages, 2)
	require.Equal(t, models.RoleSystem, got.Messages[0].Role)
	require.InDelta(t, 0.7, got.Temperature, 1e-9)
	require.Equal(t, 2000, got.MaxTokens)
}

func TestGatewayKeepsZeroTemperature(t *testing.T) {
	var got struct {
		Temperature *float64 `json:"temperature"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer srv.Close()

	g := NewGateway(Options{Provider: "openai", Getenv: envMap(map[string]string{
		"OPENAI_API_KEY":  "sk-test",
		"OPENAI_BASE_URL": srv.URL + "/v1",
	})})
	_, err := g.Chat(context.Background(), []models.Message{{Role: models.RoleUser, Content: "hi"}}, ChatOptions{Temperature: Float(0)})
	require.NoError(t, err)
	require.NotNil(t, got.Temperature)
	require.Zero(t, *got.Temperature)
}

func TestChatOptionsDefaults(t *testing.T) {
	o := ChatOptions{}.withDefaults()
	require.InDelta(t, DefaultTemperature, *o.Temperature, 1e-9)
	require.Equal(t, DefaultMaxTokens, o.MaxTokens)

	o = ChatOptions{Temperature: Float(0), MaxTokens: 16}.withDefaults()
	require.Zero(t, *o.Temperature)
	require.Equal(t, 16, o.MaxTokens)

	o = ChatOptions{Temperature: Float(-1)}.withDefaults()
	require.InDelta(t, DefaultTemperature, *o.Temperature, 1e-9)
}

func TestGatewayClassifiesProviderStatus(t *testing.T) {
	cases := []struct {
		status int
		body   string
		kind   ErrorKind
	}{
		{http.StatusPaymentRequired, `{"error":{"message":"Insufficient Balance","type":"unknown_error"}}`, ErrorBalance},
		{http.StatusUnauthorized, `{"error":{"message":"Authentication Fails","type":"authentication_error"}}`, ErrorAuth},
		{http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"rate_limit"}}`, ErrorRateLimit},
		{http.StatusBadRequest, `{"error":{"message":"model not found","type":"invalid_request_error"}}`, ErrorProvider},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		g := NewGateway(Options{Provider: "deepseek", MaxRetries: 0, Getenv: envMap(map[string]string{
			"DEEPSEEK_API_KEY":  "sk-test",
			"DEEPSEEK_BASE_URL": srv.URL,
		})})
		_, err := g.Chat(context.Background(), []models.Message{{Role: models.RoleUser, Content: "hi"}}, ChatOptions{})
		srv.Close()

		var ge *Error
		require.True(t, errors.As(err, &ge), "status %d", tc.status)
		require.Equal(t, tc.kind, ge.Kind, "status %d", tc.status)
		require.Equal(t, tc.status, ge.Status)
	}
}

func TestGatewayNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	g := NewGateway(Options{Provider: "deepseek", Timeout: 2 * time.Second, Getenv: envMap(map[string]string{
		"DEEPSEEK_API_KEY":  "sk-test",
		"DEEPSEEK_BASE_URL": url,
	})})
	_, err := g.Chat(context.Background(), []models.Message{{Role: models.RoleUser, Content: "hi"}}, ChatOptions{})
	var ge *Error
	require.True(t, errors.As(err, &ge))
	require.Equal(t, ErrorNetwork, ge.Kind)
	require.Equal(t, http.StatusServiceUnavailable, ge.Status)
	require.Contains(t, ge.Details, url)
}

func TestGatewayMockNeedsNoKey(t *testing.T) {
	g := NewGateway(Options{Provider: "mock", Getenv: envMap(nil)})
	text, err := g.Chat(context.Background(), []models.Message{{Role: models.RoleUser, Content: "what is osmosis"}}, ChatOptions{})
	require.NoError(t, err)
	require.Equal(t, "Mock response to: what is osmosis", text)
}

func TestZhipuSignsRequests(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	var claims jwt.MapClaims
	var header map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/paas/v4/chat/completions", r.URL.Path)
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		tok, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return []byte("s3cret"), nil },
			jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
		require.NoError(t, err)
		claims = tok.Claims.(jwt.MapClaims)
		header = tok.Header
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"glm says hi"}}]}`))
	}))
	defer srv.Close()

	cfg := ResolveConfig("zhipu", envMap(map[string]string{
		"ZHIPU_API_KEY":  "key-id.s3cret",
		"ZHIPU_BASE_URL": srv.URL + "/api/paas/v4",
	}))
	p := NewZhipuProvider(cfg, time.Second, 0, nil)
	p.now = func() time.Time { return now }

	text, err := p.Chat(context.Background(), []models.Message{{Role: models.RoleUser, Content: "hi"}}, ChatOptions{})
	require.NoError(t, err)
	require.Equal(t, "glm says hi", text)
	require.Equal(t, "SIGN", header["sign_type"])
	require.Equal(t, "key-id", claims["api_key"])
	require.EqualValues(t, now.UnixMilli(), claims["timestamp"])
	require.EqualValues(t, now.UnixMilli()+time.Hour.Milliseconds(), claims["exp"])
}

func TestZhipuRetriesThenClassifies(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"second time lucky"}}]}`))
	}))
	defer srv.Close()

	cfg := ResolveConfig("zhipu", envMap(map[string]string{"ZHIPU_API_KEY": "plain-token", "ZHIPU_BASE_URL": srv.URL}))
	p := NewZhipuProvider(cfg, time.Second, 2, nil)
	p.backoff = time.Millisecond
	text, err := p.Chat(context.Background(), nil, ChatOptions{})
	require.NoError(t, err)
	require.Equal(t, "second time lucky", text)
	require.Equal(t, int32(2), atomic.LoadInt32(&hits))

	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer plain-token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"1000","message":"auth failed"}}`))
	}))
	defer authSrv.Close()
	cfg.BaseURL = authSrv.URL
	_, err = NewZhipuProvider(cfg, time.Second, 2, nil).Chat(context.Background(), nil, ChatOptions{})
	require.Equal(t, ErrorAuth, Classify(cfg, err).Kind)
}
