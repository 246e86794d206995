package providers

import (
	"sort"
	"strings"
)

type Variant string

const (
	VariantOpenAI Variant = "openai-compatible"
	VariantZhipu  Variant = "zhipu"
	VariantMock   Variant = "mock"
)

type providerEntry struct {
	display  string
	baseURL  string
	model    string
	keyEnvs  []string
	variant  Variant
	topUpURL string
	keyless  bool
}

var registry = map[string]providerEntry{
	"openai": {
		display:  "OpenAI",
		baseURL:  "https://api.openai.com/v1",
		model:    "gpt-4o-mini",
		keyEnvs:  []string{"OPENAI_API_KEY"},
		variant:  VariantOpenAI,
		topUpURL: "https://platform.openai.com/account/billing",
	},
	"deepseek": {
		display:  "DeepSeek",
		baseURL:  "https://api.deepseek.com/v1",
		model:    "deepseek-chat",
		keyEnvs:  []string{"DEEPSEEK_API_KEY", "OPENAI_API_KEY"},
		variant:  VariantOpenAI,
		topUpURL: "https://platform.deepseek.com/top_up",
	},
	"qwen": {
		display:  "Qwen",
		baseURL:  "https://dashscope.aliyuncs.com/compatible-mode/v1",
		model:    "qwen-turbo",
		keyEnvs:  []string{"QWEN_API_KEY", "DASHSCOPE_API_KEY"},
		variant:  VariantOpenAI,
		topUpURL: "https://dashscope.console.aliyun.com/",
	},
	"zhipu": {
		display:  "Zhipu",
		baseURL:  "https://open.bigmodel.cn/api/paas/v4",
		model:    "glm-4",
		keyEnvs:  []string{"ZHIPU_API_KEY"},
		variant:  VariantZhipu,
		topUpURL: "https://open.bigmodel.cn/usercenter/apikeys",
	},
	"moonshot": {
		display:  "Moonshot",
		baseURL:  "https://api.moonshot.cn/v1",
		model:    "moonshot-v1-8k",
		keyEnvs:  []string{"MOONSHOT_API_KEY"},
		variant:  VariantOpenAI,
		topUpURL: "https://platform.moonshot.cn/console/pay",
	},
	"groq": {
		display:  "Groq",
		baseURL:  "https://api.groq.com/openai/v1",
		model:    "llama-3.1-8b-instant",
		keyEnvs:  []string{"GROQ_API_KEY"},
		variant:  VariantOpenAI,
		topUpURL: "https://console.groq.com/settings/billing",
	},
	"ollama": {
		display: "Ollama",
		baseURL: "http://localhost:11434/v1",
		model:   "llama3.1",
		variant: VariantOpenAI,
		keyless: true,
	},
	"mock": {
		display: "Mock",
		model:   "mock-chat-v1",
		variant: VariantMock,
		keyless: true,
	},
}

// ProviderConfig is the resolved view of one provider: table defaults with
// environment overrides applied.
type ProviderConfig struct {
	Provider  string
	Known     bool
	Variant   Variant
	BaseURL   string
	Model     string
	APIKey    string
	KeyEnv    string
	HasAPIKey bool
	Keyless   bool
	TopUpURL  string
	display   string
}

func (c ProviderConfig) displayName() string {
	if c.display != "" {
		return c.display
	}
	return c.Provider
}

func (c ProviderConfig) topUp() string {
	if c.TopUpURL != "" {
		return c.TopUpURL
	}
	return "your provider's billing console"
}

// APIKeyPrefix is the masked key shown by diagnostics.
func (c ProviderConfig) APIKeyPrefix() string {
	if !c.HasAPIKey {
		return "not configured"
	}
	k := c.APIKey
	if len(k) > 7 {
		k = k[:7]
	}
	return k + "..."
}

// ResolveConfig looks name up in the provider table. <NAME>_BASE_URL and
// <NAME>_MODEL override the defaults; the key comes from the first set
// variable in the provider's fallback chain.
func ResolveConfig(name string, getenv func(string) string) ProviderConfig {
	name = strings.ToLower(strings.TrimSpace(name))
	entry, ok := registry[name]
	cfg := ProviderConfig{Provider: name, Known: ok}
	if !ok {
		return cfg
	}
	prefix := strings.ToUpper(name)
	cfg.Variant = entry.variant
	cfg.Keyless = entry.keyless
	cfg.TopUpURL = entry.topUpURL
	cfg.display = entry.display
	cfg.BaseURL = firstNonEmpty(getenv(prefix+"_BASE_URL"), entry.baseURL)
	cfg.Model = firstNonEmpty(getenv(prefix+"_MODEL"), entry.model)
	if len(entry.keyEnvs) > 0 {
		cfg.KeyEnv = entry.keyEnvs[0]
	}
	for _, env := range entry.keyEnvs {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			cfg.APIKey = v
			cfg.KeyEnv = env
			break
		}
	}
	cfg.HasAPIKey = cfg.APIKey != ""
	return cfg
}

// Names lists the supported provider names.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
