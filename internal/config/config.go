package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIAddr            string
	Env                string
	LogLevel           string
	UploadDir          string
	MaxFileSize        int64
	AIProvider         string
	AITimeoutSecs      int
	AIMaxRetries       int
	ConversationLimit  int
	ConversationTTLMin int
	ConversationWindow int
	SummaryMaxChars    int
	ResponseLanguage   string
}

func Load() Config {
	return Config{
		APIAddr:            resolveAddr(),
		Env:                strings.ToLower(getenv("APP_ENV", "development")),
		LogLevel:           getenv("LOG_LEVEL", "info"),
		UploadDir:          getenv("UPLOAD_DIR", "uploads"),
		MaxFileSize:        getenvInt64("MAX_FILE_SIZE", 200*1024*1024),
		AIProvider:         strings.ToLower(getenv("AI_PROVIDER", "deepseek")),
		AITimeoutSecs:      getenvInt("AI_TIMEOUT_SECONDS", 60),
		AIMaxRetries:       getenvInt("AI_MAX_RETRIES", 2),
		ConversationLimit:  getenvInt("CONVERSATION_LIMIT", 1000),
		ConversationTTLMin: getenvInt("CONVERSATION_TTL_MINUTES", 24*60),
		ConversationWindow: getenvInt("CONVERSATION_WINDOW", 10),
		SummaryMaxChars:    getenvInt("SUMMARY_MAX_CHARS", 100000),
		ResponseLanguage:   getenv("RESPONSE_LANGUAGE", "Chinese"),
	}
}

func (c Config) Production() bool {
	return c.Env == "production"
}

func (c Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSecs) * time.Second
}

func (c Config) ConversationTTL() time.Duration {
	return time.Duration(c.ConversationTTLMin) * time.Minute
}

// MaxFileSizeMB is the limit reported to clients on oversized uploads.
func (c Config) MaxFileSizeMB() float64 {
	return float64(c.MaxFileSize) / (1024 * 1024)
}

func resolveAddr() string {
	if v := os.Getenv("LEARNWISE_API_ADDR"); v != "" {
		return v
	}
	return ":" + getenv("PORT", "3001")
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvInt64(k string, fallback int64) int64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
