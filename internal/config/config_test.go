package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"LEARNWISE_API_ADDR", "PORT", "APP_ENV", "UPLOAD_DIR", "MAX_FILE_SIZE", "AI_PROVIDER", "CONVERSATION_WINDOW"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	require.Equal(t, ":3001", cfg.APIAddr)
	require.Equal(t, "uploads", cfg.UploadDir)
	require.Equal(t, int64(200*1024*1024), cfg.MaxFileSize)
	require.Equal(t, float64(200), cfg.MaxFileSizeMB())
	require.Equal(t, "deepseek", cfg.AIProvider)
	require.Equal(t, 10, cfg.ConversationWindow)
	require.Equal(t, 60*time.Second, cfg.AITimeout())
	require.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LEARNWISE_API_ADDR", "")
	t.Setenv("PORT", "9000")
	t.Setenv("MAX_FILE_SIZE", "1048576")
	t.Setenv("AI_PROVIDER", "Qwen")
	t.Setenv("APP_ENV", "Production")
	t.Setenv("CONVERSATION_WINDOW", "not-a-number")
	cfg := Load()
	require.Equal(t, ":9000", cfg.APIAddr)
	require.Equal(t, int64(1048576), cfg.MaxFileSize)
	require.Equal(t, float64(1), cfg.MaxFileSizeMB())
	require.Equal(t, "qwen", cfg.AIProvider)
	require.True(t, cfg.Production())
	require.Equal(t, 10, cfg.ConversationWindow)
}

func TestLoadRejectsNonPositiveSize(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE", "-5")
	require.Equal(t, int64(200*1024*1024), Load().MaxFileSize)
}
