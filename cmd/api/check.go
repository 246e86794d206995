package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"learnwise/internal/config"
	"learnwise/internal/models"
	"learnwise/internal/providers"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func checkConfigCmd() *cobra.Command {
	var call bool
	cmd := &cobra.Command{
		Use:   "check-config",
		Short: "Print the resolved AI provider configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			return checkConfig(cmd.Context(), cmd.OutOrStdout(), cfg, os.Getenv, call)
		},
	}
	cmd.Flags().BoolVar(&call, "call", false, "send a short test message to the provider")
	return cmd
}

func checkConfig(ctx context.Context, out io.Writer, cfg config.Config, getenv func(string) string, call bool) error {
	ai := providers.ResolveConfig(cfg.AIProvider, getenv)
	fmt.Fprintln(out, "=== AI configuration ===")
	if !ai.Known {
		fmt.Fprintf(out, "unsupported provider %q, choose one of: %s\n", ai.Provider, strings.Join(providers.Names(), ", "))
		return fmt.Errorf("unsupported provider %q", ai.Provider)
	}
	fmt.Fprintf(out, "- provider: %s\n", ai.Provider)
	fmt.Fprintf(out, "- model:    %s\n", ai.Model)
	fmt.Fprintf(out, "- base URL: %s\n", ai.BaseURL)
	switch {
	case ai.Keyless:
		fmt.Fprintln(out, "- API key:  not required")
	case ai.HasAPIKey:
		fmt.Fprintf(out, "- API key:  %s (%d chars, from %s)\n", ai.APIKeyPrefix(), len(ai.APIKey), ai.KeyEnv)
		if ai.Provider == "deepseek" && !strings.HasPrefix(ai.APIKey, "sk-") {
			fmt.Fprintln(out, "  warning: DeepSeek keys usually start with \"sk-\"")
		}
	default:
		fmt.Fprintf(out, "- API key:  not configured, set %s in .env\n", ai.KeyEnv)
	}

	fmt.Fprintln(out, "\n=== Environment ===")
	provider := getenv("AI_PROVIDER")
	if provider == "" {
		provider = "not set (default deepseek)"
	}
	fmt.Fprintf(out, "- AI_PROVIDER: %s\n", provider)
	for _, env := range []string{"DEEPSEEK_API_KEY", "OPENAI_API_KEY", "QWEN_API_KEY", "DASHSCOPE_API_KEY", "ZHIPU_API_KEY", "MOONSHOT_API_KEY", "GROQ_API_KEY"} {
		state := "not set"
		if getenv(env) != "" {
			state = "set"
		}
		fmt.Fprintf(out, "- %s: %s\n", env, state)
	}

	if !call {
		return nil
	}
	fmt.Fprintln(out, "\n=== Test call ===")
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.AITimeout())
	defer cancel()
	gw := providers.NewGateway(providers.Options{
		Provider:   cfg.AIProvider,
		Timeout:    cfg.AITimeout(),
		MaxRetries: 0,
		Getenv:     getenv,
		Logger:     log.New(io.Discard),
	})
	start := time.Now()
	reply, err := gw.Chat(ctx, []models.Message{{Role: models.RoleUser, Content: "Reply with the single word: ok"}}, providers.ChatOptions{MaxTokens: 16})
	if err != nil {
		var ge *providers.Error
		if errors.As(err, &ge) {
			fmt.Fprintf(out, "failed (%s): %s\n%s\n", ge.Kind, ge.Message, ge.Details)
		} else {
			fmt.Fprintf(out, "failed: %v\n", err)
		}
		return err
	}
	fmt.Fprintf(out, "ok in %s: %s\n", time.Since(start).Round(time.Millisecond), strings.TrimSpace(reply))
	return nil
}
