// Package summary builds study-summary prompts and runs them through the AI
// gateway.
package summary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"learnwise/internal/extract"
	"learnwise/internal/models"
	"learnwise/internal/providers"
	"learnwise/internal/storage"
	"learnwise/internal/util"

	"github.com/charmbracelet/log"
)

type Kind string

const (
	KindText  Kind = "text"
	KindCode  Kind = "code"
	KindVideo Kind = "video"
)

const systemPrompt = "You are a professional study assistant who writes clear, well-structured summaries of all kinds of study material."

var ErrEmptyContent = errors.New("content must not be empty")

// ParseKind maps a request type onto a template. Unknown values use the
// general text template.
func ParseKind(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCode:
		return KindCode
	case KindVideo:
		return KindVideo
	default:
		return KindText
	}
}

// KindForFile picks the template for a stored file name.
func KindForFile(name string) Kind {
	if storage.IsCode(name) {
		return KindCode
	}
	return KindText
}

func Prompt(kind Kind, content, language string) string {
	if language == "" {
		language = "English"
	}
	var b strings.Builder
	switch kind {
	case KindCode:
		b.WriteString("Write a detailed summary of the following code, covering:\n")
		b.WriteString("1. What the code mainly does\n2. Key technologies and libraries used\n3. How the code is structured\n4. Key algorithms or logic\n5. Possible improvements\n\nCode:\n")
	case KindVideo:
		b.WriteString("Summarize the following video transcript, covering:\n")
		b.WriteString("1. Topic and main content of the video\n2. Key knowledge points\n3. Explanations of important concepts\n4. Study takeaways\n\nVideo content:\n")
	default:
		b.WriteString("Write a detailed summary of the following study material, covering:\n")
		b.WriteString("1. Overview of the main content\n2. Core knowledge points\n3. Important concepts\n4. Study takeaways\n\nContent:\n")
	}
	b.WriteString(content)
	b.WriteString("\n\nAnswer in ")
	b.WriteString(language)
	b.WriteString(":")
	return b.String()
}

func Messages(kind Kind, content, language string) []models.Message {
	return []models.Message{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: Prompt(kind, content, language)},
	}
}

type Chatter interface {
	Chat(ctx context.Context, msgs []models.Message, opts providers.ChatOptions) (string, error)
}

type Service struct {
	ai       Chatter
	language string
	maxChars int
	logger   *log.Logger
}

func NewService(ai Chatter, language string, maxChars int, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{ai: ai, language: language, maxChars: maxChars, logger: logger.WithPrefix("summary")}
}

// Summarize asks the gateway for a summary of content. Content beyond the
// configured character budget is cut on a rune boundary.
func (s *Service) Summarize(ctx context.Context, content string, kind Kind) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	if s.maxChars > 0 {
		var cut bool
		content, cut = util.TruncateRunes(content, s.maxChars)
		if cut {
			s.logger.Warn("content truncated for summary", "max_chars", s.maxChars)
		}
	}
	return s.ai.Chat(ctx, Messages(kind, content, s.language), providers.ChatOptions{
		Temperature: providers.Float(providers.DefaultTemperature),
		MaxTokens:   providers.DefaultMaxTokens,
	})
}

// SummarizeFile extracts the text of a stored file and summarizes it.
func (s *Service) SummarizeFile(ctx context.Context, path, name string) (string, error) {
	text, err := extract.Text(path)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", name, err)
	}
	return s.Summarize(ctx, text, KindForFile(name))
}
