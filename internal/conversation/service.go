package conversation

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"sync"

	"learnwise/internal/models"
	"learnwise/internal/providers"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const DefaultWindow = 10

var (
	ErrEmptyMessage = errors.New("message must not be empty")
	ErrNotFound     = errors.New("conversation not found")
)

// Chatter is the slice of the AI gateway the service needs.
type Chatter interface {
	Chat(ctx context.Context, msgs []models.Message, opts providers.ChatOptions) (string, error)
}

type Turn struct {
	ConversationID string `json:"conversationId"`
	Response       string `json:"response"`
}

// SystemPrompt is the chat instruction, answering in language.
func SystemPrompt(language string) string {
	p := "You are a professional study assistant. You help students understand their study materials, answer their questions and give study advice."
	if language != "" {
		p += " Answer in " + language + "."
	}
	return p
}

type Service struct {
	store  Store
	ai     Chatter
	window int
	system string
	logger *log.Logger
	locks  [64]sync.Mutex
}

type ServiceOptions struct {
	Window       int
	SystemPrompt string
	Logger       *log.Logger
}

func NewService(store Store, ai Chatter, opts ServiceOptions) *Service {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = SystemPrompt("")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Service{
		store:  store,
		ai:     ai,
		window: opts.Window,
		system: opts.SystemPrompt,
		logger: opts.Logger.WithPrefix("chat"),
	}
}

func (s *Service) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%uint32(len(s.locks))]
}

// AppendTurn sends userText with the recent history of id and records both
// sides of the exchange once the gateway answers. An empty id starts a new
// conversation. Turns on the same id are applied one at a time.
func (s *Service) AppendTurn(ctx context.Context, id, userText, contextText string) (Turn, error) {
	if strings.TrimSpace(userText) == "" {
		return Turn{}, ErrEmptyMessage
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = uuid.NewString()
	}

	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	history, _, err := s.store.Get(ctx, id)
	if err != nil {
		return Turn{}, fmt.Errorf("load conversation %s: %w", id, err)
	}
	user := models.Message{Role: models.RoleUser, Content: userText}
	reply, err := s.ai.Chat(ctx, s.contextWindow(history, user, contextText), providers.ChatOptions{})
	if err != nil {
		return Turn{}, err
	}
	if err := s.store.Append(ctx, id, user, models.Message{Role: models.RoleAssistant, Content: reply}); err != nil {
		return Turn{}, fmt.Errorf("save conversation %s: %w", id, err)
	}
	s.logger.Debug("turn recorded", "conversation", id, "history", len(history)+2)
	return Turn{ConversationID: id, Response: reply}, nil
}

// contextWindow builds [system] + the most recent entries of history+user.
func (s *Service) contextWindow(history []models.Message, user models.Message, contextText string) []models.Message {
	recent := append(history, user)
	if len(recent) > s.window {
		recent = recent[len(recent)-s.window:]
	}
	system := s.system
	if c := strings.TrimSpace(contextText); c != "" {
		system += "\n\nContext from the current study material:\n" + c
	}
	out := make([]models.Message, 0, len(recent)+1)
	out = append(out, models.Message{Role: models.RoleSystem, Content: system})
	return append(out, recent...)
}

// History returns a copy of the stored turns of id.
func (s *Service) History(ctx context.Context, id string) ([]models.Message, error) {
	msgs, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return msgs, nil
}

// Clear drops id. Unknown ids are not an error.
func (s *Service) Clear(ctx context.Context, id string) error {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()
	return s.store.Delete(ctx, id)
}
