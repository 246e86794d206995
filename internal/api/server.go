package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"learnwise/internal/config"
	"learnwise/internal/conversation"
	"learnwise/internal/providers"
	"learnwise/internal/storage"
	"learnwise/internal/summary"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

type Server struct {
	cfg     config.Config
	files   *storage.FileStore
	ai      *providers.Gateway
	chat    *conversation.Service
	summary *summary.Service
	logger  *log.Logger
}

func NewServer(cfg config.Config, gw *providers.Gateway, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	files, err := storage.NewFileStore(cfg.UploadDir, cfg.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("open upload store: %w", err)
	}
	store := conversation.NewMemoryStore(cfg.ConversationLimit, cfg.ConversationTTL())
	return &Server{
		cfg:   cfg,
		files: files,
		ai:    gw,
		chat: conversation.NewService(store, gw, conversation.ServiceOptions{
			Window:       cfg.ConversationWindow,
			SystemPrompt: conversation.SystemPrompt(cfg.ResponseLanguage),
			Logger:       logger,
		}),
		summary: summary.NewService(gw, cfg.ResponseLanguage, cfg.SummaryMaxChars, logger),
		logger:  logger,
	}, nil
}

// Routes serves every endpoint at the root and again under /api.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	s.register(r)
	s.register(r.PathPrefix("/api").Subrouter())
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
	})
	return s.logRequests(s.recoverPanics(withCORS(r)))
}

func (s *Server) register(r *mux.Router) {
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/upload", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/upload/{fileId}/content", s.handleContent).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/upload/{fileId}/content", handleContentPreflight).Methods(http.MethodOptions)

	r.HandleFunc("/ai/summary", s.handleSummary).Methods(http.MethodPost)
	r.HandleFunc("/ai/summary/file/{fileId}", s.handleFileSummary).Methods(http.MethodPost)
	r.HandleFunc("/ai/config", s.handleAIConfig).Methods(http.MethodGet)

	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	r.HandleFunc("/chat/{conversationId}", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/chat/{conversationId}", s.handleClear).Methods(http.MethodDelete)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 16<<20))
	if err := dec.Decode(v); err != nil {
		return validationf("invalid json: %v", err)
	}
	return nil
}
