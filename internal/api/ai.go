package api

import (
	"net/http"

	"learnwise/internal/summary"

	"github.com/gorilla/mux"
)

type summaryRequest struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if req.Content == "" {
		s.writeErr(w, r, validationf("content is required"))
		return
	}
	text, err := s.summary.Summarize(r.Context(), req.Content, summary.ParseKind(req.Type))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": text})
}

func (s *Server) handleFileSummary(w http.ResponseWriter, r *http.Request) {
	h, err := s.files.Retrieve(mux.Vars(r)["fileId"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	path, info := h.Name(), h.Info
	_ = h.Close()

	text, err := s.summary.SummarizeFile(r.Context(), path, info.ID)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "summary": text, "fileId": info.ID})
}

func (s *Server) handleAIConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.ai.ResolveConfig()
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":     cfg.Provider,
		"model":        cfg.Model,
		"baseURL":      cfg.BaseURL,
		"hasApiKey":    cfg.HasAPIKey,
		"apiKeyPrefix": cfg.APIKeyPrefix(),
	})
}
