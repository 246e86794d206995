package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
	Context        string `json:"context"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	turn, err := s.chat.AppendTurn(r.Context(), req.ConversationID, req.Message, req.Context)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"conversationId": turn.ConversationID,
		"response":       turn.Response,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.chat.History(r.Context(), mux.Vars(r)["conversationId"])
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.chat.Clear(r.Context(), mux.Vars(r)["conversationId"]); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
