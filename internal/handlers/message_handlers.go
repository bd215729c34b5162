package handlers

import (
	"net/http"

	"firechat/internal/engine/actors"
)

// OpenConversationRequest selects the conversation with a partner.
type OpenConversationRequest struct {
	Partner string `json:"partner"`
}

// SendMessageRequest composes a draft: any combination of text, one image
// and one audio clip. Binary fields travel base64-encoded.
type SendMessageRequest struct {
	Text  string `json:"text,omitempty"`
	Image []byte `json:"image,omitempty"`
	Audio []byte `json:"audio,omitempty"`
}

type ToggleReactionRequest struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

type ToggleSelectRequest struct {
	MessageID string `json:"messageId"`
}

type FocusRequest struct {
	Focused bool `json:"focused"`
}

func (s *Server) HandleOpenConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var req OpenConversationRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Partner == "" {
			http.Error(w, "Partner is required", http.StatusBadRequest)
			return
		}
		s.ask(w, pid, &actors.OpenConversation{Partner: req.Partner})
	}
}

func (s *Server) HandleCloseConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.ask(w, pid, &actors.CloseConversation{})
	}
}

func (s *Server) HandleGetConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.ask(w, pid, &actors.GetSessionState{})
	}
}

func (s *Server) HandleSendMessage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var req SendMessageRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s.ask(w, pid, &actors.SendDraft{
			Text:  req.Text,
			Image: req.Image,
			Audio: req.Audio,
		})
	}
}

func (s *Server) HandleToggleReaction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var req ToggleReactionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.MessageID == "" || req.Emoji == "" {
			http.Error(w, "messageId and emoji are required", http.StatusBadRequest)
			return
		}
		s.ask(w, pid, &actors.ToggleReaction{MessageID: req.MessageID, Emoji: req.Emoji})
	}
}

func (s *Server) HandleToggleSelect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var req ToggleSelectRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.MessageID == "" {
			http.Error(w, "messageId is required", http.StatusBadRequest)
			return
		}
		s.ask(w, pid, &actors.ToggleSelect{MessageID: req.MessageID})
	}
}

func (s *Server) HandleDeleteSelected() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.ask(w, pid, &actors.DeleteSelected{})
	}
}

func (s *Server) HandleClearConversation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.ask(w, pid, &actors.ClearConversation{})
	}
}

// HandleTyping and HandleFocus are fire-and-forget: the session actor does
// not acknowledge them.
func (s *Server) HandleTyping() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.Context.Send(pid, &actors.Keystroke{})
		w.WriteHeader(http.StatusAccepted)
	}
}

func (s *Server) HandleFocus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pid, _, ok := s.session(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		var req FocusRequest
		if !decodeBody(w, r, &req) {
			return
		}
		s.Context.Send(pid, &actors.SetFocus{Focused: req.Focused})
		w.WriteHeader(http.StatusAccepted)
	}
}
