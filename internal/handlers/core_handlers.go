package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"firechat/internal/storage"
	"firechat/internal/utils"
)

func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "Firechat Status:\n- Active Sessions: %d\n", s.Engine.SessionCount())
	}
}

// HandleGetPresence serves another user's presence document, the data
// behind the "Online" / "Last seen" line.
func (s *Server) HandleGetPresence() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := mux.Vars(r)["uid"]
		p, err := s.Docs.GetPresence(r.Context(), uid)
		if err == storage.ErrNotFound {
			writeAppError(w, utils.NewNotFoundError("user "+uid))
			return
		}
		if err != nil {
			writeAppError(w, utils.NewStoreUnavailableError("presence read", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"presence":   p,
			"statusLine": p.StatusLine(),
		})
	}
}
