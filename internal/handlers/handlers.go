package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"firechat/internal/engine"
	"firechat/internal/middleware"
	"firechat/internal/models"
	"firechat/internal/storage"
	"firechat/internal/utils"
	"firechat/internal/websocket"
)

// Server holds all gateway dependencies: the actor system running the
// session engine, the document store for direct reads, and the hub used
// to push snapshots out.
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Docs           storage.DocumentStore
	Hub            *websocket.Hub
	Metrics        *utils.MetricsCollector
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(system *actor.ActorSystem, eng *engine.Engine, docs storage.DocumentStore, hub *websocket.Hub, metrics *utils.MetricsCollector) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Docs:           docs,
		Hub:            hub,
		Metrics:        metrics,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// Routes assembles the gateway router.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.HandleHealth()).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.Metrics.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.HandleWebSocket())

	api := r.PathPrefix("/").Subrouter()
	api.Use(middleware.RequireIdentity)
	api.HandleFunc("/conversations/open", s.HandleOpenConversation()).Methods(http.MethodPost)
	api.HandleFunc("/conversations/close", s.HandleCloseConversation()).Methods(http.MethodPost)
	api.HandleFunc("/conversations", s.HandleGetConversation()).Methods(http.MethodGet)
	api.HandleFunc("/conversations", s.HandleClearConversation()).Methods(http.MethodDelete)
	api.HandleFunc("/messages", s.HandleSendMessage()).Methods(http.MethodPost)
	api.HandleFunc("/messages", s.HandleDeleteSelected()).Methods(http.MethodDelete)
	api.HandleFunc("/selection", s.HandleToggleSelect()).Methods(http.MethodPost)
	api.HandleFunc("/reactions", s.HandleToggleReaction()).Methods(http.MethodPost)
	api.HandleFunc("/typing", s.HandleTyping()).Methods(http.MethodPost)
	api.HandleFunc("/focus", s.HandleFocus()).Methods(http.MethodPost)
	api.HandleFunc("/presence/{uid}", s.HandleGetPresence()).Methods(http.MethodGet)
	return r
}

// session resolves the caller's running session actor, starting one if
// needed.
func (s *Server) session(r *http.Request) (*actor.PID, models.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return nil, models.Identity{}, false
	}
	return s.Engine.StartSession(identity), identity, true
}

// ask round-trips a command through a session actor and writes the reply.
func (s *Server) ask(w http.ResponseWriter, pid *actor.PID, msg interface{}) {
	s.Metrics.IncrementRequests()
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		s.Metrics.IncrementErrors()
		writeAppError(w, utils.NewAppError(utils.ErrActorTimeout, "session did not respond", err))
		return
	}
	if appErr, ok := result.(*utils.AppError); ok {
		s.Metrics.IncrementErrors()
		writeAppError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeAppError(w http.ResponseWriter, appErr *utils.AppError) {
	writeJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), map[string]string{
		"code":  appErr.Code,
		"error": appErr.Message,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
