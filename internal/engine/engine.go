package engine

import (
	"sync"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"firechat/internal/engine/actors"
	"firechat/internal/models"
	"firechat/internal/storage"
	"firechat/internal/utils"
)

// Engine owns one session actor per signed-in user, each with its typing
// and presence children. Sessions are spawned on demand when a client
// connects and stopped when it disconnects.
type Engine struct {
	system *actor.ActorSystem
	deps   actors.SessionDeps

	mu       sync.Mutex
	sessions map[string]*actor.PID
}

func NewEngine(system *actor.ActorSystem, docs storage.DocumentStore, blobs storage.BlobStore, metrics *utils.MetricsCollector) *Engine {
	return &Engine{
		system: system,
		deps: actors.SessionDeps{
			Docs:          docs,
			Blobs:         blobs,
			Metrics:       metrics,
			TypingTimeout: actors.DefaultTypingTimeout,
		},
		sessions: make(map[string]*actor.PID),
	}
}

// SetSnapshotSink wires the websocket fan-out. Must be called before the
// first session starts.
func (e *Engine) SetSnapshotSink(sink actors.SnapshotSink) {
	e.deps.Sink = sink
}

// SetPresenceNotifier wires presence change pushes. Must be called before
// the first session starts.
func (e *Engine) SetPresenceNotifier(n actors.PresenceNotifier) {
	e.deps.Notifier = n
}

// SetTypingTimeout overrides the typing debounce window.
func (e *Engine) SetTypingTimeout(d time.Duration) {
	e.deps.TypingTimeout = d
}

// StartSession returns the session actor for identity, spawning it on
// first use.
func (e *Engine) StartSession(identity models.Identity) *actor.PID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if pid, ok := e.sessions[identity.UID]; ok {
		return pid
	}
	props := actor.PropsFromProducer(func() actor.Actor {
		return actors.NewSessionActor(identity, e.deps)
	})
	pid := e.system.Root.Spawn(props)
	e.sessions[identity.UID] = pid
	return pid
}

// Session returns the running session actor for uid, if any.
func (e *Engine) Session(uid string) (*actor.PID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pid, ok := e.sessions[uid]
	return pid, ok
}

// StopSession stops uid's session actor; its presence child marks the user
// offline on the way down.
func (e *Engine) StopSession(uid string) {
	e.mu.Lock()
	pid, ok := e.sessions[uid]
	delete(e.sessions, uid)
	e.mu.Unlock()

	if ok {
		e.system.Root.Stop(pid)
	}
}

// SessionCount reports the number of live sessions, for health reporting.
func (e *Engine) SessionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}
