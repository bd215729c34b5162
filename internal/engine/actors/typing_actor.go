package actors

import (
	"context"
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"firechat/internal/storage"
)

// DefaultTypingTimeout is how long after the last keystroke the typing
// signal is cleared.
const DefaultTypingTimeout = 2 * time.Second

// Message types for TypingActor
type (
	// Keystroke restarts the debounce countdown and points typingTo at
	// the partner being typed to.
	Keystroke struct {
		Partner string
	}

	// TypingMessageSent clears the typing signal immediately, countdown
	// or not.
	TypingMessageSent struct{}
)

// TypingActor maintains one user's debounced "currently typing to" signal.
// Each keystroke re-arms the actor's receive timeout; expiry with no
// further keystrokes clears typingTo. There is only ever one outstanding
// countdown per user because the actor owns a single timer.
type TypingActor struct {
	docs    storage.DocumentStore
	uid     string
	timeout time.Duration

	typingTo string
}

func NewTypingActor(docs storage.DocumentStore, uid string, timeout time.Duration) actor.Actor {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &TypingActor{
		docs:    docs,
		uid:     uid,
		timeout: timeout,
	}
}

func (a *TypingActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *Keystroke:
		if a.typingTo != msg.Partner {
			a.typingTo = msg.Partner
			a.merge(msg.Partner)
		}
		context.SetReceiveTimeout(a.timeout)

	case *TypingMessageSent:
		context.CancelReceiveTimeout()
		a.clear()

	case *actor.ReceiveTimeout:
		context.CancelReceiveTimeout()
		a.clear()

	case *actor.Stopping:
		// Session teardown must not leave a dangling typing signal.
		a.clear()
	}
}

func (a *TypingActor) clear() {
	if a.typingTo == "" {
		return
	}
	a.typingTo = ""
	a.merge("")
}

// merge writes typingTo fire-and-forget; presence writes are best-effort
// and never surface to the caller.
func (a *TypingActor) merge(partner string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.docs.MergePresence(ctx, a.uid, storage.Fields{"typingTo": partner}); err != nil {
		log.Printf("Failed to update typing signal for %s: %v", a.uid, err)
	}
}
