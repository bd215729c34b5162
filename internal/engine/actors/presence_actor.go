package actors

import (
	"context"
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"firechat/internal/models"
	"firechat/internal/storage"
)

// Message types for PresenceActor
type (
	// GoOnline marks the session active again (reconnect, tab visible).
	GoOnline struct{}

	// GoOffline marks the session inactive (disconnect, tab hidden).
	GoOffline struct{}
)

// PresenceNotifier pushes presence changes to connected peers. Optional.
type PresenceNotifier interface {
	PresenceChanged(p models.UserPresence)
}

// PresenceActor maintains one user's online/offline and last-seen state.
// Startup and shutdown are tied to the actor lifecycle rather than
// best-effort page-unload hooks: Started marks the user online, Stopping
// marks them offline. All writes are fire-and-forget; no component awaits
// an acknowledgement.
type PresenceActor struct {
	docs     storage.DocumentStore
	identity models.Identity
	notifier PresenceNotifier
}

func NewPresenceActor(docs storage.DocumentStore, identity models.Identity, notifier PresenceNotifier) actor.Actor {
	return &PresenceActor{
		docs:     docs,
		identity: identity,
		notifier: notifier,
	}
}

func (a *PresenceActor) Receive(context actor.Context) {
	switch context.Message().(type) {
	case *actor.Started:
		a.setOnline(true)
	case *GoOnline:
		a.setOnline(true)
	case *GoOffline:
		a.setOnline(false)
	case *actor.Stopping:
		a.setOnline(false)
	}
}

func (a *PresenceActor) setOnline(online bool) {
	now := models.Now()
	fields := storage.Fields{
		"isOnline": online,
		"lastSeen": now,
	}
	// Keep the profile triple current on the way online; it is what the
	// partner's sidebar renders.
	if online {
		fields["name"] = a.identity.Name
		fields["email"] = a.identity.Email
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.docs.MergePresence(ctx, a.identity.UID, fields); err != nil {
		log.Printf("Failed to update presence for %s: %v", a.identity.UID, err)
		return
	}

	if a.notifier != nil {
		a.notifier.PresenceChanged(models.UserPresence{
			UID:      a.identity.UID,
			Name:     a.identity.Name,
			Email:    a.identity.Email,
			IsOnline: online,
			LastSeen: now,
		})
	}
}
