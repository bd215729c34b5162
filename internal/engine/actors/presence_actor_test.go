package actors

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"

	"firechat/internal/models"
	"firechat/internal/storage"
)

type presenceRecorder struct {
	mu     sync.Mutex
	events []models.UserPresence
}

func (r *presenceRecorder) PresenceChanged(p models.UserPresence) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, p)
}

func (r *presenceRecorder) last() (models.UserPresence, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return models.UserPresence{}, false
	}
	return r.events[len(r.events)-1], true
}

func onlineState(docs storage.DocumentStore, uid string) (bool, bool) {
	p, err := docs.GetPresence(context.Background(), uid)
	if err != nil {
		return false, false
	}
	return p.IsOnline, true
}

func TestPresenceFollowsActorLifecycle(t *testing.T) {
	docs := storage.NewMemory()
	recorder := &presenceRecorder{}
	system := actor.NewActorSystem()
	identity := models.Identity{UID: "alice", Name: "Alice", Email: "alice@example.com"}

	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPresenceActor(docs, identity, recorder)
	}))

	// Started marks the user online and refreshes the profile triple.
	assert.Eventually(t, func() bool {
		online, ok := onlineState(docs, "alice")
		return ok && online
	}, time.Second, 10*time.Millisecond)

	p, err := docs.GetPresence(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.False(t, p.LastSeen.IsZero())
	assert.Equal(t, "Online", p.StatusLine())

	// Stopping marks the user offline; there is no unload hook to miss.
	system.Root.Stop(pid)
	assert.Eventually(t, func() bool {
		online, ok := onlineState(docs, "alice")
		return ok && !online
	}, time.Second, 10*time.Millisecond)

	p, err = docs.GetPresence(context.Background(), "alice")
	assert.NoError(t, err)
	assert.Contains(t, p.StatusLine(), "Last seen ")

	last, ok := recorder.last()
	assert.True(t, ok)
	assert.False(t, last.IsOnline)
}

func TestGoOfflineAndBackOnline(t *testing.T) {
	docs := storage.NewMemory()
	system := actor.NewActorSystem()
	identity := models.Identity{UID: "alice", Name: "Alice"}

	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewPresenceActor(docs, identity, nil)
	}))
	defer system.Root.Stop(pid)

	assert.Eventually(t, func() bool {
		online, ok := onlineState(docs, "alice")
		return ok && online
	}, time.Second, 10*time.Millisecond)

	system.Root.Send(pid, &GoOffline{})
	assert.Eventually(t, func() bool {
		online, ok := onlineState(docs, "alice")
		return ok && !online
	}, time.Second, 10*time.Millisecond)

	system.Root.Send(pid, &GoOnline{})
	assert.Eventually(t, func() bool {
		online, ok := onlineState(docs, "alice")
		return ok && online
	}, time.Second, 10*time.Millisecond)
}
