package actors

import (
	"context"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"

	"firechat/internal/storage"
)

func spawnTyping(t *testing.T, docs storage.DocumentStore, timeout time.Duration) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	pid := system.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewTypingActor(docs, "alice", timeout)
	}))
	return system, pid
}

func typingTo(docs storage.DocumentStore, uid string) string {
	p, err := docs.GetPresence(context.Background(), uid)
	if err != nil {
		return ""
	}
	return p.TypingTo
}

func TestKeystrokesDebounceToOneClear(t *testing.T) {
	docs := storage.NewMemory()
	system, pid := spawnTyping(t, docs, 100*time.Millisecond)
	defer system.Root.Stop(pid)

	// Keystrokes spread over more than one debounce window. Each keystroke
	// restarts the countdown, so the signal holds through the burst.
	for i := 0; i < 5; i++ {
		system.Root.Send(pid, &Keystroke{Partner: "bob"})
		time.Sleep(40 * time.Millisecond)
	}
	assert.Equal(t, "bob", typingTo(docs, "alice"))

	// One clear lands after the last keystroke goes quiet.
	assert.Eventually(t, func() bool {
		return typingTo(docs, "alice") == ""
	}, time.Second, 10*time.Millisecond)
}

func TestSendClearsTypingImmediately(t *testing.T) {
	docs := storage.NewMemory()
	system, pid := spawnTyping(t, docs, 10*time.Second)
	defer system.Root.Stop(pid)

	system.Root.Send(pid, &Keystroke{Partner: "bob"})
	assert.Eventually(t, func() bool {
		return typingTo(docs, "alice") == "bob"
	}, time.Second, 10*time.Millisecond)

	// Countdown is nowhere near expiry; the send clears anyway.
	system.Root.Send(pid, &TypingMessageSent{})
	assert.Eventually(t, func() bool {
		return typingTo(docs, "alice") == ""
	}, time.Second, 10*time.Millisecond)
}

func TestKeystrokeRetargetsPartner(t *testing.T) {
	docs := storage.NewMemory()
	system, pid := spawnTyping(t, docs, 10*time.Second)
	defer system.Root.Stop(pid)

	system.Root.Send(pid, &Keystroke{Partner: "bob"})
	system.Root.Send(pid, &Keystroke{Partner: "carol"})

	assert.Eventually(t, func() bool {
		return typingTo(docs, "alice") == "carol"
	}, time.Second, 10*time.Millisecond)
}

func TestStopClearsDanglingSignal(t *testing.T) {
	docs := storage.NewMemory()
	system, pid := spawnTyping(t, docs, 10*time.Second)

	system.Root.Send(pid, &Keystroke{Partner: "bob"})
	assert.Eventually(t, func() bool {
		return typingTo(docs, "alice") == "bob"
	}, time.Second, 10*time.Millisecond)

	system.Root.Stop(pid)
	assert.Eventually(t, func() bool {
		return typingTo(docs, "alice") == ""
	}, time.Second, 10*time.Millisecond)
}
