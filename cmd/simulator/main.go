package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"firechat/internal/engine"
	"firechat/internal/engine/actors"
	"firechat/internal/models"
	"firechat/internal/storage"
	"firechat/internal/utils"
)

// The simulator drives two in-process clients through a full conversation
// over the in-memory store: open, type, send, react, mark read, delete.
// Useful for eyeballing the snapshot flow without a MongoDB instance.

var (
	rounds  = flag.Int("rounds", 5, "message exchanges to simulate")
	timeout = flag.Duration("timeout", 5*time.Second, "per-request timeout")
)

func main() {
	flag.Parse()

	docs := storage.NewMemory()
	blobs := storage.NewMemoryBlobs()
	metrics := utils.NewMetricsCollector()
	system := actor.NewActorSystem()

	eng := engine.NewEngine(system, docs, blobs, metrics)
	eng.SetTypingTimeout(200 * time.Millisecond)

	alice := models.Identity{UID: "alice", Name: "Alice", Email: "alice@example.com"}
	bob := models.Identity{UID: "bob", Name: "Bob", Email: "bob@example.com"}

	alicePID := eng.StartSession(alice)
	bobPID := eng.StartSession(bob)

	ask(system, alicePID, &actors.OpenConversation{Partner: bob.UID})
	ask(system, bobPID, &actors.OpenConversation{Partner: alice.UID})

	start := time.Now()
	var lastID string
	for i := 0; i < *rounds; i++ {
		system.Root.Send(alicePID, &actors.Keystroke{})
		result := ask(system, alicePID, &actors.SendDraft{Text: fmt.Sprintf("hello #%d", i+1)})
		if sent, ok := result.(*actors.SendResult); ok && sent.Message != nil {
			lastID = sent.Message.ID
		}

		ask(system, bobPID, &actors.SendDraft{Text: fmt.Sprintf("hi back #%d", i+1)})
	}

	if lastID != "" {
		ask(system, bobPID, &actors.ToggleReaction{MessageID: lastID, Emoji: "👍"})
		ask(system, bobPID, &actors.ToggleReaction{MessageID: lastID, Emoji: "❤️"})
	}

	// Let the feed settle, then read both views.
	time.Sleep(300 * time.Millisecond)

	state := ask(system, alicePID, &actors.GetSessionState{}).(*actors.SessionState)
	if state.Conversation == nil {
		log.Fatal("simulation produced no conversation")
	}

	fmt.Printf("Simulated %d rounds in %v\n", *rounds, time.Since(start))
	fmt.Printf("Conversation %s: %d messages, preview %q\n",
		state.Conversation.ID, len(state.Conversation.Messages), state.Conversation.LastMessagePreview)
	for _, msg := range state.Conversation.Messages {
		fmt.Printf("  [%s] %s -> %s: %q reactions=%v\n",
			msg.Status, msg.From, msg.To, msg.Text, msg.Reactions)
	}

	eng.StopSession(alice.UID)
	eng.StopSession(bob.UID)
}

func ask(system *actor.ActorSystem, pid *actor.PID, msg interface{}) interface{} {
	future := system.Root.RequestFuture(pid, msg, *timeout)
	result, err := future.Result()
	if err != nil {
		log.Fatalf("request %T failed: %v", msg, err)
	}
	if appErr, ok := result.(*utils.AppError); ok {
		log.Fatalf("request %T rejected: %v", msg, appErr)
	}
	return result
}
