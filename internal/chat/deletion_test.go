package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"firechat/internal/models"
	"firechat/internal/storage"
)

func seedConversation(t *testing.T, store *ConversationStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		err := store.Append(context.Background(), "alice_bob", []string{"alice", "bob"},
			models.Message{ID: id, From: "alice", To: "bob", Text: "msg " + id, Status: models.StatusSent})
		assert.NoError(t, err)
	}
}

func TestSelectionIsLocalAndEphemeral(t *testing.T) {
	sel := NewSelection()
	sel.Toggle("m1")
	sel.Toggle("m2")
	assert.Equal(t, 2, sel.Len())
	assert.True(t, sel.Has("m1"))

	sel.Toggle("m1") // toggling off
	assert.False(t, sel.Has("m1"))
	assert.ElementsMatch(t, []string{"m2"}, sel.IDs())

	sel.Clear()
	assert.Equal(t, 0, sel.Len())
}

func TestDeleteMessagesRemovesExactlyTheGivenIDs(t *testing.T) {
	docs := storage.NewMemory()
	store := NewConversationStore(docs)
	eraser := NewEraser(store)
	ctx := context.Background()

	seedConversation(t, store, "m1", "m2", "m3", "m4")

	assert.NoError(t, eraser.DeleteMessages(ctx, "alice_bob", []string{"m2", "m3"}))

	conv, err := store.Read(ctx, "alice_bob")
	assert.NoError(t, err)
	assert.Len(t, conv.Messages, 2)
	// Survivors keep their relative order.
	assert.Equal(t, "m1", conv.Messages[0].ID)
	assert.Equal(t, "m4", conv.Messages[1].ID)
	assert.Equal(t, "msg m4", conv.LastMessagePreview)
}

func TestDeleteMessagesWithNoMatchesWritesNothing(t *testing.T) {
	docs := storage.NewMemory()
	store := NewConversationStore(docs)
	eraser := NewEraser(store)
	ctx := context.Background()

	seedConversation(t, store, "m1")

	assert.NoError(t, eraser.DeleteMessages(ctx, "alice_bob", []string{"unknown"}))
	assert.NoError(t, eraser.DeleteMessages(ctx, "alice_bob", nil))

	conv, err := store.Read(ctx, "alice_bob")
	assert.NoError(t, err)
	assert.Len(t, conv.Messages, 1)
}

func TestDeleteConversationRetainsTheDocument(t *testing.T) {
	docs := storage.NewMemory()
	store := NewConversationStore(docs)
	eraser := NewEraser(store)
	ctx := context.Background()

	seedConversation(t, store, "m1", "m2")

	assert.NoError(t, eraser.DeleteConversation(ctx, "alice_bob"))

	conv, err := store.Read(ctx, "alice_bob")
	assert.NoError(t, err)
	assert.Empty(t, conv.Messages)
	assert.Equal(t, "", conv.LastMessagePreview)
	// The row survives with its identity intact.
	assert.Equal(t, "alice_bob", conv.ID)
	assert.Equal(t, []string{"alice", "bob"}, conv.Participants)
}
