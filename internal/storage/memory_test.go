package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"firechat/internal/models"
)

func appendMsg(t *testing.T, m *Memory, msg models.Message) {
	t.Helper()
	err := m.AppendMessage(context.Background(), "alice_bob", []string{"alice", "bob"}, msg,
		Fields{"lastMessagePreview": msg.Preview(), "updatedAt": models.Now()})
	assert.NoError(t, err)
}

func receiveSnapshot(t *testing.T, sub *Subscription) *models.Conversation {
	t.Helper()
	select {
	case conv := <-sub.C:
		return conv
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestGetConversationNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetConversation(context.Background(), "alice_bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAppendCreatesThenMerges(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one"})
	appendMsg(t, m, models.Message{ID: "m2", From: "bob", To: "alice", Text: "two"})

	conv, err := m.GetConversation(ctx, "alice_bob")
	assert.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, conv.Participants)
	assert.Len(t, conv.Messages, 2)
	assert.Equal(t, "two", conv.LastMessagePreview)
}

func TestReplaceMessagesRequiresDocument(t *testing.T) {
	m := NewMemory()
	err := m.ReplaceMessages(context.Background(), "alice_bob", 0, nil, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceMessagesIsVersionGuarded(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one"})
	conv, err := m.GetConversation(ctx, "alice_bob")
	assert.NoError(t, err)

	// A write lands between the read and the replace.
	appendMsg(t, m, models.Message{ID: "m2", From: "bob", To: "alice", Text: "two"})

	err = m.ReplaceMessages(ctx, "alice_bob", conv.Version, nil, nil)
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The concurrent edit survived the rejected stale replace.
	conv, err = m.GetConversation(ctx, "alice_bob")
	assert.NoError(t, err)
	assert.Len(t, conv.Messages, 2)

	// Re-read and replay succeeds and bumps the version.
	err = m.ReplaceMessages(ctx, "alice_bob", conv.Version, conv.Messages[:1], nil)
	assert.NoError(t, err)
	after, err := m.GetConversation(ctx, "alice_bob")
	assert.NoError(t, err)
	assert.Len(t, after.Messages, 1)
	assert.Equal(t, conv.Version+1, after.Version)
}

func TestSnapshotsAreIsolatedFromTheStore(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one",
		Reactions: map[string][]string{"👍": {"bob"}}})

	conv, err := m.GetConversation(ctx, "alice_bob")
	assert.NoError(t, err)

	// Mutating a returned snapshot must not leak into the store.
	conv.Messages[0].Text = "tampered"
	conv.Messages[0].Reactions["👍"] = append(conv.Messages[0].Reactions["👍"], "mallory")

	again, err := m.GetConversation(ctx, "alice_bob")
	assert.NoError(t, err)
	assert.Equal(t, "one", again.Messages[0].Text)
	assert.Equal(t, []string{"bob"}, again.Messages[0].Reactions["👍"])
}

func TestSubscribeDeliversInitialSnapshot(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one"})

	sub, err := m.SubscribeConversation(ctx, "alice_bob")
	assert.NoError(t, err)
	defer sub.Cancel()

	conv := receiveSnapshot(t, sub)
	assert.Len(t, conv.Messages, 1)
}

func TestSubscribeToMissingConversationWaits(t *testing.T) {
	m := NewMemory()
	sub, err := m.SubscribeConversation(context.Background(), "alice_bob")
	assert.NoError(t, err)
	defer sub.Cancel()

	// No document yet: no initial snapshot.
	select {
	case conv := <-sub.C:
		t.Fatalf("unexpected snapshot: %+v", conv)
	case <-time.After(50 * time.Millisecond):
	}

	// First write delivers the first version.
	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one"})
	conv := receiveSnapshot(t, sub)
	assert.Equal(t, "m1", conv.Messages[0].ID)
}

func TestSlowSubscriberCoalescesToLatest(t *testing.T) {
	m := NewMemory()

	sub, err := m.SubscribeConversation(context.Background(), "alice_bob")
	assert.NoError(t, err)
	defer sub.Cancel()

	// Three versions while the consumer is away. Intermediate versions are
	// skipped and only the latest is pending.
	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one"})
	appendMsg(t, m, models.Message{ID: "m2", From: "alice", To: "bob", Text: "two"})
	appendMsg(t, m, models.Message{ID: "m3", From: "alice", To: "bob", Text: "three"})

	conv := receiveSnapshot(t, sub)
	assert.Len(t, conv.Messages, 3)

	select {
	case conv := <-sub.C:
		t.Fatalf("stale snapshot still queued: %+v", conv)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCancelStopsDeliveryAndClosesChannel(t *testing.T) {
	m := NewMemory()

	sub, err := m.SubscribeConversation(context.Background(), "alice_bob")
	assert.NoError(t, err)

	sub.Cancel()
	sub.Cancel() // idempotent

	// Writes after Cancel never reach the subscriber.
	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one"})

	conv, ok := <-sub.C
	assert.Nil(t, conv)
	assert.False(t, ok)
}

func TestResubscribeAfterCancel(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one"})

	first, err := m.SubscribeConversation(ctx, "alice_bob")
	assert.NoError(t, err)
	receiveSnapshot(t, first)
	first.Cancel()

	second, err := m.SubscribeConversation(ctx, "alice_bob")
	assert.NoError(t, err)
	defer second.Cancel()
	conv := receiveSnapshot(t, second)
	assert.Len(t, conv.Messages, 1)
}

func TestIndependentSubscribersEachGetEveryVersion(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	one, err := m.SubscribeConversation(ctx, "alice_bob")
	assert.NoError(t, err)
	defer one.Cancel()
	two, err := m.SubscribeConversation(ctx, "alice_bob")
	assert.NoError(t, err)
	defer two.Cancel()

	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one"})

	assert.Len(t, receiveSnapshot(t, one).Messages, 1)
	assert.Len(t, receiveSnapshot(t, two).Messages, 1)
}

func TestMergePresenceCreatesAndUpdates(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	seen := models.Now()
	err := m.MergePresence(ctx, "alice", Fields{
		"name": "Alice", "email": "alice@example.com", "isOnline": true, "lastSeen": seen,
	})
	assert.NoError(t, err)

	p, err := m.GetPresence(ctx, "alice")
	assert.NoError(t, err)
	assert.True(t, p.IsOnline)
	assert.Equal(t, "Alice", p.Name)

	// Partial merge leaves the other fields alone.
	assert.NoError(t, m.MergePresence(ctx, "alice", Fields{"isOnline": false, "typingTo": ""}))
	p, err = m.GetPresence(ctx, "alice")
	assert.NoError(t, err)
	assert.False(t, p.IsOnline)
	assert.Equal(t, "Alice", p.Name)
	assert.True(t, p.LastSeen.Equal(seen.Time))
}

func TestFailInjectsStoreErrors(t *testing.T) {
	m := NewMemory()
	boom := errors.New("store down")
	m.Fail(boom)

	_, err := m.GetConversation(context.Background(), "alice_bob")
	assert.ErrorIs(t, err, boom)
	_, err = m.SubscribeConversation(context.Background(), "alice_bob")
	assert.ErrorIs(t, err, boom)

	m.Fail(nil)
	appendMsg(t, m, models.Message{ID: "m1", From: "alice", To: "bob", Text: "one"})
}
