package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationIDIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "alice_bob", ConversationID("alice", "bob"))
	assert.Equal(t, "alice_bob", ConversationID("bob", "alice"))

	pairs := [][2]string{
		{"u1", "u2"},
		{"zed", "amy"},
		{"same", "same"},
		{"9", "10"},
	}
	for _, pair := range pairs {
		assert.Equal(t, ConversationID(pair[0], pair[1]), ConversationID(pair[1], pair[0]))
	}
}

func TestPartner(t *testing.T) {
	conv := &Conversation{
		ID:           "alice_bob",
		Participants: []string{"alice", "bob"},
	}
	assert.Equal(t, "bob", conv.Partner("alice"))
	assert.Equal(t, "alice", conv.Partner("bob"))
	assert.Equal(t, "", (&Conversation{}).Partner("carol"))
}

func TestFindMessage(t *testing.T) {
	conv := &Conversation{
		Messages: []Message{{ID: "m1"}, {ID: "m2"}},
	}
	assert.Equal(t, 1, conv.FindMessage("m2"))
	assert.Equal(t, -1, conv.FindMessage("missing"))
}

func TestMessagePreviewPriority(t *testing.T) {
	assert.Equal(t, "hi", Message{Text: "hi", Image: "u", Audio: "v"}.Preview())
	assert.Equal(t, "Image", Message{Image: "u", Audio: "v"}.Preview())
	assert.Equal(t, "Audio", Message{Audio: "v"}.Preview())
	assert.Equal(t, "", Message{}.Preview())
}

func TestStatusMonotonicity(t *testing.T) {
	assert.True(t, StatusSent.CanAdvanceTo(StatusDelivered))
	assert.True(t, StatusSent.CanAdvanceTo(StatusRead))
	assert.True(t, StatusDelivered.CanAdvanceTo(StatusRead))

	assert.False(t, StatusRead.CanAdvanceTo(StatusDelivered))
	assert.False(t, StatusRead.CanAdvanceTo(StatusSent))
	assert.False(t, StatusDelivered.CanAdvanceTo(StatusSent))
	assert.False(t, StatusDelivered.CanAdvanceTo(StatusDelivered))
}
