package models

import (
	"sort"
	"strings"
)

// ConversationIDSeparator joins the two participant ids into the canonical
// conversation key. Uids are assumed separator-free.
const ConversationIDSeparator = "_"

// ConversationID derives the canonical key for the conversation between a
// and b: both ids sorted ascending and joined. Order independent, so both
// participants always resolve the same document.
func ConversationID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, ConversationIDSeparator)
}

// Conversation is the single document holding a two-party message thread.
// Messages is the sole source of truth; insertion order is chronological
// send order. A conversation is created on first send and never deleted,
// only emptied. Version counts writes to the document and guards full
// replaces against stale overwrites.
type Conversation struct {
	ID                 string    `json:"id" bson:"_id"`
	Participants       []string  `json:"participants" bson:"participants"`
	Messages           []Message `json:"messages" bson:"messages"`
	LastMessagePreview string    `json:"lastMessagePreview,omitempty" bson:"lastMessagePreview,omitempty"`
	UpdatedAt          Timestamp `json:"updatedAt" bson:"updatedAt"`
	Version            int64     `json:"version" bson:"version"`
}

// Partner returns the other participant for uid, or "" when uid is not a
// participant.
func (c *Conversation) Partner(uid string) string {
	for _, p := range c.Participants {
		if p != uid {
			return p
		}
	}
	return ""
}

// FindMessage returns the index of the message with the given id, or -1.
func (c *Conversation) FindMessage(id string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return i
		}
	}
	return -1
}
