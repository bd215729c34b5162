package chat

import (
	"context"

	"firechat/internal/models"
)

// Selection is the purely local, ephemeral set of message ids a user has
// marked for deletion. It never touches persisted state.
type Selection struct {
	ids map[string]bool
}

func NewSelection() *Selection {
	return &Selection{ids: make(map[string]bool)}
}

func (s *Selection) Toggle(id string) {
	if s.ids[id] {
		delete(s.ids, id)
		return
	}
	s.ids[id] = true
}

func (s *Selection) Has(id string) bool {
	return s.ids[id]
}

func (s *Selection) Len() int {
	return len(s.ids)
}

func (s *Selection) Clear() {
	s.ids = make(map[string]bool)
}

// IDs returns the selected message ids in no particular order.
func (s *Selection) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	return out
}

// Eraser removes messages by id filter, or clears a conversation outright.
// Removal leaves no tombstones.
type Eraser struct {
	store *ConversationStore
}

func NewEraser(store *ConversationStore) *Eraser {
	return &Eraser{store: store}
}

// DeleteMessages removes exactly the messages whose id is in ids,
// preserving the relative order of the survivors.
func (e *Eraser) DeleteMessages(ctx context.Context, conversationID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	return e.store.Mutate(ctx, conversationID, func(conv *models.Conversation) ([]models.Message, bool, error) {
		survivors := make([]models.Message, 0, len(conv.Messages))
		for _, msg := range conv.Messages {
			if !doomed[msg.ID] {
				survivors = append(survivors, msg)
			}
		}
		return survivors, len(survivors) != len(conv.Messages), nil
	})
}

// DeleteConversation empties the conversation. The document itself, with
// its id and participants, is retained.
func (e *Eraser) DeleteConversation(ctx context.Context, conversationID string) error {
	return e.store.Mutate(ctx, conversationID, func(conv *models.Conversation) ([]models.Message, bool, error) {
		return []models.Message{}, len(conv.Messages) > 0, nil
	})
}
