package chat

import (
	"context"

	"firechat/internal/models"
	"firechat/internal/utils"
)

// ToggleReaction returns a copy of msgs with user's reaction on the target
// message toggled. Reacting with the emoji already held removes it;
// reacting with a new emoji first clears the user from every other set, so
// a user holds at most one active reaction per message. Sets that become
// empty are dropped from the map entirely. Every other message passes
// through untouched.
func ToggleReaction(msgs []models.Message, messageID, user, emoji string) ([]models.Message, bool) {
	out := append([]models.Message(nil), msgs...)
	for i := range out {
		if out[i].ID != messageID {
			continue
		}
		out[i].Reactions = toggle(out[i].Reactions, user, emoji)
		return out, true
	}
	return out, false
}

func toggle(reactions map[string][]string, user, emoji string) map[string][]string {
	next := make(map[string][]string, len(reactions)+1)
	unreact := false
	for e, users := range reactions {
		kept := make([]string, 0, len(users))
		for _, u := range users {
			if u != user {
				kept = append(kept, u)
				continue
			}
			if e == emoji {
				unreact = true
			}
		}
		if len(kept) > 0 {
			next[e] = kept
		}
	}
	if !unreact {
		next[emoji] = append(next[emoji], user)
	}
	if len(next) == 0 {
		return nil
	}
	return next
}

// ReactionAggregator persists reaction toggles through the conversation
// store's read-modify-write discipline.
type ReactionAggregator struct {
	store *ConversationStore
}

func NewReactionAggregator(store *ConversationStore) *ReactionAggregator {
	return &ReactionAggregator{store: store}
}

func (r *ReactionAggregator) Toggle(ctx context.Context, conversationID, messageID, user, emoji string) error {
	return r.store.Mutate(ctx, conversationID, func(conv *models.Conversation) ([]models.Message, bool, error) {
		msgs, found := ToggleReaction(conv.Messages, messageID, user, emoji)
		if !found {
			return nil, false, utils.NewNotFoundError("message " + messageID)
		}
		return msgs, true, nil
	})
}
