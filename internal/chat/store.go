package chat

import (
	"context"

	"firechat/internal/models"
	"firechat/internal/storage"
	"firechat/internal/utils"
)

// ConversationStore owns the one document per conversation and mediates
// every read and write to it. Status, reaction and deletion edits all go
// through ReplaceAll, a read-modify-write over the whole message sequence;
// appends use the store's additive merge and are safe against concurrent
// senders.
type ConversationStore struct {
	docs storage.DocumentStore
}

func NewConversationStore(docs storage.DocumentStore) *ConversationStore {
	return &ConversationStore{docs: docs}
}

// Subscribe opens a snapshot feed for one conversation. Cancelling the
// returned subscription stops delivery before any further snapshot reaches
// the consumer; re-subscribing afterwards is always valid.
func (s *ConversationStore) Subscribe(ctx context.Context, conversationID string) (*storage.Subscription, error) {
	sub, err := s.docs.SubscribeConversation(ctx, conversationID)
	if err != nil {
		return nil, utils.NewStoreUnavailableError("subscribe", err)
	}
	return sub, nil
}

// Read returns a single snapshot.
func (s *ConversationStore) Read(ctx context.Context, conversationID string) (*models.Conversation, error) {
	conv, err := s.docs.GetConversation(ctx, conversationID)
	if err == storage.ErrNotFound {
		return nil, utils.NewNotFoundError("conversation " + conversationID)
	}
	if err != nil {
		return nil, utils.NewStoreUnavailableError("read", err)
	}
	return conv, nil
}

// Append adds msg to the conversation, creating the document on first send
// between the pair. The preview and updatedAt fields are recomputed from
// the new message. A message appended concurrently by the other client is
// never discarded.
func (s *ConversationStore) Append(ctx context.Context, conversationID string, participants []string, msg models.Message) error {
	fields := storage.Fields{
		"lastMessagePreview": msg.Preview(),
		"updatedAt":          msg.Timestamp,
	}
	if err := s.docs.AppendMessage(ctx, conversationID, participants, msg, fields); err != nil {
		return utils.NewStoreUnavailableError("append", err)
	}
	return nil
}

// replaceAttempts bounds the read-modify-write retry loop in Mutate.
const replaceAttempts = 3

// Mutate runs a read-modify-write cycle on the conversation: read a
// snapshot, derive a new message sequence via edit, replace pinned to the
// snapshot's version. A rejected stale write is re-read and reapplied, up
// to replaceAttempts times. edit returning write=false skips the replace.
func (s *ConversationStore) Mutate(ctx context.Context, conversationID string, edit func(*models.Conversation) (msgs []models.Message, write bool, err error)) error {
	var lastErr error
	for attempt := 0; attempt < replaceAttempts; attempt++ {
		conv, err := s.Read(ctx, conversationID)
		if err != nil {
			return err
		}
		msgs, write, err := edit(conv)
		if err != nil {
			return err
		}
		if !write {
			return nil
		}
		err = s.ReplaceAll(ctx, conversationID, conv.Version, msgs)
		if !utils.IsErrorCode(err, utils.ErrConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// ReplaceAll overwrites the entire message sequence; used for status,
// reaction and deletion edits. expectedVersion must be the version of the
// snapshot the new sequence was derived from: a conversation that moved on
// in the meantime rejects the write with a CONFLICT-coded error so the
// caller re-reads instead of silently discarding the concurrent edit. The
// preview follows the surviving last message; updatedAt is deliberately
// left alone so edits do not reorder conversations by recency.
func (s *ConversationStore) ReplaceAll(ctx context.Context, conversationID string, expectedVersion int64, messages []models.Message) error {
	preview := ""
	if len(messages) > 0 {
		preview = messages[len(messages)-1].Preview()
	}
	fields := storage.Fields{"lastMessagePreview": preview}

	err := s.docs.ReplaceMessages(ctx, conversationID, expectedVersion, messages, fields)
	if err == storage.ErrNotFound {
		return utils.NewNotFoundError("conversation " + conversationID)
	}
	if err == storage.ErrVersionConflict {
		return utils.NewAppError(utils.ErrConflict, "conversation "+conversationID+" changed concurrently", err)
	}
	if err != nil {
		return utils.NewStoreUnavailableError("replace", err)
	}
	return nil
}
