package storage

import (
	"context"
	"errors"
	"sync"

	"firechat/internal/models"
)

// Collection names in the document store. dmChats is keyed by the canonical
// conversation id, users by uid.
const (
	ConversationsCollection = "dmChats"
	PresenceCollection      = "users"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrVersionConflict is returned by ReplaceMessages when the document moved
// past the expected version. The caller's copy is stale; it must re-read
// and reapply its edit.
var ErrVersionConflict = errors.New("document version conflict")

// Fields is a field-merge update: only the named top-level fields are
// written, everything else in the document is left untouched.
type Fields map[string]interface{}

// DocumentStore is the persistence collaborator: whole documents keyed by
// conversation id or uid, with get, create, field-merge, full replace and a
// per-key real-time feed. There is no partial-array-element update; any
// per-message edit goes through ReplaceMessages as a read-modify-write.
//
// ReplaceMessages is guarded by the document's version counter: a replace
// built from a stale snapshot fails with ErrVersionConflict instead of
// silently discarding a concurrent edit. AppendMessage is an additive
// merge and needs no guard.
type DocumentStore interface {
	// GetConversation returns the current snapshot or ErrNotFound.
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)

	// AppendMessage additively merges msg into the conversation's message
	// sequence, creating the document with the given participants if it
	// does not exist yet. fields carries the preview/updatedAt recompute.
	// A concurrently appended message from another client is never lost.
	AppendMessage(ctx context.Context, id string, participants []string, msg models.Message, fields Fields) error

	// ReplaceMessages overwrites the entire message sequence, but only
	// when the document is still at expectedVersion. Returns
	// ErrVersionConflict when it is not.
	ReplaceMessages(ctx context.Context, id string, expectedVersion int64, messages []models.Message, fields Fields) error

	// SubscribeConversation opens a feed of full snapshots for one
	// conversation. Each subscriber observes a causally ordered sequence
	// of versions. Re-subscribing after Cancel is always valid.
	SubscribeConversation(ctx context.Context, id string) (*Subscription, error)

	// GetPresence returns a user's presence document or ErrNotFound.
	GetPresence(ctx context.Context, uid string) (*models.UserPresence, error)

	// MergePresence field-merges into a user's presence document, creating
	// it if absent.
	MergePresence(ctx context.Context, uid string, fields Fields) error
}

// Subscription is one live conversation feed. Snapshots are coalesced: a
// slow consumer skips intermediate versions and always sees the latest.
type Subscription struct {
	// C delivers full conversation snapshots. Closed on Cancel.
	C <-chan *models.Conversation

	cancelOnce sync.Once
	cancel     func()
}

// NewSubscription wires a snapshot channel to its teardown func. Intended
// for DocumentStore implementations.
func NewSubscription(ch <-chan *models.Conversation, cancel func()) *Subscription {
	return &Subscription{C: ch, cancel: cancel}
}

// Cancel stops delivery. It takes effect before the next snapshot is
// dispatched, so a consumer that has cancelled never observes a newer
// version afterwards. Safe to call more than once.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(s.cancel)
}
