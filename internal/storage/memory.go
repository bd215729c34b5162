package storage

import (
	"context"
	"sync"

	"firechat/internal/models"
)

// Memory is an in-process DocumentStore used by tests and the simulator.
// It implements the same feed semantics as the Mongo backend: an initial
// snapshot on subscribe when the document exists, then one snapshot per
// version, coalesced to the latest for slow consumers.
type Memory struct {
	mu            sync.Mutex
	conversations map[string]*models.Conversation
	presence      map[string]*models.UserPresence
	subscribers   map[string]map[int]chan *models.Conversation
	nextSubID     int

	// failure, when set, is returned by every operation. Tests use it to
	// simulate an unavailable store.
	failure error
}

func NewMemory() *Memory {
	return &Memory{
		conversations: make(map[string]*models.Conversation),
		presence:      make(map[string]*models.UserPresence),
		subscribers:   make(map[string]map[int]chan *models.Conversation),
	}
}

// Fail makes every subsequent operation return err. Fail(nil) restores
// normal operation.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failure = err
}

func (m *Memory) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return nil, m.failure
	}
	conv, ok := m.conversations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneConversation(conv), nil
}

func (m *Memory) AppendMessage(ctx context.Context, id string, participants []string, msg models.Message, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}

	conv, ok := m.conversations[id]
	if !ok {
		conv = &models.Conversation{
			ID:           id,
			Participants: append([]string(nil), participants...),
		}
		m.conversations[id] = conv
	}
	conv.Messages = append(conv.Messages, cloneMessage(msg))
	applyConversationFields(conv, fields)
	conv.Version++

	m.publishLocked(id)
	return nil
}

func (m *Memory) ReplaceMessages(ctx context.Context, id string, expectedVersion int64, messages []models.Message, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}

	conv, ok := m.conversations[id]
	if !ok {
		return ErrNotFound
	}
	if conv.Version != expectedVersion {
		return ErrVersionConflict
	}
	replaced := make([]models.Message, len(messages))
	for i := range messages {
		replaced[i] = cloneMessage(messages[i])
	}
	conv.Messages = replaced
	applyConversationFields(conv, fields)
	conv.Version++

	m.publishLocked(id)
	return nil
}

func (m *Memory) SubscribeConversation(ctx context.Context, id string) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return nil, m.failure
	}

	m.nextSubID++
	subID := m.nextSubID
	ch := make(chan *models.Conversation, 1)

	if _, ok := m.subscribers[id]; !ok {
		m.subscribers[id] = make(map[int]chan *models.Conversation)
	}
	m.subscribers[id][subID] = ch

	// Initial snapshot, matching the remote store's subscribe semantics.
	if conv, ok := m.conversations[id]; ok {
		ch <- cloneConversation(conv)
	}

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if subs, ok := m.subscribers[id]; ok {
			if c, live := subs[subID]; live {
				delete(subs, subID)
				close(c)
			}
			if len(subs) == 0 {
				delete(m.subscribers, id)
			}
		}
	}
	return NewSubscription(ch, cancel), nil
}

func (m *Memory) GetPresence(ctx context.Context, uid string) (*models.UserPresence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return nil, m.failure
	}
	p, ok := m.presence[uid]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *Memory) MergePresence(ctx context.Context, uid string, fields Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failure != nil {
		return m.failure
	}

	p, ok := m.presence[uid]
	if !ok {
		p = &models.UserPresence{UID: uid}
		m.presence[uid] = p
	}
	for key, value := range fields {
		switch key {
		case "name":
			p.Name, _ = value.(string)
		case "email":
			p.Email, _ = value.(string)
		case "isOnline":
			p.IsOnline, _ = value.(bool)
		case "lastSeen":
			if ts, ok := value.(models.Timestamp); ok {
				p.LastSeen = ts
			}
		case "typingTo":
			p.TypingTo, _ = value.(string)
		}
	}
	return nil
}

// publishLocked dispatches the current snapshot to every subscriber of id.
// Caller holds m.mu, so a cancelled subscriber is already gone and never
// sees this version. Pending undelivered snapshots are coalesced.
func (m *Memory) publishLocked(id string) {
	conv, ok := m.conversations[id]
	if !ok {
		return
	}
	for _, ch := range m.subscribers[id] {
		select {
		case <-ch:
		default:
		}
		ch <- cloneConversation(conv)
	}
}

func applyConversationFields(conv *models.Conversation, fields Fields) {
	for key, value := range fields {
		switch key {
		case "lastMessagePreview":
			conv.LastMessagePreview, _ = value.(string)
		case "updatedAt":
			if ts, ok := value.(models.Timestamp); ok {
				conv.UpdatedAt = ts
			}
		}
	}
}

func cloneConversation(conv *models.Conversation) *models.Conversation {
	clone := *conv
	clone.Participants = append([]string(nil), conv.Participants...)
	clone.Messages = make([]models.Message, len(conv.Messages))
	for i := range conv.Messages {
		clone.Messages[i] = cloneMessage(conv.Messages[i])
	}
	return &clone
}

func cloneMessage(msg models.Message) models.Message {
	clone := msg
	if msg.Reactions != nil {
		clone.Reactions = make(map[string][]string, len(msg.Reactions))
		for emoji, users := range msg.Reactions {
			clone.Reactions[emoji] = append([]string(nil), users...)
		}
	}
	return clone
}
