package actors

import (
	stdcontext "context"
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"

	"firechat/internal/chat"
	"firechat/internal/models"
	"firechat/internal/storage"
	"firechat/internal/utils"
)

// Message types for SessionActor
type (
	// OpenConversation selects the conversation with a partner, cancelling
	// the previous subscription before any further snapshot is delivered.
	OpenConversation struct {
		Partner string
	}

	// CloseConversation deselects the current conversation.
	CloseConversation struct{}

	// SetFocus reports whether the selected conversation is visible to the
	// user. Focused snapshots mark inbound messages read; unfocused ones
	// only mark them delivered.
	SetFocus struct {
		Focused bool
	}

	// SendDraft merges the given content into the session draft and sends
	// it through the pipeline.
	SendDraft struct {
		Text  string
		Image []byte
		Audio []byte
	}

	// SendResult answers SendDraft. Noop means the draft was empty and
	// nothing was persisted.
	SendResult struct {
		Message *models.Message
		Noop    bool
	}

	// ToggleReaction toggles self's emoji reaction on one message of the
	// selected conversation.
	ToggleReaction struct {
		MessageID string
		Emoji     string
	}

	// ToggleSelect flips a message in or out of the local deletion
	// selection.
	ToggleSelect struct {
		MessageID string
	}

	// DeleteSelected removes every selected message, then clears the
	// selection.
	DeleteSelected struct{}

	// ClearConversation empties the selected conversation; the document
	// itself is retained.
	ClearConversation struct{}

	// GetSessionState is a read-only query used by the gateway and tests.
	GetSessionState struct{}

	SessionState struct {
		Identity     models.Identity
		Partner      string
		Focused      bool
		DraftText    string
		SelectedIDs  []string
		Conversation *models.Conversation
	}

	// Ack answers mutations that have no richer result.
	Ack struct{}

	// snapshot carries one conversation version from the subscription pump
	// into the actor mailbox. generation fences out snapshots that were in
	// flight when the subscription they belong to was cancelled.
	snapshot struct {
		generation int
		conv       *models.Conversation
	}
)

// SnapshotSink receives every accepted snapshot for fan-out to the user's
// connected clients. Optional.
type SnapshotSink interface {
	SnapshotForUser(uid string, conv *models.Conversation)
}

// SessionActor is one client's event loop. Its mailbox serializes user
// commands with the store's push-feed callbacks, so all session state --
// the identity triple, selected conversation, in-progress draft and local
// selection -- is mutated from a single logical thread. A snapshot
// arriving while a mutation is in flight simply queues behind it.
type SessionActor struct {
	identity models.Identity
	docs     storage.DocumentStore
	store    *chat.ConversationStore
	pipeline *chat.MessagePipeline
	delivery *chat.DeliveryStatusMachine
	reactor  *chat.ReactionAggregator
	eraser   *chat.Eraser
	metrics  *utils.MetricsCollector
	sink     SnapshotSink
	notifier PresenceNotifier

	typingTimeout time.Duration
	typingPID     *actor.PID
	presencePID   *actor.PID

	partner      string
	focused      bool
	generation   int
	subscription *storage.Subscription
	draft        models.Draft
	selection    *chat.Selection
	latest       *models.Conversation
}

// SessionDeps bundles what a session needs; the engine fills it once.
type SessionDeps struct {
	Docs          storage.DocumentStore
	Blobs         storage.BlobStore
	Metrics       *utils.MetricsCollector
	Sink          SnapshotSink
	Notifier      PresenceNotifier
	TypingTimeout time.Duration
}

func NewSessionActor(identity models.Identity, deps SessionDeps) actor.Actor {
	store := chat.NewConversationStore(deps.Docs)
	return &SessionActor{
		identity:      identity,
		docs:          deps.Docs,
		store:         store,
		pipeline:      chat.NewMessagePipeline(store, deps.Blobs),
		delivery:      chat.NewDeliveryStatusMachine(store),
		reactor:       chat.NewReactionAggregator(store),
		eraser:        chat.NewEraser(store),
		metrics:       deps.Metrics,
		sink:          deps.Sink,
		typingTimeout: deps.TypingTimeout,
		selection:     chat.NewSelection(),
		notifier:      deps.Notifier,
	}
}

func (a *SessionActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		a.typingPID = context.Spawn(actor.PropsFromProducer(func() actor.Actor {
			return NewTypingActor(a.docs, a.identity.UID, a.typingTimeout)
		}))
		a.presencePID = context.Spawn(actor.PropsFromProducer(func() actor.Actor {
			return NewPresenceActor(a.docs, a.identity, a.notifier)
		}))

	case *actor.Stopping:
		a.unsubscribe()

	case *OpenConversation:
		a.handleOpen(context, msg)

	case *CloseConversation:
		a.unsubscribe()
		a.partner = ""
		a.focused = false
		a.latest = nil
		a.selection.Clear()
		context.Respond(&Ack{})

	case *SetFocus:
		a.focused = msg.Focused
		if a.focused && a.latest != nil {
			a.syncDelivery()
		}

	case *snapshot:
		a.handleSnapshot(msg)

	case *SendDraft:
		a.handleSend(context, msg)

	case *Keystroke:
		if a.partner != "" {
			context.Send(a.typingPID, &Keystroke{Partner: a.partner})
		}

	case *GoOnline, *GoOffline:
		context.Forward(a.presencePID)

	case *ToggleReaction:
		a.handleReaction(context, msg)

	case *ToggleSelect:
		a.selection.Toggle(msg.MessageID)
		context.Respond(&Ack{})

	case *DeleteSelected:
		a.handleDeleteSelected(context)

	case *ClearConversation:
		a.handleClear(context)

	case *GetSessionState:
		state := &SessionState{
			Identity:    a.identity,
			Partner:     a.partner,
			Focused:     a.focused,
			DraftText:   a.draft.Text,
			SelectedIDs: a.selection.IDs(),
		}
		if a.latest != nil {
			copied := *a.latest
			state.Conversation = &copied
		}
		context.Respond(state)
	}
}

func (a *SessionActor) handleOpen(context actor.Context, msg *OpenConversation) {
	start := time.Now()

	// Cancel before subscribing anew: the stale feed must stop before the
	// next snapshot is dispatched into this mailbox.
	a.unsubscribe()
	a.partner = msg.Partner
	a.focused = true
	a.latest = nil
	a.draft = models.Draft{}
	a.selection.Clear()

	// The subscription outlives this call; its lifetime is owned by
	// Cancel, not by a per-operation deadline.
	conversationID := models.ConversationID(a.identity.UID, msg.Partner)
	sub, err := a.store.Subscribe(stdcontext.Background(), conversationID)
	if err != nil {
		context.Respond(asAppError(err))
		return
	}
	a.subscription = sub
	a.generation++

	// Pump the feed into our own mailbox so snapshots serialize with
	// commands. The generation fence discards anything still in flight
	// after the subscription is replaced.
	self := context.Self()
	root := context.ActorSystem().Root
	generation := a.generation
	go func() {
		for conv := range sub.C {
			root.Send(self, &snapshot{generation: generation, conv: conv})
		}
	}()

	a.metrics.AddOperationLatency("open_conversation", time.Since(start))
	context.Respond(&Ack{})
}

func (a *SessionActor) handleSnapshot(msg *snapshot) {
	if msg.generation != a.generation {
		return // stale feed, cancelled before this version was dispatched
	}
	a.latest = msg.conv
	a.syncDelivery()
	if a.sink != nil {
		a.sink.SnapshotForUser(a.identity.UID, msg.conv)
	}
}

// syncDelivery advances delivery status for the snapshot we hold. Errors
// leave the local snapshot untouched; the next feed version retries
// naturally.
func (a *SessionActor) syncDelivery() {
	ctx, cancel := opCtx()
	defer cancel()
	if err := a.delivery.Observe(ctx, a.identity.UID, a.latest, a.focused); err != nil {
		log.Printf("Delivery sync failed for %s: %v", a.identity.UID, err)
	}
}

func (a *SessionActor) handleSend(context actor.Context, msg *SendDraft) {
	if a.partner == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "no conversation selected", nil))
		return
	}
	start := time.Now()
	a.metrics.IncrementRequests()

	a.draft.Text = msg.Text
	if len(msg.Image) > 0 {
		a.draft.Image = msg.Image
	}
	if len(msg.Audio) > 0 {
		a.draft.Audio = msg.Audio
	}

	ctx, cancel := opCtx()
	defer cancel()
	sent, err := a.pipeline.Send(ctx, a.identity, a.partner, &a.draft)
	if err != nil {
		a.metrics.IncrementErrors()
		context.Respond(asAppError(err))
		return
	}
	if sent == nil {
		context.Respond(&SendResult{Noop: true})
		return
	}

	// Sending always clears the typing signal immediately.
	context.Send(a.typingPID, &TypingMessageSent{})

	a.metrics.AddOperationLatency("send_message", time.Since(start))
	context.Respond(&SendResult{Message: sent})
}

func (a *SessionActor) handleReaction(context actor.Context, msg *ToggleReaction) {
	if a.partner == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "no conversation selected", nil))
		return
	}
	start := time.Now()

	conversationID := models.ConversationID(a.identity.UID, a.partner)
	ctx, cancel := opCtx()
	defer cancel()
	if err := a.reactor.Toggle(ctx, conversationID, msg.MessageID, a.identity.UID, msg.Emoji); err != nil {
		a.metrics.IncrementErrors()
		context.Respond(asAppError(err))
		return
	}

	a.metrics.AddOperationLatency("toggle_reaction", time.Since(start))
	context.Respond(&Ack{})
}

func (a *SessionActor) handleDeleteSelected(context actor.Context) {
	if a.partner == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "no conversation selected", nil))
		return
	}
	conversationID := models.ConversationID(a.identity.UID, a.partner)
	ids := a.selection.IDs()

	ctx, cancel := opCtx()
	defer cancel()
	if err := a.eraser.DeleteMessages(ctx, conversationID, ids); err != nil {
		a.metrics.IncrementErrors()
		context.Respond(asAppError(err))
		return
	}
	a.selection.Clear()
	context.Respond(&Ack{})
}

func (a *SessionActor) handleClear(context actor.Context) {
	if a.partner == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "no conversation selected", nil))
		return
	}
	conversationID := models.ConversationID(a.identity.UID, a.partner)

	ctx, cancel := opCtx()
	defer cancel()
	if err := a.eraser.DeleteConversation(ctx, conversationID); err != nil {
		a.metrics.IncrementErrors()
		context.Respond(asAppError(err))
		return
	}
	a.selection.Clear()
	context.Respond(&Ack{})
}

func (a *SessionActor) unsubscribe() {
	if a.subscription != nil {
		a.subscription.Cancel()
		a.subscription = nil
	}
	a.generation++
}

func opCtx() (stdcontext.Context, stdcontext.CancelFunc) {
	return stdcontext.WithTimeout(stdcontext.Background(), 10*time.Second)
}

func asAppError(err error) *utils.AppError {
	if appErr, ok := err.(*utils.AppError); ok {
		return appErr
	}
	return utils.NewAppError(utils.ErrStoreUnavailable, "operation failed", err)
}
