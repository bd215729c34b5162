package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"firechat/internal/models"
	"firechat/internal/storage"
	"firechat/internal/utils"
)

// MessagePipeline composes and persists outgoing messages: media uploads
// first, then a single additive append. The draft is cleared only once the
// append has succeeded (the optimistic-send rule); any earlier failure
// leaves it intact for retry.
type MessagePipeline struct {
	store *ConversationStore
	blobs storage.BlobStore
}

func NewMessagePipeline(store *ConversationStore, blobs storage.BlobStore) *MessagePipeline {
	return &MessagePipeline{store: store, blobs: blobs}
}

// Send delivers draft from self to partner. An empty draft is a silent
// no-op: nil message, nil error, nothing persisted. On success the sent
// message is returned and the draft zeroed.
func (p *MessagePipeline) Send(ctx context.Context, self models.Identity, partner string, draft *models.Draft) (*models.Message, error) {
	text := strings.TrimSpace(draft.Text)
	if text == "" && len(draft.Image) == 0 && len(draft.Audio) == 0 {
		return nil, nil
	}

	id := uuid.NewString()

	var imageURL string
	if len(draft.Image) > 0 {
		url, err := p.blobs.Upload(ctx, draft.Image, id+"-image")
		if err != nil {
			return nil, utils.NewUploadError("image", err)
		}
		imageURL = url
	}

	var audioURL string
	if len(draft.Audio) > 0 {
		url, err := p.blobs.Upload(ctx, draft.Audio, id+"-audio")
		if err != nil {
			return nil, utils.NewUploadError("audio", err)
		}
		audioURL = url
	}

	msg := models.Message{
		ID:        id,
		From:      self.UID,
		To:        partner,
		Text:      text,
		Image:     imageURL,
		Audio:     audioURL,
		Timestamp: models.Now(),
		Status:    models.StatusSent,
	}

	conversationID := models.ConversationID(self.UID, partner)
	participants := strings.Split(conversationID, models.ConversationIDSeparator)
	if err := p.store.Append(ctx, conversationID, participants, msg); err != nil {
		return nil, err
	}

	*draft = models.Draft{}
	return &msg, nil
}
