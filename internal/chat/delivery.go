package chat

import (
	"context"

	"firechat/internal/models"
	"firechat/internal/utils"
)

// Delivery status advances only forward (sent -> delivered -> read) and
// only on the recipient's client; the sender never rewrites a message's
// status. "Delivered" means the recipient's client process has observed
// the message in a snapshot, not that it was rendered.

// PlanDelivered returns a copy of msgs in which every message addressed to
// self and still at sent is advanced to delivered. changed reports whether
// any status actually moved.
func PlanDelivered(self string, msgs []models.Message) ([]models.Message, bool) {
	return plan(self, msgs, models.StatusDelivered, func(m models.Message) bool {
		return m.Status == models.StatusSent
	})
}

// PlanRead returns a copy of msgs in which every message addressed to self
// and not yet read is advanced to read, in one batch.
func PlanRead(self string, msgs []models.Message) ([]models.Message, bool) {
	return plan(self, msgs, models.StatusRead, func(m models.Message) bool {
		return m.Status != models.StatusRead
	})
}

func plan(self string, msgs []models.Message, next models.Status, eligible func(models.Message) bool) ([]models.Message, bool) {
	out := append([]models.Message(nil), msgs...)
	changed := false
	for i := range out {
		if out[i].To != self {
			continue
		}
		if !eligible(out[i]) || !out[i].Status.CanAdvanceTo(next) {
			continue
		}
		out[i].Status = next
		changed = true
	}
	return out, changed
}

// DeliveryStatusMachine applies the planning rules to observed snapshots
// and writes back at most one replace per observation.
type DeliveryStatusMachine struct {
	store *ConversationStore
}

func NewDeliveryStatusMachine(store *ConversationStore) *DeliveryStatusMachine {
	return &DeliveryStatusMachine{store: store}
}

// Observe reacts to a snapshot arriving on self's client. When the
// conversation is open every inbound message becomes read; otherwise
// inbound sent messages become delivered. The replace is diff-gated:
// nothing is written when no status changed, which also breaks the
// feedback loop of snapshots triggered by our own writes. The write is
// pinned to the snapshot's version; losing that race is not an error,
// since the newer version arrives on the feed and is observed in turn.
func (d *DeliveryStatusMachine) Observe(ctx context.Context, self string, conv *models.Conversation, open bool) error {
	var msgs []models.Message
	var changed bool
	if open {
		msgs, changed = PlanRead(self, conv.Messages)
	} else {
		msgs, changed = PlanDelivered(self, conv.Messages)
	}
	if !changed {
		return nil
	}
	err := d.store.ReplaceAll(ctx, conv.ID, conv.Version, msgs)
	if utils.IsErrorCode(err, utils.ErrConflict) {
		return nil
	}
	return err
}
