package models

// Status is the delivery state of a message. Transitions are strictly
// monotonic: sent -> delivered -> read, and only the recipient's client
// ever advances a message past sent.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

// rank orders statuses for the monotonicity check. Unknown values rank
// below sent so a corrupt document can still be repaired forward.
func (s Status) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
func (s Status) CanAdvanceTo(next Status) bool {
	return next.rank() > s.rank()
}

// Message is a single direct message. At least one of Text, Image or Audio
// is present on any persisted message; Image and Audio hold blob-store URLs.
// Reactions maps an emoji to the user ids that reacted with it; a user
// appears in at most one emoji's set at a time.
type Message struct {
	ID        string              `json:"id" bson:"_id"`
	From      string              `json:"from" bson:"from"`
	To        string              `json:"to" bson:"to"`
	Text      string              `json:"text,omitempty" bson:"text,omitempty"`
	Image     string              `json:"image,omitempty" bson:"image,omitempty"`
	Audio     string              `json:"audio,omitempty" bson:"audio,omitempty"`
	Timestamp Timestamp           `json:"timestamp" bson:"timestamp"`
	Status    Status              `json:"status,omitempty" bson:"status,omitempty"`
	Reactions map[string][]string `json:"reactions,omitempty" bson:"reactions,omitempty"`
}

// Preview derives the sidebar preview line for a message: its text if any,
// otherwise a placeholder for the attachment kind.
func (m Message) Preview() string {
	switch {
	case m.Text != "":
		return m.Text
	case m.Image != "":
		return "Image"
	case m.Audio != "":
		return "Audio"
	}
	return ""
}

// ReactedWith returns the emoji u currently reacts with, or "" if none.
func (m Message) ReactedWith(u string) string {
	for emoji, users := range m.Reactions {
		for _, id := range users {
			if id == u {
				return emoji
			}
		}
	}
	return ""
}

// Draft is the in-progress compose state for one conversation. Image and
// Audio hold raw bytes captured in the client, uploaded on send.
type Draft struct {
	Text  string
	Image []byte
	Audio []byte
}

// Empty reports whether there is nothing to send.
func (d Draft) Empty() bool {
	return d.Text == "" && len(d.Image) == 0 && len(d.Audio) == 0
}
