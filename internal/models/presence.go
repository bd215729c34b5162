package models

// Identity is the stable triple the identity provider supplies for the
// active session. This engine only consumes it.
type Identity struct {
	UID   string `json:"uid"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// UserPresence is the per-user presence document, owned exclusively by its
// subject user. TypingTo names the partner currently being typed to, or ""
// when idle.
type UserPresence struct {
	UID      string    `json:"uid" bson:"_id"`
	Name     string    `json:"name,omitempty" bson:"name,omitempty"`
	Email    string    `json:"email,omitempty" bson:"email,omitempty"`
	IsOnline bool      `json:"isOnline" bson:"isOnline"`
	LastSeen Timestamp `json:"lastSeen,omitempty" bson:"lastSeen,omitempty"`
	TypingTo string    `json:"typingTo,omitempty" bson:"typingTo,omitempty"`
}

// StatusLine renders the presence display rule: "Online" while connected,
// the last-seen time when known, otherwise "Offline".
func (p UserPresence) StatusLine() string {
	if p.IsOnline {
		return "Online"
	}
	if !p.LastSeen.IsZero() {
		return "Last seen " + p.LastSeen.Local().Format("Jan 2 15:04")
	}
	return "Offline"
}

// DisplayName prefers the profile name and falls back to the email, the
// same rule the sidebar uses.
func (p UserPresence) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
