package outbox

import (
	"encoding/json"
	"time"
)

// ActorRef identifies who produced the event. Storefront traffic is
// anonymous, so the actor is a checkout identity rather than a user account.
type ActorRef struct {
	SessionID string `json:"sessionId,omitempty"`
	CookieID  string `json:"cookieId,omitempty"`
	Role      string `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}
