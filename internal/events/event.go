package events

import "time"

// Kind names a lifecycle transition of a message.
type Kind string

const (
	KindMessageCreated    Kind = "message.created"
	KindMessageOpened     Kind = "message.opened"
	KindResponseSubmitted Kind = "response.submitted"
)

// Event is one lifecycle transition, published to the stream by the API
// and consumed by the notifier.
type Event struct {
	Kind       Kind      `json:"kind"`
	MessageID  int64     `json:"message_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func New(kind Kind, messageID int64) Event {
	return Event{
		Kind:       kind,
		MessageID:  messageID,
		OccurredAt: time.Now().UTC(),
	}
}
