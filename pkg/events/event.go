package events

import "time"

const (
	// TypeInterviewCompleted fires once when a session answers its last
	// visible question or is explicitly completed.
	TypeInterviewCompleted = "INTERVIEW_COMPLETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "INTERVIEW_COMPLETED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent holds the common fields every concrete event carries.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewInterviewCompleted builds the completion event for one finished session.
// The full answer set rides along so downstream consumers never re-read the
// session store.
func NewInterviewCompleted(sessionKey, flow, schemaVersion string, answers map[string]any) Event {
	return BaseEvent{
		Type: TypeInterviewCompleted,
		Data: map[string]interface{}{
			"session_key":    sessionKey,
			"flow":           flow,
			"schema_version": schemaVersion,
			"answers":        answers,
		},
		OccurredAt: time.Now(),
	}
}
