package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventTicketUpdated      EventType = "ticket_updated"
	EventTicketDeleted      EventType = "ticket_deleted"
	EventTicketMessageAdded EventType = "ticket_message_added"
	EventAIResponseRecorded EventType = "ai_response_recorded"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	OwnerID  string  `json:"owner_id"`
	StatusID *string `json:"status_id,omitempty"`
	Title    string  `json:"title"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID      string `json:"message_id"`
	IsAI           bool   `json:"is_ai"`
	ContentPreview string `json:"content_preview"`
}

// AIResponseRecordedPayload payload.
type AIResponseRecordedPayload struct {
	MessageID string `json:"message_id"`
	Length    int    `json:"length"`
}
