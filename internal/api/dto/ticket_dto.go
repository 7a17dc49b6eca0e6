package dto

import (
	"time"
)

// CreateTicketRequest payload. OwnerID defaults to the caller when omitted.
type CreateTicketRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	OwnerID     *string `json:"owner_id"`
	StatusID    *string `json:"status_id"`
}

// UpdateTicketRequest payload; every field tracks explicit provision so an
// explicit null or empty value is still applied.
type UpdateTicketRequest struct {
	Title       Optional[string]  `json:"title"`
	Description Optional[string]  `json:"description"`
	StatusID    Optional[*string] `json:"status_id"`
}

// TicketResponse is the ticket representation.
type TicketResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"owner_id"`
	StatusID    *string   `json:"status_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateTicketStatusRequest payload.
type CreateTicketStatusRequest struct {
	Name string `json:"name"`
}

// TicketStatusResponse representation.
type TicketStatusResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateMessageRequest payload. is_ai is accepted in the body only so it can
// be rejected explicitly; AI messages are created by the streaming path.
type CreateMessageRequest struct {
	Content string `json:"content"`
	IsAI    bool   `json:"is_ai"`
}

// MessageResponse represents one thread message.
type MessageResponse struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Content   string    `json:"content"`
	IsAI      bool      `json:"is_ai"`
	CreatedAt time.Time `json:"created_at"`
}
