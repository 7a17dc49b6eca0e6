package domain

import "time"

// Message is one turn in a ticket's thread, authored either by the owning
// customer or by the AI assistant. Messages are immutable once created and
// totally ordered by CreatedAt within a ticket.
type Message struct {
	ID        string
	TicketID  string
	Content   string
	IsAI      bool
	CreatedAt time.Time
}
