package domain

import "time"

// Ticket is the aggregate for support requests. OwnerID is immutable after
// creation; StatusID is nullable and cleared when the referenced status is
// deleted.
type Ticket struct {
	ID          string
	Title       string
	Description string
	OwnerID     string
	StatusID    *string
	CreatedAt   time.Time
}
