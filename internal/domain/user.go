package domain

import "time"

// User is the domain model for accounts that own tickets. The ticket service
// consumes users only through the UserLookup capability; credential fields are
// used by the auth service alone.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	IsSuperuser  bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
