package domain

import "strings"

// TicketStatus is an administrator-defined label attachable to tickets. It is
// an open catalog rather than an enum so statuses can be added and removed at
// runtime without schema changes.
type TicketStatus struct {
	ID   string
	Name string
}

// NormalizeStatusName canonicalizes a status name: surrounding whitespace is
// trimmed and the result lowercased. An empty return value means the input
// was blank and must be rejected.
func NormalizeStatusName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
