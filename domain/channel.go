package domain

import "github.com/google/uuid"

// Channel groups an admin, a member set and the ordered list of messages it
// owns. Membership is mutated by the directory, never by the router, which
// only reads it at delivery time.
type Channel struct {
	ID       string
	Name     string
	AdminID  string
	Members  []string
	Messages []uuid.UUID
}

// Membership is the audience-relevant projection of a Channel.
type Membership struct {
	Members []string
	AdminID string
}
