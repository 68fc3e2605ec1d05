package domain

// Profile is the projection of a user pushed alongside delivered messages:
// just the fields a client needs to render the sender or recipient.
type Profile struct {
	ID    string
	Email string
	Name  string
	Image string
	Color string
}
