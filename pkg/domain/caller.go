package domain

// Caller is the identity a workflow acts on behalf of. The zero value is an
// anonymous visitor.
type Caller struct {
	UserID    UserID
	Username  string
	SessionID SessionID
}

// Anonymous returns the unauthenticated caller.
func Anonymous() Caller {
	return Caller{}
}

// IsAuthenticated reports whether the caller was resolved from a live session.
func (c Caller) IsAuthenticated() bool {
	return c.UserID > 0
}
