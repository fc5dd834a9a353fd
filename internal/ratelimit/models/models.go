// Package models holds the rate limiting value types shared by stores and
// middleware.
package models

import (
	"fmt"
	"time"
)

// Class groups endpoints that share a budget.
type Class string

const (
	ClassLogin  Class = "login"
	ClassSignUp Class = "signup"
)

// Limit is a sliding window budget: at most Requests per Window.
type Limit struct {
	Requests int
	Window   time.Duration
}

// Result reports the outcome of a single check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds, set when denied
}

// Key builds the bucket key for a client within a class.
func Key(class Class, client string) string {
	return fmt.Sprintf("ratelimit:%s:%s", class, client)
}
