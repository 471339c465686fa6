package util

import "github.com/google/uuid"

// NewID returns a random identifier for transactions, sessions and runs.
func NewID() string {
	return uuid.NewString()
}
