package uuidx

import "github.com/google/uuid"

// New generates a time-ordered (version 7) UUID. It panics if the random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns New formatted as a string.
func NewString() string {
	return New().String()
}
