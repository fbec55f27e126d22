package domain

import "time"

// Challenge is a single-use human verification puzzle held in memory.
type Challenge struct {
	ID        string
	Answer    string
	ExpiresAt time.Time
}

// Expired reports whether the challenge can no longer be answered at now.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Puzzle is what the client gets back when it asks for a challenge.
type Puzzle struct {
	ID        string    `json:"id"`
	Text      string    `json:"word"`
	ExpiresAt time.Time `json:"expires_at"`
}
