package events

import "time"

// SignStart is emitted before a signing pass runs its resolved roles.
type SignStart struct {
	Parties int
}

// SignFinish is emitted after a signing pass completes or fails.
type SignFinish struct {
	Parties  int
	Err      error
	Duration time.Duration
}
