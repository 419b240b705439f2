package model

import "time"

// DraftCandidate is one reply-text option generated for an email.
// Candidates are never auto-sent; reviewing them is downstream's job.
type DraftCandidate struct {
	GeneratedAt time.Time
	EmailID     string
	Text        string
	Tone        string
	Language    string
}
