// Package model defines the core domain models used throughout the application.
package model

import "time"

// Email represents a single message fetched from the mail provider.
// Emails are immutable once fetched; the pipeline never mutates them.
type Email struct {
	ReceivedAt time.Time
	ID         string
	ThreadID   string
	Sender     string
	Subject    string
	Body       string
}
