package model

import "time"

// DigestItem pairs one email with its classification and any draft
// candidates generated for it.
type DigestItem struct {
	Classification *ClassificationResult
	Email          Email
	Drafts         []DraftCandidate
}

// DigestEntry groups the items of one category for one digest window.
type DigestEntry struct {
	Category Category
	Items    []DigestItem
}

// Digest is the ordered, immutable summary of one run window. Entries
// follow the fixed category order: Urgent, Important, LowPriority, custom
// categories in configured order, Unclassified last. GeneratedAt is the
// window end, not wall-clock time, so rebuilding from the same inputs
// yields an identical digest.
type Digest struct {
	GeneratedAt time.Time
	ID          string
	Entries     []DigestEntry
	Window      Window
	Counts      map[Category]int
	Total       int
}
