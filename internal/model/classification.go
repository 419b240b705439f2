package model

// OutcomeStatus is the terminal per-email outcome of one pipeline run.
// Every email that enters a run receives exactly one.
type OutcomeStatus string

// Outcome status constants.
const (
	StatusClassified           OutcomeStatus = "classified"
	StatusDrafted              OutcomeStatus = "drafted"
	StatusClassificationFailed OutcomeStatus = "classification_failed"
	StatusDraftFailed          OutcomeStatus = "draft_failed"
)

// ClassificationResult records the category assigned to one email.
// At most one exists per email per run. Confidence is nil for rule-based
// classification; MatchedRule identifies which rule fired, for audit.
type ClassificationResult struct {
	Confidence  *float64
	EmailID     string
	Category    Category
	MatchedRule string
}

// EmailOutcome captures the terminal result of processing one email,
// including any error that produced a soft failure.
type EmailOutcome struct {
	Classification *ClassificationResult
	Err            error
	Email          Email
	Status         OutcomeStatus
	Drafts         []DraftCandidate
}
