package model

import "time"

// Window is the time span of emails covered by one run or digest.
type Window struct {
	Start time.Time
	End   time.Time
}

// RunResult aggregates the per-email outcomes of one pipeline invocation.
// It is transient: it exists only for the run and the digest build that
// consumes it.
type RunResult struct {
	StartedAt  time.Time
	FinishedAt time.Time
	RunID      string
	Outcomes   []EmailOutcome
	Window     Window
}

// Total returns the number of emails that entered the run.
func (r *RunResult) Total() int {
	return len(r.Outcomes)
}

// CountByStatus returns how many outcomes carry the given status.
func (r *RunResult) CountByStatus(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Classified reports how many emails received a category, counting soft
// draft failures (category was still assigned) but not classification
// failures.
func (r *RunResult) Classified() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Classification != nil {
			n++
		}
	}
	return n
}
