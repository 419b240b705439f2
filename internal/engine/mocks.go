package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mailsift/mailsift/internal/model"
)

// MockClassifier is a test implementation of the Classifier interface.
// It assigns categories deterministically from sender and subject text.
type MockClassifier struct {
	FailFor map[string]error
	calls   []string
	mu      sync.Mutex
}

// NewMockClassifier creates a new mock classifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{FailFor: make(map[string]error)}
}

// Classify provides deterministic categories based on email content.
func (m *MockClassifier) Classify(email model.Email) (model.ClassificationResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, email.ID)
	m.mu.Unlock()

	if err, ok := m.FailFor[email.ID]; ok {
		return model.ClassificationResult{}, err
	}

	sender := strings.ToLower(email.Sender)
	subject := strings.ToLower(email.Subject)

	var category model.Category
	var rule string
	switch {
	case strings.Contains(sender, "boss@") || strings.Contains(subject, "urgent"):
		category = model.CategoryUrgent
		rule = "urgent-sender"
	case strings.Contains(subject, "review") || strings.Contains(subject, "invoice"):
		category = model.CategoryImportant
		rule = "keyword-important"
	default:
		category = model.CategoryLowPriority
		rule = "default"
	}

	return model.ClassificationResult{
		EmailID:     email.ID,
		Category:    category,
		MatchedRule: rule,
	}, nil
}

// Calls returns the email IDs classified so far.
func (m *MockClassifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockGenerator is a test implementation of the DraftGenerator interface.
type MockGenerator struct {
	FailFor   map[string]error
	EmptyFor  map[string]bool
	NumDrafts int
	calls     []string
	mu        sync.Mutex
}

// NewMockGenerator creates a new mock draft generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		FailFor:   make(map[string]error),
		EmptyFor:  make(map[string]bool),
		NumDrafts: 1,
	}
}

// Generate returns canned draft candidates, or the configured failure.
func (m *MockGenerator) Generate(_ context.Context, email model.Email, windowEnd time.Time) ([]model.DraftCandidate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, email.ID)
	m.mu.Unlock()

	if err, ok := m.FailFor[email.ID]; ok {
		return nil, err
	}
	if m.EmptyFor[email.ID] {
		return nil, nil
	}

	drafts := make([]model.DraftCandidate, 0, m.NumDrafts)
	for i := 0; i < m.NumDrafts; i++ {
		drafts = append(drafts, model.DraftCandidate{
			EmailID:     email.ID,
			Text:        "Thank you for your email regarding " + email.Subject + ".",
			Tone:        "professional",
			Language:    "English",
			GeneratedAt: windowEnd,
		})
	}
	return drafts, nil
}

// Calls returns the email IDs drafts were requested for.
func (m *MockGenerator) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// MockMailSource is a test implementation of service.MailSource.
type MockMailSource struct {
	FetchErr  error
	Emails    []model.Email
	processed map[string]bool
	mu        sync.Mutex
}

// NewMockMailSource creates a mail source seeded with the given emails.
func NewMockMailSource(emails ...model.Email) *MockMailSource {
	return &MockMailSource{
		Emails:    emails,
		processed: make(map[string]bool),
	}
}

// FetchNew returns unprocessed seeded emails up to limit.
func (m *MockMailSource) FetchNew(_ context.Context, limit int) ([]model.Email, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	var out []model.Email
	for _, email := range m.Emails {
		if m.processed[email.ID] {
			continue
		}
		out = append(out, email)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkProcessed records the email as handled.
func (m *MockMailSource) MarkProcessed(_ context.Context, emailID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[emailID] = true
	return nil
}

// Processed reports whether the email was marked processed.
func (m *MockMailSource) Processed(emailID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.processed[emailID]
}
