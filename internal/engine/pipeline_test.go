package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
)

func draftEligibleBuiltins(cat model.Category) bool {
	return cat == model.CategoryUrgent || cat == model.CategoryImportant
}

func testWindow() model.Window {
	return model.Window{
		Start: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestPipelineMixedBatch(t *testing.T) {
	// One urgent email that drafts, one low-priority email, and one urgent
	// email whose draft call exhausts its retries.
	emails := []model.Email{
		{ID: "m1", Sender: "boss@corp.com", Subject: "budget", ReceivedAt: time.Date(2025, 6, 1, 8, 10, 0, 0, time.UTC)},
		{ID: "m2", Sender: "news@shop.example", Subject: "sale", ReceivedAt: time.Date(2025, 6, 1, 8, 20, 0, 0, time.UTC)},
		{ID: "m3", Sender: "boss@corp.com", Subject: "slides", ReceivedAt: time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)},
	}

	classifier := NewMockClassifier()
	generator := NewMockGenerator()
	generator.FailFor["m3"] = fmt.Errorf("%w: model timed out", common.ErrMaxRetries)
	source := NewMockMailSource(emails...)

	pipeline := NewPipeline(PipelineConfig{
		Classifier:    classifier,
		Generator:     generator,
		MailSource:    source,
		DraftEligible: draftEligibleBuiltins,
		Workers:       2,
	})

	result, err := pipeline.Run(context.Background(), emails, testWindow())
	require.NoError(t, err)
	require.Len(t, result.Outcomes, 3)
	assert.NotEmpty(t, result.RunID)

	byID := outcomesByID(result)

	// All three classified; the draft failure does not erase the category.
	assert.Equal(t, model.StatusDrafted, byID["m1"].Status)
	require.Len(t, byID["m1"].Drafts, 1)
	assert.Equal(t, model.CategoryUrgent, byID["m1"].Classification.Category)

	assert.Equal(t, model.StatusClassified, byID["m2"].Status)
	assert.Empty(t, byID["m2"].Drafts)
	assert.Equal(t, model.CategoryLowPriority, byID["m2"].Classification.Category)

	assert.Equal(t, model.StatusDraftFailed, byID["m3"].Status)
	require.NotNil(t, byID["m3"].Classification)
	assert.Equal(t, model.CategoryUrgent, byID["m3"].Classification.Category)
	assert.ErrorIs(t, byID["m3"].Err, common.ErrMaxRetries)

	assert.Equal(t, 3, result.Classified())
	assert.Equal(t, 1, result.CountByStatus(model.StatusDraftFailed))

	// Every email was marked processed regardless of draft outcome.
	for _, email := range emails {
		assert.True(t, source.Processed(email.ID), "email %s not marked processed", email.ID)
	}

	// Low priority never reaches the generator.
	assert.NotContains(t, generator.Calls(), "m2")
}

func TestPipelineFailureIsolation(t *testing.T) {
	emails := []model.Email{
		{ID: "bad", Sender: "x@example.com"},
		{ID: "good", Sender: "boss@corp.com"},
	}

	classifier := NewMockClassifier()
	classifier.FailFor["bad"] = errors.New("classifier exploded")

	pipeline := NewPipeline(PipelineConfig{
		Classifier:    classifier,
		Generator:     NewMockGenerator(),
		MailSource:    NewMockMailSource(emails...),
		DraftEligible: draftEligibleBuiltins,
		Workers:       1,
	})

	result, err := pipeline.Run(context.Background(), emails, testWindow())
	require.NoError(t, err)

	byID := outcomesByID(result)
	assert.Equal(t, model.StatusClassificationFailed, byID["bad"].Status)
	assert.Error(t, byID["bad"].Err)
	assert.Nil(t, byID["bad"].Classification)

	// The failure did not leak into its neighbor.
	assert.Equal(t, model.StatusDrafted, byID["good"].Status)
}

func TestPipelineEveryEmailGetsExactlyOneOutcome(t *testing.T) {
	var emails []model.Email
	for i := 0; i < 40; i++ {
		emails = append(emails, model.Email{
			ID:     fmt.Sprintf("m%02d", i),
			Sender: "someone@example.com",
		})
	}

	pipeline := NewPipeline(PipelineConfig{
		Classifier: NewMockClassifier(),
		MailSource: NewMockMailSource(emails...),
		Workers:    8,
	})

	result, err := pipeline.Run(context.Background(), emails, testWindow())
	require.NoError(t, err)
	require.Len(t, result.Outcomes, len(emails))

	seen := make(map[string]int)
	for _, outcome := range result.Outcomes {
		seen[outcome.Email.ID]++
		assert.NotEmpty(t, outcome.Status)
	}
	for _, email := range emails {
		assert.Equal(t, 1, seen[email.ID])
	}
}

func TestPipelineCancellationPreservesCompletedOutcomes(t *testing.T) {
	emails := []model.Email{
		{ID: "m1", Sender: "a@example.com"},
		{ID: "m2", Sender: "b@example.com"},
		{ID: "m3", Sender: "c@example.com"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipeline := NewPipeline(PipelineConfig{
		Classifier: NewMockClassifier(),
		MailSource: NewMockMailSource(emails...),
		Workers:    1,
	})

	result, err := pipeline.Run(ctx, emails, testWindow())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, result.Outcomes, 3)

	// Cancelled slots still carry a terminal outcome and the error.
	for _, outcome := range result.Outcomes {
		assert.NotEmpty(t, outcome.Status)
		if outcome.Status == model.StatusClassificationFailed {
			assert.ErrorIs(t, outcome.Err, context.Canceled)
		}
	}
}

func TestPipelineProgressHook(t *testing.T) {
	emails := []model.Email{
		{ID: "m1"}, {ID: "m2"}, {ID: "m3"},
	}

	done := 0
	pipeline := NewPipeline(PipelineConfig{
		Classifier:  NewMockClassifier(),
		Workers:     1,
		OnEmailDone: func() { done++ },
	})

	_, err := pipeline.Run(context.Background(), emails, testWindow())
	require.NoError(t, err)
	assert.Equal(t, 3, done)
}

func TestPipelineEmptyBatch(t *testing.T) {
	pipeline := NewPipeline(PipelineConfig{Classifier: NewMockClassifier()})

	result, err := pipeline.Run(context.Background(), nil, testWindow())
	require.NoError(t, err)
	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 0, result.Total())
}

func outcomesByID(result *model.RunResult) map[string]model.EmailOutcome {
	byID := make(map[string]model.EmailOutcome, len(result.Outcomes))
	for _, outcome := range result.Outcomes {
		byID[outcome.Email.ID] = outcome
	}
	return byID
}
