package draft

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

type stubModel struct {
	err        error
	response   string
	lastPrompt string
	failTimes  int
	calls      int
}

func (s *stubModel) Complete(_ context.Context, prompt string, _ service.CompletionOptions) (string, error) {
	s.calls++
	s.lastPrompt = prompt
	if s.err != nil && (s.failTimes == 0 || s.calls <= s.failTimes) {
		return "", s.err
	}
	return s.response, nil
}

func testStyle(numOptions int) config.StyleConfig {
	return config.StyleConfig{
		Tone:       "friendly",
		Language:   "English",
		Signature:  "Sam",
		NumOptions: numOptions,
	}
}

func quickRetry(maxAttempts int) service.RetryOptions {
	return service.RetryOptions{MaxAttempts: maxAttempts, InitialDelay: time.Millisecond}
}

func TestGenerateProducesCandidates(t *testing.T) {
	stub := &stubModel{response: "Reply one.\n---\nReply two."}
	gen := NewGenerator(stub, testStyle(2), quickRetry(3), service.CompletionOptions{})

	windowEnd := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	email := model.Email{ID: "m1", Sender: "alice@example.com", Subject: "status?", Body: "any update?"}

	candidates, err := gen.Generate(context.Background(), email, windowEnd)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	assert.Equal(t, "Reply one.", candidates[0].Text)
	assert.Equal(t, "Reply two.", candidates[1].Text)
	for _, c := range candidates {
		assert.Equal(t, "m1", c.EmailID)
		assert.Equal(t, "friendly", c.Tone)
		assert.Equal(t, "English", c.Language)
		assert.Equal(t, windowEnd, c.GeneratedAt)
	}
}

func TestGeneratePromptIncludesStyleAndEmail(t *testing.T) {
	stub := &stubModel{response: "ok"}
	gen := NewGenerator(stub, testStyle(2), quickRetry(1), service.CompletionOptions{})

	_, err := gen.Generate(context.Background(), model.Email{
		ID: "m1", Sender: "alice@example.com", Subject: "meeting", Body: "tomorrow?",
	}, time.Now())
	require.NoError(t, err)

	assert.Contains(t, stub.lastPrompt, "Tone: friendly")
	assert.Contains(t, stub.lastPrompt, "Language: English")
	assert.Contains(t, stub.lastPrompt, "Sign off as: Sam")
	assert.Contains(t, stub.lastPrompt, "From: alice@example.com")
	assert.Contains(t, stub.lastPrompt, "Subject: meeting")
	assert.Contains(t, stub.lastPrompt, `"---"`)
}

func TestGenerateRetriesTransientFailures(t *testing.T) {
	stub := &stubModel{
		response:  "Here is a reply.",
		err:       common.ErrModelUnavailable,
		failTimes: 2,
	}
	gen := NewGenerator(stub, testStyle(1), quickRetry(3), service.CompletionOptions{})

	candidates, err := gen.Generate(context.Background(), model.Email{ID: "m1"}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, stub.calls)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Here is a reply.", candidates[0].Text)
}

func TestGenerateSurfacesRetryExhaustion(t *testing.T) {
	stub := &stubModel{err: common.ErrModelUnavailable}
	gen := NewGenerator(stub, testStyle(1), quickRetry(2), service.CompletionOptions{})

	candidates, err := gen.Generate(context.Background(), model.Email{ID: "m1"}, time.Now())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMaxRetries)
	assert.Nil(t, candidates)
	assert.Equal(t, 2, stub.calls)
}

func TestGenerateUnusableOutputIsNotAnError(t *testing.T) {
	stub := &stubModel{response: "<think>only reasoning, no reply</think>"}
	gen := NewGenerator(stub, testStyle(2), quickRetry(1), service.CompletionOptions{})

	candidates, err := gen.Generate(context.Background(), model.Email{ID: "m1"}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestReplySubject(t *testing.T) {
	assert.Equal(t, "Re: hello", ReplySubject(model.Email{Subject: "hello"}))
	assert.Equal(t, "Re: hello", ReplySubject(model.Email{Subject: "Re: hello"}))
	assert.Equal(t, "re: hello", ReplySubject(model.Email{Subject: "re: hello"}))
}
