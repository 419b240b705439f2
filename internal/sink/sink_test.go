package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/model"
)

func sampleDigest() *model.Digest {
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return &model.Digest{
		ID:          "abc123def456",
		GeneratedAt: base.Add(12 * time.Hour),
		Window:      model.Window{Start: base, End: base.Add(12 * time.Hour)},
		Entries: []model.DigestEntry{
			{
				Category: model.CategoryUrgent,
				Items: []model.DigestItem{
					{
						Email: model.Email{
							ID: "m1", Sender: "boss@corp.com", Subject: "budget",
							ReceivedAt: base.Add(time.Hour),
						},
						Classification: &model.ClassificationResult{
							EmailID: "m1", Category: model.CategoryUrgent, MatchedRule: "vip",
						},
						Drafts: []model.DraftCandidate{
							{EmailID: "m1", Text: "Hi,\n\nOn it.\n\nSam"},
						},
					},
				},
			},
		},
		Counts: map[model.Category]int{model.CategoryUrgent: 1},
		Total:  1,
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleDigest())

	assert.Contains(t, out, "Inbox digest abc123def456")
	assert.Contains(t, out, "Window: 2025-06-01 08:00 to 2025-06-01 20:00")
	assert.Contains(t, out, "Total emails: 1")
	assert.Contains(t, out, "== Urgent (1) ==")
	assert.Contains(t, out, "boss@corp.com")
	assert.Contains(t, out, "rule: vip")
	assert.Contains(t, out, "    Hi,\n    \n    On it.\n    \n    Sam")
}

func TestRenderIsDeterministic(t *testing.T) {
	digest := sampleDigest()
	first := Render(digest)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Render(digest))
	}
}

func TestRenderZeroEmailDigest(t *testing.T) {
	digest := &model.Digest{
		ID:          "000000000000",
		GeneratedAt: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
		Window: model.Window{
			Start: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
		},
	}

	out := Render(digest)
	assert.Contains(t, out, "Total emails: 0")
	assert.Contains(t, out, "No new emails in this window.")
}

func TestFileSinkDeliver(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(dir)
	digest := sampleDigest()

	require.NoError(t, s.Deliver(context.Background(), digest))

	path := filepath.Join(dir, "digest-2025-06-01-abc123def456.txt")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Render(digest), string(data))
}

type recordingSender struct {
	to      string
	subject string
	body    string
	err     error
}

func (s *recordingSender) Send(_ context.Context, to, subject, body string) error {
	if s.err != nil {
		return s.err
	}
	s.to, s.subject, s.body = to, subject, body
	return nil
}

func TestMailSinkDeliver(t *testing.T) {
	sender := &recordingSender{}
	s := NewMailSink(sender, "me@example.com")
	digest := sampleDigest()

	require.NoError(t, s.Deliver(context.Background(), digest))
	assert.Equal(t, "me@example.com", sender.to)
	assert.Equal(t, "Inbox digest for 2025-06-01 (1 emails)", sender.subject)
	assert.Equal(t, Render(digest), sender.body)
}

func TestMailSinkDeliverPropagatesSendFailure(t *testing.T) {
	sender := &recordingSender{err: assert.AnError}
	s := NewMailSink(sender, "me@example.com")

	err := s.Deliver(context.Background(), sampleDigest())
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFileSinkDeliversZeroEmailDigest(t *testing.T) {
	dir := t.TempDir()
	s := NewFileSink(dir)

	digest := &model.Digest{
		ID:          "deadbeef0000",
		GeneratedAt: time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Deliver(context.Background(), digest))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
