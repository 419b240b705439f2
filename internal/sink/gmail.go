package sink

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mailsift/mailsift/internal/model"
)

// Sender sends a plain-text message; the gmail package's Source
// satisfies it.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailSink delivers rendered digests as email to a configured address.
type MailSink struct {
	sender Sender
	to     string
}

// NewMailSink creates a sink that emails digests via sender.
func NewMailSink(sender Sender, to string) *MailSink {
	return &MailSink{sender: sender, to: to}
}

// Deliver sends the digest. Zero-email digests are sent too.
func (s *MailSink) Deliver(ctx context.Context, digest *model.Digest) error {
	subject := fmt.Sprintf("Inbox digest for %s (%d emails)", digest.GeneratedAt.Format("2006-01-02"), digest.Total)
	if err := s.sender.Send(ctx, s.to, subject, Render(digest)); err != nil {
		return fmt.Errorf("failed to deliver digest %s: %w", digest.ID, err)
	}
	slog.Info("Digest emailed", "to", s.to, "total", digest.Total)
	return nil
}
