package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/draft"
	"github.com/mailsift/mailsift/internal/model"
)

const userID = "me"

// Source implements service.MailSource and service.DraftSaver over the
// Gmail API. "Processed" maps to removing the UNREAD label, so re-fetching
// after a crash never re-delivers handled emails.
type Source struct {
	svc *gmailapi.Service
}

// NewSource creates a Gmail mail source from the cached OAuth token.
func NewSource(ctx context.Context, cfg config.GmailConfig) (*Source, error) {
	ts, err := tokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return &Source{svc: svc}, nil
}

// FetchNew lists unread messages up to limit and resolves each into an
// Email.
func (s *Source) FetchNew(ctx context.Context, limit int) ([]model.Email, error) {
	list, err := s.svc.Users.Messages.List(userID).
		Q("is:unread").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMailUnavailable, err)
	}

	emails := make([]model.Email, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := s.svc.Users.Messages.Get(userID, ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch message %s: %v", common.ErrMailUnavailable, ref.Id, err)
		}
		emails = append(emails, parseMessage(msg))
	}
	return emails, nil
}

// MarkProcessed removes the UNREAD label from the message.
func (s *Source) MarkProcessed(ctx context.Context, emailID string) error {
	_, err := s.svc.Users.Messages.Modify(userID, emailID, &gmailapi.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: failed to mark %s processed: %v", common.ErrMailUnavailable, emailID, err)
	}
	return nil
}

// SaveDraft creates a Gmail draft replying to the email and returns the
// draft ID. Drafts are never sent automatically.
func (s *Source) SaveDraft(ctx context.Context, email model.Email, candidate model.DraftCandidate) (string, error) {
	raw := buildRawMessage(email.Sender, draft.ReplySubject(email), candidate.Text)
	created, err := s.svc.Users.Drafts.Create(userID, &gmailapi.Draft{
		Message: &gmailapi.Message{
			Raw:      raw,
			ThreadId: email.ThreadID,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: failed to create draft for %s: %v", common.ErrMailUnavailable, email.ID, err)
	}
	return created.Id, nil
}

// Send delivers a message, used by the gmail digest sink.
func (s *Source) Send(ctx context.Context, to, subject, body string) error {
	raw := buildRawMessage(to, subject, body)
	_, err := s.svc.Users.Messages.Send(userID, &gmailapi.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%w: failed to send message: %v", common.ErrMailUnavailable, err)
	}
	return nil
}

func buildRawMessage(to, subject, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

// parseMessage extracts the fields the pipeline needs from a full-format
// Gmail message.
func parseMessage(msg *gmailapi.Message) model.Email {
	email := model.Email{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		ReceivedAt: time.UnixMilli(msg.InternalDate),
	}
	if msg.Payload == nil {
		return email
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "Subject":
			email.Subject = header.Value
		case "From":
			email.Sender = header.Value
		}
	}
	if email.Subject == "" {
		email.Subject = "(No Subject)"
	}
	if email.Sender == "" {
		email.Sender = "(Unknown Sender)"
	}

	email.Body = extractBody(msg.Payload)
	return email
}

// extractBody walks the MIME tree for the first text/plain part, falling
// back to the payload body for single-part messages.
func extractBody(payload *gmailapi.MessagePart) string {
	if len(payload.Parts) == 0 {
		return decodeBody(payload.Body)
	}
	for _, part := range payload.Parts {
		if part.MimeType == "text/plain" {
			if body := decodeBody(part.Body); body != "" {
				return body
			}
		}
	}
	// No plain-text part; recurse into nested multiparts.
	for _, part := range payload.Parts {
		if strings.HasPrefix(part.MimeType, "multipart/") {
			if body := extractBody(part); body != "" {
				return body
			}
		}
	}
	return ""
}

func decodeBody(body *gmailapi.MessagePartBody) string {
	if body == nil || body.Data == "" {
		return ""
	}
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(body.Data)
	if err != nil {
		return ""
	}
	return string(decoded)
}
