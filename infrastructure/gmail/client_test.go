package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/gmail/v1"

	"panson/domain/notification"
)

// fakeGmailService captures sent messages
type fakeGmailService struct {
	sent    []*gmail.Message
	sendErr error
}

func (f *fakeGmailService) SendMessage(ctx context.Context, userID string, message *gmail.Message) (*gmail.Message, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, message)
	return message, nil
}

func testRequest() *notification.EmailRequest {
	return &notification.EmailRequest{
		To:          []Recipient{{Name: "Thomas Hermann", Address: "thomas@example.com"}},
		CC:          []Recipient{{Name: "Lab Archive", Address: "archive@example.com"}},
		SessionDate: time.Now(),
		PresetName:  "au-bells",
		RenderURL:   "https://drive.google.com/file/d/abc/view",
		ProjectName: "panson",
		SenderName:  "Dev",
	}
}

// Recipient aliased for brevity in fixtures
type Recipient = notification.Recipient

func TestSendBuildsMIMEMessage(t *testing.T) {
	svc := &fakeGmailService{}
	c := NewClient(Recipient{Name: "Panson Bot", Address: "bot@example.com"}, WithGmailService(svc))

	if err := c.Send(testRequest()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(svc.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(svc.sent))
	}

	raw, err := base64.URLEncoding.DecodeString(svc.sent[0].Raw)
	if err != nil {
		t.Fatalf("raw message is not base64: %v", err)
	}
	msg := string(raw)

	for _, want := range []string{
		"From: Panson Bot <bot@example.com>",
		"To: Thomas Hermann <thomas@example.com>",
		"Cc: Lab Archive <archive@example.com>",
		"Subject: panson: Sonification render of",
		"Content-Type: multipart/alternative",
		"Dear Thomas,",
		"au-bells",
		"https://drive.google.com/file/d/abc/view",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestSendRejectsInvalidRequest(t *testing.T) {
	svc := &fakeGmailService{}
	c := NewClient(Recipient{Name: "Bot", Address: "bot@example.com"}, WithGmailService(svc))

	req := testRequest()
	req.To = nil
	if err := c.Send(req); !errors.Is(err, notification.ErrNoRecipients) {
		t.Errorf("Send() = %v, want ErrNoRecipients", err)
	}
	if len(svc.sent) != 0 {
		t.Errorf("no message should be sent, got %d", len(svc.sent))
	}
}

func TestSendWrapsAPIFailure(t *testing.T) {
	svc := &fakeGmailService{sendErr: errors.New("quota exceeded")}
	c := NewClient(Recipient{Name: "Bot", Address: "bot@example.com"}, WithGmailService(svc))

	if err := c.Send(testRequest()); !errors.Is(err, notification.ErrSendFailed) {
		t.Errorf("Send() = %v, want ErrSendFailed", err)
	}
}
