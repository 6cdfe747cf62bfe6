package notification

import (
	"errors"
	"testing"
	"time"

	"panson/domain/notification"
)

type fakeSender struct {
	sent []*notification.EmailRequest
	err  error
}

func (f *fakeSender) Send(req *notification.EmailRequest) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, req)
	return nil
}

func TestSend(t *testing.T) {
	sender := &fakeSender{}
	s := NewService(sender, "panson", "Dev")

	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	err := s.Send(SendRequest{
		To:          []notification.Recipient{{Name: "Thomas Hermann", Address: "thomas@example.com"}},
		SessionDate: date,
		PresetName:  "au-bells",
		RenderURL:   "https://drive.google.com/file/d/abc/view",
		FeaturesURL: "https://drive.google.com/file/d/def/view",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d emails", len(sender.sent))
	}
	got := sender.sent[0]
	if got.ProjectName != "panson" || got.SenderName != "Dev" {
		t.Errorf("identity = %q/%q", got.ProjectName, got.SenderName)
	}
	if !got.SessionDate.Equal(date) || got.PresetName != "au-bells" {
		t.Errorf("session = %v/%q", got.SessionDate, got.PresetName)
	}
}

func TestSendPropagatesError(t *testing.T) {
	wantErr := errors.New("smtp down")
	s := NewService(&fakeSender{err: wantErr}, "panson", "Dev")

	if err := s.Send(SendRequest{}); !errors.Is(err, wantErr) {
		t.Errorf("err = %v", err)
	}
}
