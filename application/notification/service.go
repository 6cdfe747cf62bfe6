// Package notification sends render-share emails
package notification

import (
	"time"

	"panson/domain/notification"
)

// Service handles email notification operations
type Service struct {
	sender      notification.EmailSender
	projectName string
	senderName  string
}

// NewService creates a new notification service
func NewService(sender notification.EmailSender, projectName, senderName string) *Service {
	return &Service{
		sender:      sender,
		projectName: projectName,
		senderName:  senderName,
	}
}

// SendRequest contains the parameters for sharing a session render
type SendRequest struct {
	To          []notification.Recipient
	CC          []notification.Recipient
	SessionDate time.Time
	PresetName  string
	RenderURL   string
	FeaturesURL string
}

// Send sends a notification email for a session render
func (s *Service) Send(req SendRequest) error {
	emailReq := &notification.EmailRequest{
		To:          req.To,
		CC:          req.CC,
		SessionDate: req.SessionDate,
		PresetName:  req.PresetName,
		RenderURL:   req.RenderURL,
		FeaturesURL: req.FeaturesURL,
		ProjectName: s.projectName,
		SenderName:  s.senderName,
	}

	return s.sender.Send(emailReq)
}
