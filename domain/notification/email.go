package notification

import (
	"time"
)

// Recipient represents an email recipient with name and address
type Recipient struct {
	Name    string
	Address string
}

// EmailRequest contains the data needed to share a sonification render
type EmailRequest struct {
	To          []Recipient // Primary recipients
	CC          []Recipient // Carbon copy recipients
	SessionDate time.Time   // Date of the recorded session
	PresetName  string      // Sonification preset used for the render
	RenderURL   string      // Google Drive URL for the rendered audio
	FeaturesURL string      // Google Drive URL for the feature CSV (optional)
	ProjectName string      // Project name for the subject line
	SenderName  string      // Name to sign the email
}

// Validate checks that the email request has all required fields
func (r *EmailRequest) Validate() error {
	if len(r.To) == 0 {
		return ErrNoRecipients
	}
	for _, to := range r.To {
		if to.Address == "" {
			return ErrInvalidRecipient
		}
	}
	if r.SessionDate.IsZero() {
		return ErrNoSessionDate
	}
	if r.PresetName == "" {
		return ErrNoPreset
	}
	if r.RenderURL == "" {
		return ErrNoRenderURL
	}
	return nil
}

// EmailSender defines the interface for sending emails
type EmailSender interface {
	Send(req *EmailRequest) error
}
