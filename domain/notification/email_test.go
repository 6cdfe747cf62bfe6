package notification

import (
	"errors"
	"testing"
	"time"
)

func validRequest() *EmailRequest {
	return &EmailRequest{
		To:          []Recipient{{Name: "Thomas Hermann", Address: "thomas@example.com"}},
		SessionDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local),
		PresetName:  "au-bells",
		RenderURL:   "https://drive.google.com/file/d/abc/view",
		ProjectName: "panson",
		SenderName:  "Dev",
	}
}

func TestEmailRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*EmailRequest)
		wantErr error
	}{
		{name: "valid", mutate: func(r *EmailRequest) {}},
		{
			name:    "no recipients",
			mutate:  func(r *EmailRequest) { r.To = nil },
			wantErr: ErrNoRecipients,
		},
		{
			name:    "recipient without address",
			mutate:  func(r *EmailRequest) { r.To = []Recipient{{Name: "Nameless"}} },
			wantErr: ErrInvalidRecipient,
		},
		{
			name:    "no session date",
			mutate:  func(r *EmailRequest) { r.SessionDate = time.Time{} },
			wantErr: ErrNoSessionDate,
		},
		{
			name:    "no preset",
			mutate:  func(r *EmailRequest) { r.PresetName = "" },
			wantErr: ErrNoPreset,
		},
		{
			name:    "no render URL",
			mutate:  func(r *EmailRequest) { r.RenderURL = "" },
			wantErr: ErrNoRenderURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			err := req.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmailRequestFeaturesURLOptional(t *testing.T) {
	req := validRequest()
	req.FeaturesURL = ""
	if err := req.Validate(); err != nil {
		t.Errorf("features URL should be optional: %v", err)
	}
}
