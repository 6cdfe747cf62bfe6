package gmail

import (
	"context"

	"panson/domain/notification"
	"panson/infrastructure/drive"
)

// OAuthConfig holds the OAuth client and token file locations
type OAuthConfig struct {
	CredentialsFile string
	TokenFile       string
}

// NewClientWithOAuth creates a Gmail client using OAuth 2.0 user
// authentication. The drive package owns the consent flow; its token
// carries the Gmail send scope as well.
func NewClientWithOAuth(ctx context.Context, cfg OAuthConfig, from notification.Recipient, opts ...ClientOption) (*Client, error) {
	c := NewClient(from, opts...)

	if c.gmailService == nil {
		httpClient, err := drive.NewAuthenticatedClient(ctx, drive.OAuthConfig{
			CredentialsFile: cfg.CredentialsFile,
			TokenFile:       cfg.TokenFile,
		})
		if err != nil {
			return nil, err
		}

		svc, err := NewGoogleGmailService(ctx, httpClient)
		if err != nil {
			return nil, err
		}
		c.gmailService = svc
	}

	return c, nil
}
