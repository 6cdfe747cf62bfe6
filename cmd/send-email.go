package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	appnotif "panson/application/notification"
	"panson/domain/notification"
	"panson/infrastructure/config"
	"panson/infrastructure/gmail"

	"github.com/spf13/cobra"
)

var (
	emailTo          []string
	emailDate        string
	emailPreset      string
	emailRenderURL   string
	emailFeaturesURL string
	emailSenderKey   string
)

var sendEmailCmd = &cobra.Command{
	Use:   "send-email",
	Short: "Send email notification with render links",
	Long: `Send an email notification to recipients with links to a sonification
render.

Recipients can be specified by name (first name, last name, or full name)
or by their config key. Multiple recipients can be specified using
multiple --to flags or comma-separated values.

Examples:
  # Send to a single recipient
  panson send-email --to thomas --date 2026-03-14 --preset au-bells \
    --render-url "https://..." --features-url "https://..."

  # Send to multiple recipients
  panson send-email --to thomas --to jane --date 2026-03-14 ...
  panson send-email --to "thomas,jane" --date 2026-03-14 ...`,
	RunE: runSendEmail,
}

func init() {
	rootCmd.AddCommand(sendEmailCmd)
	sendEmailCmd.Flags().StringArrayVar(&emailTo, "to", nil, "Recipient(s) by name or config key (can be repeated or comma-separated)")
	sendEmailCmd.Flags().StringVar(&emailDate, "date", "", "Session date in YYYY-MM-DD format")
	sendEmailCmd.Flags().StringVar(&emailPreset, "preset", "", "Sonification preset the render was made with")
	sendEmailCmd.Flags().StringVar(&emailRenderURL, "render-url", "", "Google Drive URL for the render")
	sendEmailCmd.Flags().StringVar(&emailFeaturesURL, "features-url", "", "Google Drive URL for the feature CSV")
	sendEmailCmd.Flags().StringVar(&emailSenderKey, "sender", "", "Sender config key (defaults to config default_sender)")

	sendEmailCmd.MarkFlagRequired("to")
	sendEmailCmd.MarkFlagRequired("date")
	sendEmailCmd.MarkFlagRequired("preset")
	sendEmailCmd.MarkFlagRequired("render-url")
}

func runSendEmail(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	// Parse session date
	sessionDate, err := time.Parse("2006-01-02", emailDate)
	if err != nil {
		return fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}

	// Lookup recipients
	lookup := config.NewRecipientLookup(cfg)
	recipients, err := lookup.LookupRecipients(emailTo)
	if err != nil {
		return fmt.Errorf("failed to lookup recipients: %w", err)
	}

	// Get default CC
	ccRecipients := lookup.GetDefaultCC()

	// Lookup sender
	mgr := config.NewConfigManager(cfg, cfgFile)
	var senderName string
	if emailSenderKey != "" {
		sender, err := mgr.GetSender(emailSenderKey)
		if err != nil {
			return fmt.Errorf("sender '%s' not found in config\n\nTo fix this, run:\n  %s",
				emailSenderKey, config.SuggestAddSenderCommand(emailSenderKey))
		}
		senderName = sender.Name
	} else {
		sender, err := mgr.GetDefaultSender()
		if err != nil {
			return fmt.Errorf("no default sender configured. Either specify --sender or set senders.default_sender in config")
		}
		senderName = sender.Name
	}

	// Create Gmail client with OAuth
	ctx := cmd.Context()
	from := notification.Recipient{
		Name:    cfg.Email.FromName,
		Address: cfg.Email.FromAddress,
	}

	gmailClient, err := gmail.NewClientWithOAuth(ctx, gmail.OAuthConfig{
		CredentialsFile: cfg.Google.CredentialsFile,
		TokenFile:       cfg.Google.TokenFile,
	}, from)
	if err != nil {
		return fmt.Errorf("failed to create Gmail client: %w", err)
	}

	return RunSendEmailWithDependencies(
		ctx,
		gmailClient,
		cfg.Email.ProjectName,
		senderName,
		recipients,
		ccRecipients,
		sessionDate,
		emailPreset,
		emailRenderURL,
		emailFeaturesURL,
		os.Stdout,
	)
}

// RunSendEmailWithDependencies runs the send-email command with injected dependencies (for testing)
func RunSendEmailWithDependencies(
	ctx context.Context,
	sender notification.EmailSender,
	projectName string,
	senderName string,
	recipients []notification.Recipient,
	ccRecipients []notification.Recipient,
	sessionDate time.Time,
	presetName string,
	renderURL string,
	featuresURL string,
	output io.Writer,
) error {
	service := appnotif.NewService(sender, projectName, senderName)

	// Display what we're about to send
	toNames := make([]string, len(recipients))
	for i, r := range recipients {
		toNames[i] = fmt.Sprintf("%s <%s>", r.Name, r.Address)
	}
	fmt.Fprintf(output, "Sending email to: %s\n", strings.Join(toNames, ", "))

	if len(ccRecipients) > 0 {
		ccNames := make([]string, len(ccRecipients))
		for i, r := range ccRecipients {
			ccNames[i] = fmt.Sprintf("%s <%s>", r.Name, r.Address)
		}
		fmt.Fprintf(output, "CC: %s\n", strings.Join(ccNames, ", "))
	}

	fmt.Fprintf(output, "Session: %s, preset %s\n", sessionDate.Format("01/02/2006"), presetName)
	fmt.Fprintf(output, "Render URL: %s\n", renderURL)
	if featuresURL != "" {
		fmt.Fprintf(output, "Features URL: %s\n", featuresURL)
	}
	fmt.Fprintln(output)

	fmt.Fprintf(output, "Sending email...\n")
	err := service.Send(appnotif.SendRequest{
		To:          recipients,
		CC:          ccRecipients,
		SessionDate: sessionDate,
		PresetName:  presetName,
		RenderURL:   renderURL,
		FeaturesURL: featuresURL,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	fmt.Fprintf(output, "Email sent successfully!\n")
	return nil
}
