package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	appexp "panson/application/export"
	"panson/application/session"
	"panson/domain/distribution"
	"panson/domain/feature"
	"panson/domain/notification"
	"panson/infrastructure/config"
	"panson/infrastructure/drive"
	"panson/infrastructure/featurecsv"
	"panson/infrastructure/filesystem"
	"panson/infrastructure/gmail"
	"panson/infrastructure/scserver"

	"github.com/spf13/cobra"
)

var (
	processVideo     string
	processPreset    string
	processTo        []string
	processCC        []string
	processDate      string
	processSenderKey string
	processRate      float64
	processSkipEmail bool
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the complete session pipeline",
	Long: `Process a session end to end:

` + processStepList() + `
Without --video the newest recording is used, and sessions whose render
is already on Drive are refused; pass --video explicitly to reprocess.

Examples:
  # Process the newest recording
  panson process --preset au-bells --to thomas

  # Process a specific video at half speed, no email
  panson process --video "2026-03-14 10-06-16.avi" --preset au-bells --rate 0.5 --skip-email`,
	RunE: runProcess,
}

func processStepList() string {
	var b strings.Builder
	for _, step := range session.GetSteps() {
		fmt.Fprintf(&b, "  %d. %s\n", step.Number, step.Description)
	}
	return b.String()
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVar(&processVideo, "video", "", "Session video (defaults to the newest recording)")
	processCmd.Flags().StringVar(&processPreset, "preset", "", "Sonification preset config key (required)")
	processCmd.Flags().StringArrayVar(&processTo, "to", nil, "Recipient(s) by name or config key (can be repeated or comma-separated)")
	processCmd.Flags().StringArrayVar(&processCC, "cc", nil, "Extra CC recipient(s) by name or config key")
	processCmd.Flags().StringVar(&processDate, "date", "", "Override the session date (YYYY-MM-DD)")
	processCmd.Flags().StringVar(&processSenderKey, "sender", "", "Sender config key (defaults to config default_sender)")
	processCmd.Flags().Float64Var(&processRate, "rate", 1, "Playback rate of the rendering")
	processCmd.Flags().BoolVar(&processSkipEmail, "skip-email", false, "Upload only, send no notification")

	processCmd.MarkFlagRequired("preset")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("config file not found. Run 'panson setup' first")
	}

	if !processSkipEmail && len(processTo) == 0 {
		return fmt.Errorf("--to is required unless --skip-email is set")
	}

	ctx := cmd.Context()

	driveClient, err := drive.NewClientWithOAuth(ctx,
		cfg.Google.CredentialsFile, cfg.Google.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to create Drive client: %w", err)
	}

	var emailSender notification.EmailSender
	if !processSkipEmail {
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
		emailSender = gmailClient
	}

	input := session.Input{
		VideoPath:     processVideo,
		PresetKey:     processPreset,
		RecipientKeys: processTo,
		CCKeys:        processCC,
		DateOverride:  processDate,
		SenderKey:     processSenderKey,
		Rate:          processRate,
		SkipEmail:     processSkipEmail,
	}

	return RunProcessWithDependencies(ctx, cfg, driveClient, emailSender, input, os.Stdout)
}

// RunProcessWithDependencies runs the process command with injected Google
// clients (for testing)
func RunProcessWithDependencies(
	ctx context.Context,
	cfg *config.Config,
	driveClient distribution.DriveClient,
	emailSender notification.EmailSender,
	input session.Input,
	output io.Writer,
) error {
	extractService := newExtractionService(cfg)
	exportService := appexp.NewService(scserver.NewScoreWriter(),
		scserver.NewRenderer(scserver.WithScsynthPath(cfg.SoundServer.ScsynthPath)))

	loadRecording := func(path string) (*feature.Recording, error) {
		return featurecsv.LoadRecording(path, 0, "")
	}

	finder := filesystem.NewFinder()
	service := session.NewService(
		extractService,
		exportService,
		loadRecording,
		filesystem.NewChecker(),
		finder,
		finder,
		driveClient,
		emailSender,
		cfg,
		output,
	)

	_, err := service.Process(ctx, input)
	return err
}

// Ensure the production client satisfies the domain port
var _ distribution.DriveClient = (*drive.Client)(nil)
