// Package session orchestrates the end-to-end pipeline: extract features
// from a session video, render the sonification, upload the artifacts and
// notify the recipients.
package session

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	appdist "panson/application/distribution"
	appext "panson/application/extraction"
	appexp "panson/application/export"
	appnotif "panson/application/notification"
	"panson/domain/distribution"
	"panson/domain/extraction"
	"panson/domain/feature"
	"panson/domain/notification"
	"panson/domain/render"
	"panson/infrastructure/config"
	"panson/pkg/log"
)

// FileFinder abstracts file system operations for finding files
type FileFinder interface {
	FindNewestFile(dir string, extensions ...string) (string, error)
	ListFiles(dir string, extensions ...string) ([]string, error)
}

// FileSizer provides file size information
type FileSizer interface {
	Size(path string) int64
}

// RecordingLoader reads a feature CSV into a recording
type RecordingLoader func(path string) (*feature.Recording, error)

// Service orchestrates the complete processing workflow
type Service struct {
	extractService *appext.Service
	exportService  *appexp.Service
	loadRecording  RecordingLoader
	fileChecker    extraction.FileChecker
	fileSizer      FileSizer
	fileFinder     FileFinder
	driveClient    distribution.DriveClient
	emailSender    notification.EmailSender
	cfg            *config.Config
	output         io.Writer
}

// NewService creates a new session service
func NewService(
	extractService *appext.Service,
	exportService *appexp.Service,
	loadRecording RecordingLoader,
	fileChecker extraction.FileChecker,
	fileSizer FileSizer,
	fileFinder FileFinder,
	driveClient distribution.DriveClient,
	emailSender notification.EmailSender,
	cfg *config.Config,
	output io.Writer,
) *Service {
	if output == nil {
		output = io.Discard
	}
	return &Service{
		extractService: extractService,
		exportService:  exportService,
		loadRecording:  loadRecording,
		fileChecker:    fileChecker,
		fileSizer:      fileSizer,
		fileFinder:     fileFinder,
		driveClient:    driveClient,
		emailSender:    emailSender,
		cfg:            cfg,
		output:         output,
	}
}

// Input contains all input parameters for the process command
type Input struct {
	VideoPath     string   // Session video path (optional, newest recording if empty)
	PresetKey     string   // Sonification preset config key
	RecipientKeys []string // Recipient config keys
	CCKeys        []string // CC config keys (optional)
	DateOverride  string   // Override session date (YYYY-MM-DD)
	SenderKey     string   // Sender config key (optional, uses default if empty)
	Rate          float64  // Render playback rate (optional, defaults to 1)
	SkipEmail     bool     // Upload only, send no notification
}

// Result contains the results of a successful process run
type Result struct {
	FeaturesPath string
	RenderPath   string
	RenderURL    string
	FeaturesURL  string
	SessionDate  time.Time
}

// ValidationError contains details about a validation failure with suggestions
type ValidationError struct {
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s\n\nTo fix this, run:\n  %s", e.Message, e.Suggestion)
	}
	return e.Message
}

// Process runs the complete end-to-end workflow
func (s *Service) Process(ctx context.Context, input Input) (*Result, error) {
	processStart := time.Now()
	runID := uuid.NewString()[:8]

	// Step 0: Validate all inputs before starting
	v, err := s.validateInputs(ctx, input)
	if err != nil {
		return nil, err
	}

	log.Logger().WithFields(log.Fields{
		"run":    runID,
		"video":  v.videoPath,
		"preset": input.PresetKey,
	}).Info("Processing session")

	fmt.Fprintf(s.output, "Using recording: %s\n", filepath.Base(v.videoPath))
	fmt.Fprintf(s.output, "Session date: %s\n", v.sessionDate.Format("2006-01-02"))
	fmt.Fprintf(s.output, "Preset: %s\n", input.PresetKey)
	if input.SkipEmail {
		fmt.Fprintf(s.output, "Mode: No notification (--skip-email)\n")
	}
	fmt.Fprintln(s.output)

	steps := 5
	if input.SkipEmail {
		steps = 4
	}

	// Step 1: Extract features
	s.printStep(1, steps)
	featuresPath, err := s.extractService.ExtractBatch(ctx, &extraction.BatchRequest{
		VideoPath: v.videoPath,
		OutputDir: s.cfg.Paths.FeaturesDirectory(),
	})
	if err != nil {
		s.showRecoveryCommands(1, input, v)
		return nil, fmt.Errorf("feature extraction failed: %w", err)
	}
	fmt.Fprintf(s.output, "      Created: %s\n\n", featuresPath)

	// Step 2: Render sonification
	s.printStep(2, steps)
	renderPath, err := s.render(ctx, featuresPath, v)
	if err != nil {
		s.showRecoveryCommands(2, input, v)
		return nil, fmt.Errorf("render failed: %w", err)
	}
	fmt.Fprintf(s.output, "      Created: %s\n\n", renderPath)

	// Step 3: Ensure Drive storage
	s.printStep(3, steps)
	neededSpace := s.fileSizer.Size(renderPath) + s.fileSizer.Size(featuresPath)
	cleanupResult, err := s.ensureStorage(ctx, neededSpace)
	if err != nil {
		s.showRecoveryCommands(3, input, v)
		return nil, fmt.Errorf("storage check failed: %w", err)
	}
	for _, df := range cleanupResult.DeletedFiles {
		fmt.Fprintf(s.output, "      Removed: %s (%.1f MB)\n", df.Name, float64(df.Size)/1024/1024)
	}
	if len(cleanupResult.DeletedFiles) == 0 {
		fmt.Fprintf(s.output, "      Storage OK\n")
	}
	fmt.Fprintln(s.output)

	// Step 4: Upload render and features
	s.printStep(4, steps)
	uploadService := appdist.NewUploadService(s.driveClient, nil, s.cfg.Google.RendersFolderID, s.output)
	distResult, err := uploadService.Distribute(ctx, renderPath, featuresPath)
	if err != nil {
		s.showRecoveryCommands(4, input, v)
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	fmt.Fprintf(s.output, "      Render link: %s\n", distResult.RenderURL)
	fmt.Fprintf(s.output, "      Features link: %s\n\n", distResult.FeaturesURL)

	result := &Result{
		FeaturesPath: featuresPath,
		RenderPath:   renderPath,
		RenderURL:    distResult.RenderURL,
		FeaturesURL:  distResult.FeaturesURL,
		SessionDate:  v.sessionDate,
	}

	// Step 5: Send email
	if !input.SkipEmail {
		s.printStep(5, steps)
		notifService := appnotif.NewService(s.emailSender, s.cfg.Email.ProjectName, v.senderName)
		err = notifService.Send(appnotif.SendRequest{
			To:          v.recipients,
			CC:          v.ccRecipients,
			SessionDate: v.sessionDate,
			PresetName:  input.PresetKey,
			RenderURL:   distResult.RenderURL,
			FeaturesURL: distResult.FeaturesURL,
		})
		if err != nil {
			s.showRecoveryCommands(5, input, v)
			return nil, fmt.Errorf("email failed: %w", err)
		}
		for _, r := range v.recipients {
			fmt.Fprintf(s.output, "      Sent to: %s <%s>\n", r.Name, r.Address)
		}
		fmt.Fprintln(s.output)
	}

	elapsed := time.Since(processStart)
	fmt.Fprintf(s.output, "Done! Completed in %s\n", formatDuration(elapsed))

	log.Logger().WithFields(log.Fields{
		"run":     runID,
		"render":  renderPath,
		"elapsed": elapsed.Round(time.Second).String(),
	}).Info("Session processed")

	return result, nil
}

// validated holds the resolved inputs of a process run
type validated struct {
	videoPath    string
	sessionDate  time.Time
	preset       config.Preset
	recipients   []notification.Recipient
	ccRecipients []notification.Recipient
	senderName   string
	rate         float64
}

func (s *Service) validateInputs(ctx context.Context, input Input) (*validated, error) {
	v := &validated{rate: input.Rate}
	if v.rate == 0 {
		v.rate = 1
	}
	if v.rate < 0 {
		return nil, fmt.Errorf("rate must be positive")
	}

	// Resolve the session video
	v.videoPath = input.VideoPath
	if v.videoPath == "" {
		newest, err := s.fileFinder.FindNewestFile(s.cfg.Paths.RecordingsDirectory(), ".avi", ".mp4")
		if err != nil {
			return nil, fmt.Errorf("no recording given and none found: %w", err)
		}
		v.videoPath = newest
	} else if !filepath.IsAbs(v.videoPath) {
		v.videoPath = filepath.Join(s.cfg.Paths.RecordingsDirectory(), v.videoPath)
	}

	if !s.fileChecker.Exists(v.videoPath) {
		return nil, fmt.Errorf("recording does not exist: %s", v.videoPath)
	}

	// Determine the session date
	if input.DateOverride != "" {
		date, err := time.Parse("2006-01-02", input.DateOverride)
		if err != nil {
			return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
		}
		v.sessionDate = date
	} else {
		date, err := inferDateFromFilename(filepath.Base(v.videoPath))
		if err != nil {
			return nil, fmt.Errorf("cannot infer date from filename %q. Use --date to specify: %w",
				filepath.Base(v.videoPath), err)
		}
		v.sessionDate = date
	}

	mgr := config.NewConfigManager(s.cfg, "")

	// Lookup preset
	preset, err := mgr.GetPreset(input.PresetKey)
	if err != nil {
		return nil, &ValidationError{
			Message:    fmt.Sprintf("preset '%s' not found in config", input.PresetKey),
			Suggestion: config.SuggestAddPresetCommand(input.PresetKey),
		}
	}
	v.preset = preset

	// In auto-detect mode, refuse to process a session whose render is
	// already on Drive. An explicit --video bypasses the check.
	if input.VideoPath == "" {
		renderName := fmt.Sprintf("%s-%s.%s", v.sessionDate.Format("2006-01-02"), preset.Key,
			renderExtension(s.cfg.Render.HeaderFormat))
		existing, findErr := s.driveClient.FindFileByName(ctx, s.cfg.Google.RendersFolderID, renderName)
		if findErr != nil {
			return nil, fmt.Errorf("failed to check Drive for existing render: %w", findErr)
		}
		if existing != nil {
			return nil, fmt.Errorf("session %s has already been processed with preset %s (%s on Drive); pass --video to reprocess",
				v.sessionDate.Format("2006-01-02"), preset.Key, existing.Name)
		}
	}

	if input.SkipEmail {
		return v, nil
	}

	// Lookup recipients
	lookup := config.NewRecipientLookup(s.cfg)
	v.recipients, err = lookup.LookupRecipients(input.RecipientKeys)
	if err != nil {
		key := "recipients"
		if len(input.RecipientKeys) == 1 {
			key = input.RecipientKeys[0]
		}
		return nil, &ValidationError{
			Message:    fmt.Sprintf("recipient '%s' not found in config", key),
			Suggestion: config.SuggestAddRecipientCommand(key),
		}
	}

	// Default CC recipients plus any extra CC keys
	v.ccRecipients = lookup.GetDefaultCC()
	for _, ccKey := range input.CCKeys {
		ccMatches, ccErr := lookup.LookupRecipient(ccKey)
		if ccErr != nil {
			return nil, &ValidationError{
				Message:    fmt.Sprintf("cc recipient '%s' not found in config", ccKey),
				Suggestion: config.SuggestAddCCCommand(ccKey),
			}
		}
		v.ccRecipients = append(v.ccRecipients, ccMatches...)
	}

	// Lookup sender
	if input.SenderKey != "" {
		sender, senderErr := mgr.GetSender(input.SenderKey)
		if senderErr != nil {
			return nil, &ValidationError{
				Message:    fmt.Sprintf("sender '%s' not found in config", input.SenderKey),
				Suggestion: config.SuggestAddSenderCommand(input.SenderKey),
			}
		}
		v.senderName = sender.Name
	} else {
		sender, senderErr := mgr.GetDefaultSender()
		if senderErr != nil {
			return nil, &ValidationError{
				Message:    "no default sender configured",
				Suggestion: "Set senders.default_sender in config or use --sender flag",
			}
		}
		v.senderName = sender.Name
	}

	return v, nil
}

// render loads the extracted features and renders them with the preset
func (s *Service) render(ctx context.Context, featuresPath string, v *validated) (string, error) {
	rec, err := s.loadRecording(featuresPath)
	if err != nil {
		return "", fmt.Errorf("failed to load features: %w", err)
	}

	son, err := v.preset.Sonification()
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("%s-%s", v.sessionDate.Format("2006-01-02"), v.preset.Key)
	req := render.NewRequest(filepath.Join(s.cfg.Paths.RendersDirectory, name))
	req.Rate = v.rate
	if s.cfg.Render.SampleRate > 0 {
		req.SampleRate = s.cfg.Render.SampleRate
	}
	if s.cfg.Render.HeaderFormat != "" {
		req.HeaderFormat = s.cfg.Render.HeaderFormat
	}
	if s.cfg.Render.SampleFormat != "" {
		req.SampleFormat = s.cfg.Render.SampleFormat
	}
	if s.cfg.Render.EndDelay > 0 {
		req.EndDelay = s.cfg.Render.EndDelay
	}

	return s.exportService.Export(ctx, rec, son, req)
}

func (s *Service) ensureStorage(ctx context.Context, neededBytes int64) (*distribution.CleanupResult, error) {
	cleanupService := appdist.NewCleanupService(s.driveClient, s.cfg.Google.RendersFolderID)
	return cleanupService.EnsureSpaceAvailable(ctx, neededBytes)
}

func (s *Service) showRecoveryCommands(failedStep int, input Input, v *validated) {
	fmt.Fprintln(s.output)
	fmt.Fprintln(s.output, "To complete manually:")

	dateStr := v.sessionDate.Format("2006-01-02")
	base := filepath.Base(v.videoPath)
	featuresPath := filepath.Join(s.cfg.Paths.FeaturesDirectory(),
		strings.TrimSuffix(base, filepath.Ext(base))+".csv")
	renderPath := filepath.Join(s.cfg.Paths.RendersDirectory, dateStr+"-"+input.PresetKey)

	step := 1
	if failedStep <= 1 {
		fmt.Fprintf(s.output, "  %d. Extract:  panson extract --video %q\n", step, v.videoPath)
		step++
	}
	if failedStep <= 2 {
		fmt.Fprintf(s.output, "  %d. Export:   panson export --features %q --preset %s --output %q\n",
			step, featuresPath, input.PresetKey, renderPath)
		step++
	}
	if failedStep <= 3 {
		fmt.Fprintf(s.output, "  %d. Auth:     panson auth\n", step)
		step++
	}
	if failedStep <= 4 {
		fmt.Fprintf(s.output, "  %d. Upload:   panson upload --render %q --features %q\n",
			step, renderPath, featuresPath)
		step++
	}
	if failedStep <= 5 && !input.SkipEmail {
		recipientArgs := ""
		for _, r := range input.RecipientKeys {
			recipientArgs += fmt.Sprintf(" --to %s", r)
		}
		fmt.Fprintf(s.output, "  %d. Email:    panson send-email%s --date %s --preset %s --render-url <URL>\n",
			step, recipientArgs, dateStr, input.PresetKey)
	}
	fmt.Fprintln(s.output)
}

// renderExtension maps a render header format to its file extension
func renderExtension(headerFormat string) string {
	if strings.EqualFold(headerFormat, "WAV") {
		return "wav"
	}
	return "aiff"
}

// inferDateFromFilename extracts the session date from recorder-style
// filenames: "2026-03-14 10-06-16.avi", "2026-03-14-002.avi" or
// "2026-03-14.mp4"
func inferDateFromFilename(filename string) (time.Time, error) {
	pattern := regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})([ -].*)?\.(avi|mp4)$`)
	if matches := pattern.FindStringSubmatch(filename); len(matches) > 1 {
		return time.Parse("2006-01-02", matches[1])
	}
	return time.Time{}, fmt.Errorf("filename does not match expected format")
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := d / time.Minute
	sec := (d % time.Minute) / time.Second
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

// StepInfo provides information about a workflow step
type StepInfo struct {
	Number      int
	Description string
}

// GetSteps returns the list of workflow steps
func GetSteps() []StepInfo {
	return []StepInfo{
		{1, "Extracting features"},
		{2, "Rendering sonification"},
		{3, "Checking Drive storage"},
		{4, "Uploading files"},
		{5, "Sending email"},
	}
}

// printStep writes the "[n/total] Description..." header for a workflow step
func (s *Service) printStep(number, total int) {
	fmt.Fprintf(s.output, "[%d/%d] %s...\n", number, total, GetSteps()[number-1].Description)
}
