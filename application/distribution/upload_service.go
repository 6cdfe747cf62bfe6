// Package distribution uploads render artifacts to Google Drive and
// keeps the render folder within its storage quota.
package distribution

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"panson/domain/distribution"
)

// UploadService handles render and feature file uploads to Google Drive
type UploadService struct {
	driveClient distribution.DriveClient
	cleanup     *CleanupService
	folderID    string
	output      io.Writer
}

// NewUploadService creates a new upload service. When cleanup is non-nil
// the oldest renders are deleted to make room before each upload.
func NewUploadService(client distribution.DriveClient, cleanup *CleanupService, folderID string, output io.Writer) *UploadService {
	if output == nil {
		output = io.Discard
	}
	return &UploadService{
		driveClient: client,
		cleanup:     cleanup,
		folderID:    folderID,
		output:      output,
	}
}

// DistributionResult contains URLs for the uploaded render and features
type DistributionResult struct {
	RenderURL    string
	RenderID     string
	RenderSize   int64
	FeaturesURL  string
	FeaturesID   string
	FeaturesSize int64
}

// UploadRender uploads a rendered sound file and sets public sharing
func (s *UploadService) UploadRender(ctx context.Context, renderPath string) (*distribution.UploadResult, error) {
	mimeType := distribution.MimeTypeAIFF
	if filepath.Ext(renderPath) == ".wav" {
		mimeType = distribution.MimeTypeWAV
	}
	return s.uploadAndShare(ctx, renderPath, mimeType)
}

// UploadFeatures uploads a feature CSV and sets public sharing
func (s *UploadService) UploadFeatures(ctx context.Context, csvPath string) (*distribution.UploadResult, error) {
	return s.uploadAndShare(ctx, csvPath, distribution.MimeTypeCSV)
}

// uploadAndShare uploads a file and sets public sharing permissions
func (s *UploadService) uploadAndShare(ctx context.Context, filePath, mimeType string) (*distribution.UploadResult, error) {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	} else if err != nil {
		return nil, err
	}

	if s.cleanup != nil {
		cleaned, err := s.cleanup.EnsureSpaceAvailable(ctx, info.Size())
		if err != nil {
			return nil, fmt.Errorf("failed to make room for upload: %w", err)
		}
		for _, f := range cleaned.DeletedFiles {
			fmt.Fprintf(s.output, "      Deleted old render %s (%.1f MB)\n", f.Name, float64(f.Size)/1024/1024)
		}
	}

	fileName := filepath.Base(filePath)

	// Check for existing file with same name and delete if found
	existing, err := s.driveClient.FindFileByName(ctx, s.folderID, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing file: %w", err)
	}
	if existing != nil {
		fmt.Fprintf(s.output, "      Replacing existing %s (%.1f MB)\n", existing.Name, float64(existing.Size)/1024/1024)
		if err := s.driveClient.DeletePermanently(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to delete existing file %s: %w", existing.Name, err)
		}
	}

	req := distribution.UploadRequest{
		LocalPath: filePath,
		FileName:  fileName,
		FolderID:  s.folderID,
		MimeType:  mimeType,
	}

	result, err := s.driveClient.UploadAndShare(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload and share %s: %w", fileName, err)
	}

	return result, nil
}

// Distribute uploads the render and its feature CSV with sharing.
// The feature CSV is optional.
func (s *UploadService) Distribute(ctx context.Context, renderPath, featuresPath string) (*DistributionResult, error) {
	renderResult, err := s.UploadRender(ctx, renderPath)
	if err != nil {
		return nil, fmt.Errorf("render upload failed: %w", err)
	}

	result := &DistributionResult{
		RenderURL:  renderResult.ShareableURL,
		RenderID:   renderResult.FileID,
		RenderSize: renderResult.Size,
	}

	if featuresPath != "" {
		featuresResult, err := s.UploadFeatures(ctx, featuresPath)
		if err != nil {
			return nil, fmt.Errorf("features upload failed: %w", err)
		}
		result.FeaturesURL = featuresResult.ShareableURL
		result.FeaturesID = featuresResult.FileID
		result.FeaturesSize = featuresResult.Size
	}

	return result, nil
}
