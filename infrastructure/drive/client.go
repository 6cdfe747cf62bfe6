package drive

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"panson/domain/distribution"
)

// DriveService defines the interface for Google Drive API operations
// This allows mocking the Google Drive API in tests
type DriveService interface {
	ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error)
	GetQuota(ctx context.Context) (*drive.AboutStorageQuota, error)
	UploadFile(ctx context.Context, meta *drive.File, content io.Reader) (*drive.File, error)
	ShareAnyoneReader(ctx context.Context, fileID string) error
	Delete(ctx context.Context, fileID string) error
	EmptyTrash(ctx context.Context) error
}

// GoogleDriveService is the production implementation using the Google Drive API
type GoogleDriveService struct {
	service *drive.Service
}

// ListFiles lists files matching the query
func (s *GoogleDriveService) ListFiles(ctx context.Context, query string, fields string, orderBy string) ([]*drive.File, error) {
	r, err := s.service.Files.List().
		Q(query).
		Fields(googleapi.Field("files(" + fields + ")")).
		OrderBy(orderBy).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return r.Files, nil
}

// GetQuota returns the account's storage quota
func (s *GoogleDriveService) GetQuota(ctx context.Context) (*drive.AboutStorageQuota, error) {
	about, err := s.service.About.Get().Fields("storageQuota").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return about.StorageQuota, nil
}

// UploadFile creates a file with the given metadata and content
func (s *GoogleDriveService) UploadFile(ctx context.Context, meta *drive.File, content io.Reader) (*drive.File, error) {
	return s.service.Files.Create(meta).
		Media(content).
		Fields("id, name, size, webViewLink").
		Context(ctx).
		Do()
}

// ShareAnyoneReader makes the file readable by anyone with the link
func (s *GoogleDriveService) ShareAnyoneReader(ctx context.Context, fileID string) error {
	_, err := s.service.Permissions.Create(fileID, &drive.Permission{
		Type: "anyone",
		Role: "reader",
	}).Context(ctx).Do()
	return err
}

// Delete removes a file permanently, bypassing the trash
func (s *GoogleDriveService) Delete(ctx context.Context, fileID string) error {
	return s.service.Files.Delete(fileID).Context(ctx).Do()
}

// EmptyTrash permanently removes all trashed files
func (s *GoogleDriveService) EmptyTrash(ctx context.Context) error {
	return s.service.Files.EmptyTrash().Context(ctx).Do()
}

// Client implements distribution.DriveClient using the Google Drive API
type Client struct {
	driveService DriveService
}

// ClientOption is a functional option for configuring Client
type ClientOption func(*Client)

// WithDriveService sets a custom drive service (for testing)
func WithDriveService(svc DriveService) ClientOption {
	return func(c *Client) {
		c.driveService = svc
	}
}

// ListFiles implements distribution.DriveClient
func (c *Client) ListFiles(ctx context.Context, folderID string) ([]distribution.FileInfo, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	files, err := c.driveService.ListFiles(ctx, query, "id, name, mimeType, size, createdTime", "name")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return toFileInfos(files), nil
}

// ListRenderFiles implements distribution.DriveClient. Render files carry
// audio MIME types and sort oldest first by name, because render names
// start with the session date.
func (c *Client) ListRenderFiles(ctx context.Context, folderID string) ([]distribution.FileInfo, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false and mimeType contains 'audio/'", folderID)
	files, err := c.driveService.ListFiles(ctx, query, "id, name, mimeType, size, createdTime", "name")
	if err != nil {
		return nil, fmt.Errorf("failed to list render files: %w", err)
	}
	return toFileInfos(files), nil
}

// FindFileByName implements distribution.DriveClient
func (c *Client) FindFileByName(ctx context.Context, folderID, name string) (*distribution.FileInfo, error) {
	escaped := strings.ReplaceAll(name, "'", `\'`)
	query := fmt.Sprintf("'%s' in parents and trashed = false and name = '%s'", folderID, escaped)
	files, err := c.driveService.ListFiles(ctx, query, "id, name, mimeType, size, createdTime", "name")
	if err != nil {
		return nil, fmt.Errorf("failed to search for %s: %w", name, err)
	}
	if len(files) == 0 {
		return nil, nil
	}
	info := toFileInfos(files)[0]
	return &info, nil
}

// GetStorageQuota implements distribution.DriveClient
func (c *Client) GetStorageQuota(ctx context.Context) (*distribution.StorageInfo, error) {
	quota, err := c.driveService.GetQuota(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage quota: %w", err)
	}

	info := &distribution.StorageInfo{
		TotalBytes: quota.Limit,
		UsedBytes:  quota.Usage,
	}
	if quota.Limit == 0 {
		// Accounts without a quota report limit 0
		info.AvailableBytes = math.MaxInt64
	} else {
		info.AvailableBytes = quota.Limit - quota.Usage
	}
	return info, nil
}

// UploadAndShare implements distribution.DriveClient
func (c *Client) UploadAndShare(ctx context.Context, req distribution.UploadRequest) (*distribution.UploadResult, error) {
	f, err := os.Open(req.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", req.LocalPath, err)
	}
	defer f.Close()

	meta := &drive.File{
		Name:     req.FileName,
		Parents:  []string{req.FolderID},
		MimeType: req.MimeType,
	}

	uploaded, err := c.driveService.UploadFile(ctx, meta, f)
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", req.FileName, err)
	}

	if err := c.driveService.ShareAnyoneReader(ctx, uploaded.Id); err != nil {
		return nil, fmt.Errorf("failed to share %s: %w", req.FileName, err)
	}

	url := uploaded.WebViewLink
	if url == "" {
		url = fmt.Sprintf("https://drive.google.com/file/d/%s/view", uploaded.Id)
	}

	return &distribution.UploadResult{
		FileID:       uploaded.Id,
		FileName:     uploaded.Name,
		ShareableURL: url,
		Size:         uploaded.Size,
	}, nil
}

// DeletePermanently implements distribution.DriveClient
func (c *Client) DeletePermanently(ctx context.Context, fileID string) error {
	if err := c.driveService.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file %s: %w", fileID, err)
	}
	return nil
}

// EmptyTrash implements distribution.DriveClient
func (c *Client) EmptyTrash(ctx context.Context) error {
	if err := c.driveService.EmptyTrash(ctx); err != nil {
		return fmt.Errorf("failed to empty trash: %w", err)
	}
	return nil
}

func toFileInfos(files []*drive.File) []distribution.FileInfo {
	result := make([]distribution.FileInfo, 0, len(files))
	for _, f := range files {
		result = append(result, distribution.FileInfo{
			ID:          f.Id,
			Name:        f.Name,
			MimeType:    f.MimeType,
			Size:        f.Size,
			CreatedTime: parseTime(f.CreatedTime),
		})
	}
	return result
}

// parseTime parses a Google Drive timestamp string
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Ensure Client implements distribution.DriveClient
var _ distribution.DriveClient = (*Client)(nil)
