package distribution

import (
	"context"
	"fmt"

	"panson/domain/distribution"
)

// CleanupService handles storage cleanup operations
type CleanupService struct {
	driveClient distribution.DriveClient
	folderID    string
}

// NewCleanupService creates a new cleanup service
func NewCleanupService(client distribution.DriveClient, folderID string) *CleanupService {
	return &CleanupService{
		driveClient: client,
		folderID:    folderID,
	}
}

// EnsureSpaceAvailable deletes the oldest renders until sufficient space
// is available, then empties the trash so the space is actually freed.
// It returns the cleanup result with information about deleted files.
func (s *CleanupService) EnsureSpaceAvailable(ctx context.Context, neededBytes int64) (*distribution.CleanupResult, error) {
	result := &distribution.CleanupResult{}

	for {
		storage, err := s.driveClient.GetStorageQuota(ctx)
		if err != nil {
			return result, fmt.Errorf("failed to check storage: %w", err)
		}

		if storage.HasSpaceFor(neededBytes) {
			return result, nil
		}

		files, err := s.driveClient.ListRenderFiles(ctx, s.folderID)
		if err != nil {
			return result, fmt.Errorf("failed to list renders: %w", err)
		}

		if len(files) == 0 {
			return result, fmt.Errorf("no renders to delete, still %d bytes short of %d",
				storage.Shortfall(neededBytes), neededBytes)
		}

		oldest := files[0] // Already sorted by name (oldest first)

		if err := s.driveClient.DeletePermanently(ctx, oldest.ID); err != nil {
			return result, fmt.Errorf("failed to delete %s: %w", oldest.Name, err)
		}
		if err := s.driveClient.EmptyTrash(ctx); err != nil {
			return result, fmt.Errorf("failed to empty trash: %w", err)
		}

		result.DeletedFiles = append(result.DeletedFiles, distribution.DeletedFile{
			Name: oldest.Name,
			Size: oldest.Size,
		})
		result.FreedBytes += oldest.Size
	}
}

// ListRendersSorted lists render files sorted by filename (oldest first)
func (s *CleanupService) ListRendersSorted(ctx context.Context) ([]distribution.FileInfo, error) {
	return s.driveClient.ListRenderFiles(ctx, s.folderID)
}
