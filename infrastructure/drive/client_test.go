package drive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"google.golang.org/api/drive/v3"

	"panson/domain/distribution"
)

// fakeDriveService implements DriveService for tests
type fakeDriveService struct {
	listQueries []string
	listResult  []*drive.File
	quota       *drive.AboutStorageQuota
	uploaded    *drive.File
	uploadedLen int64
	shared      []string
	deleted     []string
	trashCalls  int
}

func (f *fakeDriveService) ListFiles(ctx context.Context, query, fields, orderBy string) ([]*drive.File, error) {
	f.listQueries = append(f.listQueries, query)
	return f.listResult, nil
}

func (f *fakeDriveService) GetQuota(ctx context.Context) (*drive.AboutStorageQuota, error) {
	return f.quota, nil
}

func (f *fakeDriveService) UploadFile(ctx context.Context, meta *drive.File, content io.Reader) (*drive.File, error) {
	f.uploaded = meta
	n, _ := io.Copy(io.Discard, content)
	f.uploadedLen = n
	return &drive.File{Id: "file-123", Name: meta.Name, Size: n}, nil
}

func (f *fakeDriveService) ShareAnyoneReader(ctx context.Context, fileID string) error {
	f.shared = append(f.shared, fileID)
	return nil
}

func (f *fakeDriveService) Delete(ctx context.Context, fileID string) error {
	f.deleted = append(f.deleted, fileID)
	return nil
}

func (f *fakeDriveService) EmptyTrash(ctx context.Context) error {
	f.trashCalls++
	return nil
}

func newTestClient(svc *fakeDriveService) *Client {
	return &Client{driveService: svc}
}

func TestUploadAndShare(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.aiff")
	if err := os.WriteFile(path, []byte("audio bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := &fakeDriveService{}
	c := newTestClient(svc)

	result, err := c.UploadAndShare(context.Background(), distribution.UploadRequest{
		LocalPath: path,
		FileName:  "2026-03-14-au-bells.aiff",
		FolderID:  "folder-1",
		MimeType:  distribution.MimeTypeAIFF,
	})
	if err != nil {
		t.Fatalf("UploadAndShare: %v", err)
	}

	if svc.uploaded.Name != "2026-03-14-au-bells.aiff" {
		t.Errorf("uploaded name = %q", svc.uploaded.Name)
	}
	if len(svc.uploaded.Parents) != 1 || svc.uploaded.Parents[0] != "folder-1" {
		t.Errorf("parents = %v", svc.uploaded.Parents)
	}
	if svc.uploadedLen != int64(len("audio bytes")) {
		t.Errorf("uploaded %d bytes", svc.uploadedLen)
	}
	if len(svc.shared) != 1 || svc.shared[0] != "file-123" {
		t.Errorf("shared = %v", svc.shared)
	}
	if !strings.Contains(result.ShareableURL, "file-123") {
		t.Errorf("URL = %q", result.ShareableURL)
	}
}

func TestGetStorageQuota(t *testing.T) {
	tests := []struct {
		name          string
		quota         *drive.AboutStorageQuota
		wantAvailable int64
		wantUnlimited bool
	}{
		{
			name:          "normal quota",
			quota:         &drive.AboutStorageQuota{Limit: 100, Usage: 30},
			wantAvailable: 70,
		},
		{
			name:          "no limit reported",
			quota:         &drive.AboutStorageQuota{Limit: 0, Usage: 30},
			wantUnlimited: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(&fakeDriveService{quota: tt.quota})
			info, err := c.GetStorageQuota(context.Background())
			if err != nil {
				t.Fatalf("GetStorageQuota: %v", err)
			}
			if tt.wantUnlimited {
				if !info.HasSpaceFor(1 << 40) {
					t.Error("unlimited quota should have space")
				}
				return
			}
			if info.AvailableBytes != tt.wantAvailable {
				t.Errorf("available = %d, want %d", info.AvailableBytes, tt.wantAvailable)
			}
		})
	}
}

func TestFindFileByName(t *testing.T) {
	svc := &fakeDriveService{
		listResult: []*drive.File{{Id: "f1", Name: "render.aiff"}},
	}
	c := newTestClient(svc)

	info, err := c.FindFileByName(context.Background(), "folder-1", "it's.aiff")
	if err != nil {
		t.Fatalf("FindFileByName: %v", err)
	}
	if info == nil || info.ID != "f1" {
		t.Errorf("info = %+v", info)
	}
	if !strings.Contains(svc.listQueries[0], `name = 'it\'s.aiff'`) {
		t.Errorf("query = %q, quote not escaped", svc.listQueries[0])
	}

	// No match returns nil, not an error
	empty := newTestClient(&fakeDriveService{})
	info, err = empty.FindFileByName(context.Background(), "folder-1", "missing.aiff")
	if err != nil {
		t.Fatalf("FindFileByName: %v", err)
	}
	if info != nil {
		t.Errorf("info = %+v, want nil", info)
	}
}

func TestListRenderFilesQuery(t *testing.T) {
	svc := &fakeDriveService{}
	c := newTestClient(svc)

	if _, err := c.ListRenderFiles(context.Background(), "folder-1"); err != nil {
		t.Fatalf("ListRenderFiles: %v", err)
	}

	q := svc.listQueries[0]
	if !strings.Contains(q, "'folder-1' in parents") {
		t.Errorf("query %q missing folder clause", q)
	}
	if !strings.Contains(q, "mimeType contains 'audio/'") {
		t.Errorf("query %q missing audio filter", q)
	}
}

func TestDeleteAndEmptyTrash(t *testing.T) {
	svc := &fakeDriveService{}
	c := newTestClient(svc)

	if err := c.DeletePermanently(context.Background(), "f1"); err != nil {
		t.Fatal(err)
	}
	if err := c.EmptyTrash(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(svc.deleted) != 1 || svc.deleted[0] != "f1" {
		t.Errorf("deleted = %v", svc.deleted)
	}
	if svc.trashCalls != 1 {
		t.Errorf("trashCalls = %d", svc.trashCalls)
	}
}
