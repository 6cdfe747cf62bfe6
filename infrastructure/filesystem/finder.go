package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FindNewestFile returns the most recently modified file in dir whose name
// has one of the given extensions (e.g. ".avi", ".mp4"). Used to pick up
// the latest session recording without naming it explicitly.
func FindNewestFile(dir string, extensions ...string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var newest string
	var newestMod int64

	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), extensions) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if mod := info.ModTime().UnixNano(); newest == "" || mod > newestMod {
			newest = entry.Name()
			newestMod = mod
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no matching files in %s", dir)
	}
	return filepath.Join(dir, newest), nil
}

// ListFiles returns the files in dir with one of the given extensions
func ListFiles(dir string, extensions ...string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !hasExtension(entry.Name(), extensions) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// FileSize returns the size of the file in bytes
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return info.Size(), nil
}

// Finder bundles the lookup functions behind a value that satisfies the
// file finder and sizer ports of the application services
type Finder struct{}

// NewFinder creates a Finder
func NewFinder() *Finder {
	return &Finder{}
}

// FindNewestFile returns the most recently modified matching file in dir
func (f *Finder) FindNewestFile(dir string, extensions ...string) (string, error) {
	return FindNewestFile(dir, extensions...)
}

// ListFiles returns the matching files in dir
func (f *Finder) ListFiles(dir string, extensions ...string) ([]string, error) {
	return ListFiles(dir, extensions...)
}

// Size returns the file's size in bytes, or 0 if it cannot be read
func (f *Finder) Size(path string) int64 {
	size, err := FileSize(path)
	if err != nil {
		return 0
	}
	return size
}

func hasExtension(name string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}
