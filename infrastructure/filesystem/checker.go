package filesystem

import (
	"os"

	"panson/domain/extraction"
)

// Checker implements extraction.FileChecker using the os package
type Checker struct{}

// NewChecker creates a new filesystem checker
func NewChecker() *Checker {
	return &Checker{}
}

// Exists returns true if the file exists
func (c *Checker) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Ensure Checker implements extraction.FileChecker
var _ extraction.FileChecker = (*Checker)(nil)
