package distribution

// CleanupResult records the renders removed to make room for an upload
type CleanupResult struct {
	DeletedFiles []DeletedFile
	FreedBytes   int64
}

// DeletedFile is a render removed from the Drive folder
type DeletedFile struct {
	Name string
	Size int64
}
