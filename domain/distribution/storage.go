package distribution

// StorageInfo is the Drive quota snapshot taken before a render upload
type StorageInfo struct {
	TotalBytes     int64
	UsedBytes      int64
	AvailableBytes int64
}

// HasSpaceFor reports whether a file of the given size fits in the
// remaining quota
func (s StorageInfo) HasSpaceFor(bytes int64) bool {
	return s.AvailableBytes >= bytes
}

// Shortfall returns how many bytes must be freed before a file of the
// given size fits, or 0 if it already fits
func (s StorageInfo) Shortfall(bytes int64) int64 {
	if s.AvailableBytes >= bytes {
		return 0
	}
	return bytes - s.AvailableBytes
}
