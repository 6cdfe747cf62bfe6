// Package capture records raw webcam video in sync with feature logging.
// The camera backend needs GoCV/OpenCV and is built with -tags=capture; the
// default build provides a stub.
package capture

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultSuffix is the container format of the recorded video
const DefaultSuffix = "avi"

// outputName builds the video file name for a take. With auto enumeration
// each take gets a numbered file so repeated recordings never collide.
func outputName(prefix string, counter int, autoEnum bool) string {
	if autoEnum {
		return fmt.Sprintf("%s-%03d.%s", prefix, counter, DefaultSuffix)
	}
	return fmt.Sprintf("%s.%s", prefix, DefaultSuffix)
}

// frameTimesName is the CSV written alongside a video with one
// (frame number, timestamp) row per captured frame
func frameTimesName(videoName string) string {
	return videoName + ".csv"
}

// nextCounter returns the first take number after the numbered videos
// already on disk for the prefix, so a new process never reuses a name
func nextCounter(prefix string) int {
	matches, err := filepath.Glob(prefix + "-*." + DefaultSuffix)
	if err != nil {
		return 0
	}

	next := 0
	for _, m := range matches {
		num := strings.TrimSuffix(strings.TrimPrefix(m, prefix+"-"), "."+DefaultSuffix)
		n, err := strconv.Atoi(num)
		if err == nil && n+1 > next {
			next = n + 1
		}
	}
	return next
}
