package extraction

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FeatureSet selects which feature groups the extractor computes
type FeatureSet struct {
	Pose        bool
	Gaze        bool
	ActionUnits bool
}

// AllFeatures selects every supported feature group
func AllFeatures() FeatureSet {
	return FeatureSet{Pose: true, Gaze: true, ActionUnits: true}
}

// Empty returns true if no feature group is selected
func (fs FeatureSet) Empty() bool {
	return !fs.Pose && !fs.Gaze && !fs.ActionUnits
}

// Flags returns the extractor command-line flags for the selection
func (fs FeatureSet) Flags() []string {
	var flags []string
	if fs.Pose {
		flags = append(flags, "-pose")
	}
	if fs.Gaze {
		flags = append(flags, "-gaze")
	}
	if fs.ActionUnits {
		flags = append(flags, "-aus")
	}
	return flags
}

// String renders the selection for log and CLI output
func (fs FeatureSet) String() string {
	var names []string
	if fs.Pose {
		names = append(names, "pose")
	}
	if fs.Gaze {
		names = append(names, "gaze")
	}
	if fs.ActionUnits {
		names = append(names, "action units")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}

// BatchRequest asks for feature extraction over a recorded video file
type BatchRequest struct {
	VideoPath string
	OutputDir string
}

// Validate checks that the batch request is usable
func (r *BatchRequest) Validate() error {
	if r.VideoPath == "" {
		return fmt.Errorf("video path is required")
	}
	if r.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// OutputCSV returns the feature file the extractor writes for the video:
// <out_dir>/<video base name>.csv
func (r *BatchRequest) OutputCSV() string {
	base := filepath.Base(r.VideoPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(r.OutputDir, name+".csv")
}

// RealtimeRequest asks for live feature extraction from a camera device
type RealtimeRequest struct {
	Device    int
	Features  FeatureSet
	OutputCSV string
}

// Validate checks that the realtime request is usable
func (r *RealtimeRequest) Validate() error {
	if r.Device < 0 {
		return fmt.Errorf("camera device index must be >= 0")
	}
	if r.Features.Empty() {
		return fmt.Errorf("at least one feature group (pose, gaze, action units) is required")
	}
	if r.OutputCSV == "" {
		return fmt.Errorf("output CSV path is required")
	}
	return nil
}
