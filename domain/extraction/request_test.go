package extraction

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestFeatureSetFlags(t *testing.T) {
	tests := []struct {
		name string
		fs   FeatureSet
		want []string
	}{
		{name: "all", fs: AllFeatures(), want: []string{"-pose", "-gaze", "-aus"}},
		{name: "pose only", fs: FeatureSet{Pose: true}, want: []string{"-pose"}},
		{name: "gaze and aus", fs: FeatureSet{Gaze: true, ActionUnits: true}, want: []string{"-gaze", "-aus"}},
		{name: "none", fs: FeatureSet{}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fs.Flags(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Flags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFeatureSetString(t *testing.T) {
	if got := AllFeatures().String(); got != "pose, gaze, action units" {
		t.Errorf("String() = %q", got)
	}
	if got := (FeatureSet{}).String(); got != "none" {
		t.Errorf("String() = %q, want none", got)
	}
}

func TestBatchRequestValidate(t *testing.T) {
	valid := BatchRequest{VideoPath: "session.avi", OutputDir: "processed"}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := (&BatchRequest{OutputDir: "processed"}).Validate(); err == nil {
		t.Error("expected error for missing video path")
	}
	if err := (&BatchRequest{VideoPath: "session.avi"}).Validate(); err == nil {
		t.Error("expected error for missing output directory")
	}
}

func TestBatchRequestOutputCSV(t *testing.T) {
	req := BatchRequest{VideoPath: "/data/recordings/session-001.avi", OutputDir: "/data/processed"}
	want := filepath.Join("/data/processed", "session-001.csv")
	if got := req.OutputCSV(); got != want {
		t.Errorf("OutputCSV() = %q, want %q", got, want)
	}
}

func TestRealtimeRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     RealtimeRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  RealtimeRequest{Device: 0, Features: AllFeatures(), OutputCSV: "live.csv"},
		},
		{
			name:    "negative device",
			req:     RealtimeRequest{Device: -1, Features: AllFeatures(), OutputCSV: "live.csv"},
			wantErr: true,
		},
		{
			name:    "no feature groups",
			req:     RealtimeRequest{Device: 0, OutputCSV: "live.csv"},
			wantErr: true,
		},
		{
			name:    "missing output csv",
			req:     RealtimeRequest{Device: 0, Features: AllFeatures()},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
