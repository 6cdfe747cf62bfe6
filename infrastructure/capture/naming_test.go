package capture

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOutputName(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		counter  int
		autoEnum bool
		want     string
	}{
		{name: "enumerated first take", prefix: "take", counter: 0, autoEnum: true, want: "take-000.avi"},
		{name: "enumerated later take", prefix: "session", counter: 12, autoEnum: true, want: "session-012.avi"},
		{name: "fixed name", prefix: "take", counter: 5, autoEnum: false, want: "take.avi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputName(tt.prefix, tt.counter, tt.autoEnum); got != tt.want {
				t.Errorf("outputName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNextCounterResumesAfterExistingTakes(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "2026-03-14")

	if got := nextCounter(prefix); got != 0 {
		t.Errorf("nextCounter on empty dir = %d, want 0", got)
	}

	for _, name := range []string{"2026-03-14-000.avi", "2026-03-14-003.avi", "2026-03-14-junk.avi"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	// Earlier takes from a previous run must not be reopened
	if got := nextCounter(prefix); got != 4 {
		t.Errorf("nextCounter = %d, want 4", got)
	}
	if got := outputName(prefix, nextCounter(prefix), true); got != prefix+"-004.avi" {
		t.Errorf("next take name = %q", got)
	}
}

func TestFrameTimesName(t *testing.T) {
	if got := frameTimesName("take-000.avi"); got != "take-000.avi.csv" {
		t.Errorf("frameTimesName() = %q", got)
	}
}
