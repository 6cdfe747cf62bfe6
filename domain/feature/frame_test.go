package feature

import "testing"

func mustHeader(t *testing.T, columns ...string) Header {
	t.Helper()
	h, err := NewHeader(columns)
	if err != nil {
		t.Fatalf("NewHeader: %v", err)
	}
	return h
}

func TestNewFrame(t *testing.T) {
	h := mustHeader(t, "timestamp", "pose_Rx")

	if _, err := NewFrame(h, []float64{0.1}); err == nil {
		t.Error("expected error for value count mismatch")
	}

	f, err := NewFrame(h, []float64{0.1, 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := f.Value("pose_Rx")
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if v != 0.5 {
		t.Errorf("Value(pose_Rx) = %g, want 0.5", v)
	}

	if _, err := f.Value("missing"); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestFrameSetValue(t *testing.T) {
	h := mustHeader(t, "AU01_r")
	f, _ := NewFrame(h, []float64{1})

	if err := f.SetValue("AU01_r", 3); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if v, _ := f.Value("AU01_r"); v != 3 {
		t.Errorf("value = %g after SetValue, want 3", v)
	}

	if err := f.SetValue("missing", 1); err == nil {
		t.Error("expected error for unknown column")
	}
}

func TestFrameAppend(t *testing.T) {
	h := mustHeader(t, "value")
	f, _ := NewFrame(h, []float64{2})

	stamped, err := f.Append("timestamp", 1.25)
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if v, _ := stamped.Value("timestamp"); v != 1.25 {
		t.Errorf("timestamp = %g, want 1.25", v)
	}
	if len(f.Header()) != 1 {
		t.Error("Append must not mutate the original frame")
	}

	if _, err := f.Append("value", 0); err == nil {
		t.Error("expected error when appending an existing column")
	}
}
