package sonification

import (
	"strings"
	"testing"
)

func TestNewParameter(t *testing.T) {
	tests := []struct {
		name         string
		paramName    string
		min, max     float64
		defaultValue float64
		wantErr      string
	}{
		{name: "valid", paramName: "freq", min: 20, max: 2000, defaultValue: 440},
		{name: "default at bound", paramName: "amp", min: 0, max: 1, defaultValue: 0},
		{name: "missing name", paramName: "", min: 0, max: 1, wantErr: "name is required"},
		{name: "inverted range", paramName: "freq", min: 100, max: 100, wantErr: "must be greater"},
		{name: "default below range", paramName: "amp", min: 0, max: 1, defaultValue: -0.5, wantErr: "outside"},
		{name: "default above range", paramName: "amp", min: 0, max: 1, defaultValue: 2, wantErr: "outside"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewParameter(tt.paramName, tt.min, tt.max, tt.defaultValue)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error, got %+v", p)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParameterClamp(t *testing.T) {
	p, err := NewParameter("amp", 0, 1, 0.5)
	if err != nil {
		t.Fatalf("NewParameter: %v", err)
	}

	if got := p.Clamp(-1); got != 0 {
		t.Errorf("Clamp(-1) = %g, want 0", got)
	}
	if got := p.Clamp(2); got != 1 {
		t.Errorf("Clamp(2) = %g, want 1", got)
	}
	if got := p.Clamp(0.3); got != 0.3 {
		t.Errorf("Clamp(0.3) = %g, want 0.3", got)
	}
}

func TestMappingScale(t *testing.T) {
	tests := []struct {
		name string
		m    Mapping
		in   float64
		want float64
	}{
		{
			name: "midpoint",
			m:    Mapping{Column: "AU01_r", Control: "freq", InMin: 0, InMax: 5, OutMin: 200, OutMax: 700},
			in:   2.5,
			want: 450,
		},
		{
			name: "clamps below",
			m:    Mapping{Column: "AU01_r", Control: "freq", InMin: 0, InMax: 5, OutMin: 200, OutMax: 700},
			in:   -1,
			want: 200,
		},
		{
			name: "clamps above",
			m:    Mapping{Column: "AU01_r", Control: "freq", InMin: 0, InMax: 5, OutMin: 200, OutMax: 700},
			in:   10,
			want: 700,
		},
		{
			name: "inverted output range",
			m:    Mapping{Column: "pose_Rx", Control: "amp", InMin: 0, InMax: 1, OutMin: 1, OutMax: 0},
			in:   0.25,
			want: 0.75,
		},
		{
			name: "inverted output clamps",
			m:    Mapping{Column: "pose_Rx", Control: "amp", InMin: 0, InMax: 1, OutMin: 1, OutMax: 0},
			in:   2,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Scale(tt.in); got != tt.want {
				t.Errorf("Scale(%g) = %g, want %g", tt.in, got, tt.want)
			}
		})
	}
}

func TestMappingValidate(t *testing.T) {
	valid := Mapping{Column: "gaze_angle_x", Control: "pan", InMin: -1, InMax: 1, OutMin: -1, OutMax: 1}
	if err := valid.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	if err := (Mapping{Control: "pan", InMin: 0, InMax: 1}).Validate(); err == nil {
		t.Error("expected error for missing column")
	}
	if err := (Mapping{Column: "x", InMin: 0, InMax: 1}).Validate(); err == nil {
		t.Error("expected error for missing control")
	}
	if err := (Mapping{Column: "x", Control: "pan"}).Validate(); err == nil {
		t.Error("expected error for empty input range")
	}
}
