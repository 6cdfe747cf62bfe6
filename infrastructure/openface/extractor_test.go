package openface

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"panson/domain/extraction"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and replays scripted results
type fakeRunner struct {
	calls      []call
	runErr     error
	outputs    map[string][]byte
	outputErrs map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.calls = append(f.calls, call{name: name, args: args})
	return f.runErr
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	key := args[0]
	if err, ok := f.outputErrs[key]; ok {
		return nil, err
	}
	return f.outputs[key], nil
}

func TestExtractBatchArgs(t *testing.T) {
	runner := &fakeRunner{}
	e := NewExtractor("/srv/panson/data", WithExtractorRunner(runner))

	req := &extraction.BatchRequest{
		VideoPath: "/srv/panson/data/sessions/rec-001.avi",
		OutputDir: "/srv/panson/data/features",
	}
	if err := e.ExtractBatch(context.Background(), req); err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}

	if len(runner.calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(runner.calls))
	}
	want := call{
		name: "docker",
		args: []string{
			"exec", "openface", DefaultBinaryPath,
			"-f", "/data/sessions/rec-001.avi",
			"-out_dir", "/data/features",
		},
	}
	if !reflect.DeepEqual(runner.calls[0], want) {
		t.Errorf("args = %v, want %v", runner.calls[0], want)
	}
}

func TestExtractRealtimeArgs(t *testing.T) {
	tests := []struct {
		name     string
		features extraction.FeatureSet
		want     []string
	}{
		{
			name:     "all features",
			features: extraction.AllFeatures(),
			want: []string{
				"exec", "openface", DefaultBinaryPath,
				"-device", "0",
				"-pose", "-gaze", "-aus",
				"-of", "/data/live.csv",
			},
		},
		{
			name:     "gaze only",
			features: extraction.FeatureSet{Gaze: true},
			want: []string{
				"exec", "openface", DefaultBinaryPath,
				"-device", "0",
				"-gaze",
				"-of", "/data/live.csv",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			e := NewExtractor("/srv/panson/data", WithExtractorRunner(runner))

			req := &extraction.RealtimeRequest{
				Device:    0,
				Features:  tt.features,
				OutputCSV: "/srv/panson/data/live.csv",
			}
			if err := e.ExtractRealtime(context.Background(), req); err != nil {
				t.Fatalf("ExtractRealtime: %v", err)
			}

			if len(runner.calls) != 1 {
				t.Fatalf("expected 1 call, got %d", len(runner.calls))
			}
			if runner.calls[0].name != "docker" {
				t.Errorf("command = %q, want docker", runner.calls[0].name)
			}
			if !reflect.DeepEqual(runner.calls[0].args, tt.want) {
				t.Errorf("args = %v, want %v", runner.calls[0].args, tt.want)
			}
		})
	}
}

func TestExtractBatchRejectsPathOutsideDataDir(t *testing.T) {
	runner := &fakeRunner{}
	e := NewExtractor("/srv/panson/data", WithExtractorRunner(runner))

	req := &extraction.BatchRequest{
		VideoPath: "/tmp/elsewhere/rec.avi",
		OutputDir: "/srv/panson/data/features",
	}
	if err := e.ExtractBatch(context.Background(), req); err == nil {
		t.Fatal("expected error for video outside the data directory")
	}
	if len(runner.calls) != 0 {
		t.Errorf("runner should not be called, got %d calls", len(runner.calls))
	}
}

func TestExtractRealtimeCancelledContextIsNotAnError(t *testing.T) {
	runner := &fakeRunner{runErr: errors.New("signal: killed")}
	e := NewExtractor("/srv/panson/data", WithExtractorRunner(runner))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &extraction.RealtimeRequest{
		Device:    1,
		Features:  extraction.AllFeatures(),
		OutputCSV: "/srv/panson/data/live.csv",
	}
	if err := e.ExtractRealtime(ctx, req); err != nil {
		t.Errorf("cancelled extraction should not report an error, got %v", err)
	}
}

func TestManagerEnsureRunning(t *testing.T) {
	tests := []struct {
		name       string
		inspectOut []byte
		inspectErr error
		wantCmds   [][]string
	}{
		{
			name:       "already running",
			inspectOut: []byte("true\n"),
			wantCmds: [][]string{
				{"inspect", "-f", "{{.State.Running}}", "openface"},
			},
		},
		{
			name:       "stopped container is started",
			inspectOut: []byte("false\n"),
			wantCmds: [][]string{
				{"inspect", "-f", "{{.State.Running}}", "openface"},
				{"start", "openface"},
			},
		},
		{
			name:       "missing container is created",
			inspectErr: errors.New("no such container"),
			wantCmds: [][]string{
				{"inspect", "-f", "{{.State.Running}}", "openface"},
				{
					"run", "-d",
					"--name", "openface",
					"--device", "/dev/video0",
					"-v", "/srv/panson/data:/data",
					DefaultImage,
					"tail", "-f", "/dev/null",
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{
				outputs:    map[string][]byte{"inspect": tt.inspectOut},
				outputErrs: map[string]error{},
			}
			if tt.inspectErr != nil {
				runner.outputErrs["inspect"] = tt.inspectErr
			}

			m := NewManager("/srv/panson/data", WithManagerRunner(runner))
			if err := m.EnsureRunning(context.Background()); err != nil {
				t.Fatalf("EnsureRunning: %v", err)
			}

			if len(runner.calls) != len(tt.wantCmds) {
				t.Fatalf("got %d calls, want %d: %v", len(runner.calls), len(tt.wantCmds), runner.calls)
			}
			for i, want := range tt.wantCmds {
				if !reflect.DeepEqual(runner.calls[i].args, want) {
					t.Errorf("call %d args = %v, want %v", i, runner.calls[i].args, want)
				}
			}
		})
	}
}

func TestManagerVerify(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager("/srv/panson/data", WithManagerRunner(runner))

	if err := m.Verify(context.Background()); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	want := []string{"exec", "openface", "test", "-x", DefaultBinaryPath}
	if !reflect.DeepEqual(runner.calls[0].args, want) {
		t.Errorf("args = %v, want %v", runner.calls[0].args, want)
	}
}

func TestEmptyOptionValuesKeepDefaults(t *testing.T) {
	// A hand-edited config may leave fields blank; blanks must not wipe
	// the built-in paths
	runner := &fakeRunner{}
	m := NewManager("/srv/panson/data",
		WithManagerRunner(runner),
		WithDockerPath(""),
		WithContainerName(""),
		WithImage(""),
		WithBinaryPath(""),
		WithCameraDevice(""),
	)
	if err := m.Verify(context.Background()); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if runner.calls[0].name != "docker" {
		t.Errorf("command = %q, want docker", runner.calls[0].name)
	}
	want := []string{"exec", "openface", "test", "-x", DefaultBinaryPath}
	if !reflect.DeepEqual(runner.calls[0].args, want) {
		t.Errorf("args = %v, want %v", runner.calls[0].args, want)
	}

	runner = &fakeRunner{}
	e := NewExtractor("/srv/panson/data",
		WithExtractorRunner(runner),
		WithExtractorDockerPath(""),
		WithExtractorContainerName(""),
		WithExtractorBinaryPath(""),
	)
	req := &extraction.BatchRequest{
		VideoPath: "/srv/panson/data/rec.avi",
		OutputDir: "/srv/panson/data/features",
	}
	if err := e.ExtractBatch(context.Background(), req); err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if runner.calls[0].name != "docker" || runner.calls[0].args[1] != "openface" {
		t.Errorf("call = %v, want the default docker/openface invocation", runner.calls[0])
	}
}

func TestManagerVerifyReportsMissingBinary(t *testing.T) {
	runner := &fakeRunner{runErr: errors.New("exit status 1")}
	m := NewManager("/srv/panson/data", WithManagerRunner(runner))

	if err := m.Verify(context.Background()); err == nil {
		t.Fatal("expected error when the executable check fails")
	}
}
