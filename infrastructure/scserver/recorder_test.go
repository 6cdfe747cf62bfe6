package scserver

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"panson/domain/sonification"
)

// fakeServer collects the messages sent to it
type fakeServer struct {
	sent [][]sonification.Message
}

func (f *fakeServer) Send(msgs ...sonification.Message) error {
	f.sent = append(f.sent, msgs)
	return nil
}

func (f *fakeServer) SendAt(t time.Time, msgs ...sonification.Message) error {
	f.sent = append(f.sent, msgs)
	return nil
}

func addresses(msgs []sonification.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Address
	}
	return out
}

func TestRecorderStartStop(t *testing.T) {
	server := &fakeServer{}
	rec := NewRecorder(server)

	path := filepath.Join(t.TempDir(), "take.wav")
	if err := rec.Start(path, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !rec.Recording() {
		t.Error("Recording() should be true after Start")
	}

	if len(server.sent) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(server.sent))
	}
	wantStart := []string{"/b_alloc", "/b_write", "/s_new"}
	for i, addr := range addresses(server.sent[0]) {
		if addr != wantStart[i] {
			t.Errorf("start message %d = %s, want %s", i, addr, wantStart[i])
		}
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec.Recording() {
		t.Error("Recording() should be false after Stop")
	}

	wantStop := []string{"/n_free", "/b_close", "/b_free"}
	for i, addr := range addresses(server.sent[1]) {
		if addr != wantStop[i] {
			t.Errorf("stop message %d = %s, want %s", i, addr, wantStop[i])
		}
	}
}

func TestRecorderRefusesDoubleStart(t *testing.T) {
	rec := NewRecorder(&fakeServer{})

	path := filepath.Join(t.TempDir(), "take.wav")
	if err := rec.Start(path, false); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.Start(path, false); err == nil {
		t.Fatal("expected error starting an already running recorder")
	}
}

func TestRecorderStopWithoutStart(t *testing.T) {
	rec := NewRecorder(&fakeServer{})
	if err := rec.Stop(); err == nil {
		t.Fatal("expected error stopping a recorder that never started")
	}
}

func TestRecorderOverwriteGuard(t *testing.T) {
	rec := NewRecorder(&fakeServer{})

	path := filepath.Join(t.TempDir(), "take.wav")
	if err := os.WriteFile(path, []byte("old take"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := rec.Start(path, false); err == nil {
		t.Fatal("expected error for existing file without overwrite")
	}
	if err := rec.Start(path, true); err != nil {
		t.Errorf("Start with overwrite: %v", err)
	}
}

func TestHeaderFormatFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "take.wav", want: "wav"},
		{path: "take.aiff", want: "aiff"},
		{path: "take.AIF", want: "aiff"},
		{path: "take", want: "wav"},
	}

	for _, tt := range tests {
		if got := headerFormatFor(tt.path); got != tt.want {
			t.Errorf("headerFormatFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
