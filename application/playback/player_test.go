package playback

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"panson/domain/feature"
	"panson/domain/sonification"
	"panson/pkg/log"
)

// fakeServer collects sent messages
type fakeServer struct {
	mu     sync.Mutex
	sent   [][]sonification.Message
	timed  []time.Time
	timedM [][]sonification.Message
}

func (f *fakeServer) Send(msgs ...sonification.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msgs)
	return nil
}

func (f *fakeServer) SendAt(t time.Time, msgs ...sonification.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timed = append(f.timed, t)
	f.timedM = append(f.timedM, msgs)
	return nil
}

func (f *fakeServer) addresses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var addrs []string
	for _, batch := range f.sent {
		for _, m := range batch {
			addrs = append(addrs, m.Address)
		}
	}
	return addrs
}

// fakeSonification records the first column value of each processed frame
type fakeSonification struct {
	mu        sync.Mutex
	processed []float64
	column    string
}

func (f *fakeSonification) Initialize() []sonification.Message {
	return []sonification.Message{sonification.NewMessage("/init")}
}

func (f *fakeSonification) Start() []sonification.Message {
	return []sonification.Message{sonification.NewMessage("/start")}
}

func (f *fakeSonification) Stop() []sonification.Message {
	return []sonification.Message{sonification.NewMessage("/stop")}
}

func (f *fakeSonification) Process(frame feature.Frame) []sonification.Message {
	v, _ := frame.Value(f.column)
	f.mu.Lock()
	f.processed = append(f.processed, v)
	f.mu.Unlock()
	return []sonification.Message{sonification.NewMessage("/n_set", v)}
}

func (f *fakeSonification) values() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.processed...)
}

func testRecording(t *testing.T, n int, fps float64) *feature.Recording {
	t.Helper()
	header, err := feature.NewHeader([]string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = []float64{float64(i)}
	}
	rec, err := feature.NewRecording(header, rows, fps, "")
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func waitStopped(t *testing.T, p *Player) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for p.Playing() {
		if time.Now().After(deadline) {
			t.Fatal("player did not finish in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPlayToEnd(t *testing.T) {
	srv := &fakeServer{}
	son := &fakeSonification{column: "x"}
	p := NewPlayer(srv, son)

	if err := p.Load(testRecording(t, 5, 1000)); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	waitStopped(t, p)

	if got, want := son.values(), []float64{0, 1, 2, 3, 4}; len(got) != len(want) {
		t.Fatalf("processed %v, want %v", got, want)
	} else {
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("processed %v, want %v", got, want)
			}
		}
	}

	// Init and start precede all frames, stop follows them
	addrs := srv.addresses()
	if got, want := strings.Join(addrs, " "), "/init /start /stop"; got != want {
		t.Errorf("sent addresses %q, want %q", got, want)
	}

	// Scheduled times are non-decreasing
	srv.mu.Lock()
	defer srv.mu.Unlock()
	for i := 1; i < len(srv.timed); i++ {
		if srv.timed[i].Before(srv.timed[i-1]) {
			t.Errorf("bundle %d scheduled before bundle %d", i, i-1)
		}
	}
	if p.Position() != 4 {
		t.Errorf("position = %d, want 4", p.Position())
	}
}

func TestPlayBackwards(t *testing.T) {
	srv := &fakeServer{}
	son := &fakeSonification{column: "x"}
	p := NewPlayer(srv, son)

	if err := p.Load(testRecording(t, 4, 1000)); err != nil {
		t.Fatal(err)
	}
	if err := p.SetRate(-2); err != nil {
		t.Fatal(err)
	}
	if err := p.SeekIndex(3); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	waitStopped(t, p)

	got := son.values()
	want := []float64{3, 2, 1, 0}
	if len(got) != len(want) {
		t.Fatalf("processed %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("processed %v, want %v", got, want)
		}
	}
}

func TestTimestampModeTiming(t *testing.T) {
	header, err := feature.NewHeader([]string{"timestamp", "x"})
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]float64{{0, 0}, {0.001, 1}, {0.002, 2}}
	rec, err := feature.NewRecording(header, rows, 0, "")
	if err != nil {
		t.Fatal(err)
	}

	srv := &fakeServer{}
	son := &fakeSonification{column: "x"}
	p := NewPlayer(srv, son)

	if err := p.Load(rec); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	waitStopped(t, p)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	if len(srv.timed) != 3 {
		t.Fatalf("scheduled %d bundles, want 3", len(srv.timed))
	}
	// Second frame is 1 ms after the first
	if d := srv.timed[1].Sub(srv.timed[0]); d != time.Millisecond {
		t.Errorf("frame spacing = %v, want 1ms", d)
	}
}

func TestStateErrors(t *testing.T) {
	srv := &fakeServer{}
	p := NewPlayer(srv, &fakeSonification{column: "x"})

	if err := p.Play(); err == nil {
		t.Error("Play with no data should fail")
	}
	if err := p.Pause(); err == nil {
		t.Error("Pause while paused should fail")
	}
	if err := p.SetRate(0); err == nil {
		t.Error("SetRate(0) should fail")
	}

	if err := p.Load(testRecording(t, 5, 1000)); err != nil {
		t.Fatal(err)
	}
	if err := p.SeekIndex(5); err == nil {
		t.Error("SeekIndex out of range should fail")
	}
	if err := p.SeekTime(10); err == nil {
		t.Error("SeekTime past the end should fail")
	}
}

func TestPauseStopsWorker(t *testing.T) {
	srv := &fakeServer{}
	son := &fakeSonification{column: "x"}
	p := NewPlayer(srv, son)

	// Slow recording so the pause lands mid-playback
	if err := p.Load(testRecording(t, 1000, 10)); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err == nil {
		t.Error("Play while playing should fail")
	}
	if err := p.Load(testRecording(t, 5, 10)); err == nil {
		t.Error("Load while playing should fail")
	}

	time.Sleep(50 * time.Millisecond)
	if err := p.Pause(); err != nil {
		t.Fatal(err)
	}
	if p.Playing() {
		t.Error("player should be paused")
	}

	processed := len(son.values())
	if processed == 0 || processed >= 1000 {
		t.Errorf("processed %d frames, want a partial run", processed)
	}

	// A stop bundle was sent on pause
	addrs := srv.addresses()
	if addrs[len(addrs)-1] != "/stop" {
		t.Errorf("last sent address = %q, want /stop", addrs[len(addrs)-1])
	}

	// Resume from where we paused
	pos := p.Position()
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if err := p.Pause(); err != nil {
		t.Fatal(err)
	}
	if p.Position() < pos {
		t.Errorf("position went backwards: %d < %d", p.Position(), pos)
	}
}

// failingServer accepts the init batch, then rejects everything
type failingServer struct {
	fakeServer
}

func (f *failingServer) Send(msgs ...sonification.Message) error {
	f.fakeServer.Send(msgs...)
	if len(msgs) > 0 && msgs[0].Address == "/init" {
		return nil
	}
	return errors.New("server unreachable")
}

func (f *failingServer) SendAt(at time.Time, msgs ...sonification.Message) error {
	f.fakeServer.SendAt(at, msgs...)
	return errors.New("server unreachable")
}

func TestSendErrorsAreLoggedNotFatal(t *testing.T) {
	var buf bytes.Buffer
	log.Logger().SetOutput(&buf)
	defer log.Logger().SetOutput(os.Stderr)

	srv := &failingServer{}
	son := &fakeSonification{column: "x"}
	p := NewPlayer(srv, son)

	if err := p.Load(testRecording(t, 5, 1000)); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	waitStopped(t, p)

	// Playback ran to the end despite every send failing
	if got := son.values(); len(got) != 5 {
		t.Errorf("processed %d frames, want 5", len(got))
	}
	if !strings.Contains(buf.String(), "Failed to send") {
		t.Errorf("send failures were not logged:\n%s", buf.String())
	}
}

func TestConcurrentPauseAndSeek(t *testing.T) {
	srv := &fakeServer{}
	son := &fakeSonification{column: "x"}
	p := NewPlayer(srv, son)

	if err := p.Load(testRecording(t, 1000, 10)); err != nil {
		t.Fatal(err)
	}

	// Only one of the racing callers may close the worker's stop channel;
	// the rest must see a paused player, never a double close
	for i := 0; i < 200; i++ {
		p.Play() // fails with "already playing" when a seek restarted it

		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				p.Pause()
			}()
		}
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			p.SeekIndex(idx)
		}(i % 1000)
		wg.Wait()
	}

	if p.Playing() {
		if err := p.Pause(); err != nil {
			t.Fatal(err)
		}
	}
}

type fakeRecorder struct {
	started []string
	stops   int
}

func (f *fakeRecorder) Start(path string, overwrite bool) error {
	f.started = append(f.started, path)
	return nil
}

func (f *fakeRecorder) Stop() error {
	f.stops++
	return nil
}

func (f *fakeRecorder) Recording() bool { return len(f.started) > f.stops }

func TestRecordPassthrough(t *testing.T) {
	p := NewPlayer(&fakeServer{}, &fakeSonification{column: "x"})
	if err := p.RecordStart("out.wav", false); err == nil {
		t.Error("RecordStart without a recorder should fail")
	}

	rec := &fakeRecorder{}
	p = NewPlayer(&fakeServer{}, &fakeSonification{column: "x"}, WithRecorder(rec))
	if err := p.RecordStart("out.wav", false); err != nil {
		t.Fatal(err)
	}
	if err := p.RecordStop(); err != nil {
		t.Fatal(err)
	}
	if len(rec.started) != 1 || rec.stops != 1 {
		t.Errorf("recorder calls = %v/%d", rec.started, rec.stops)
	}
}

func TestSeekWhilePlayingRestarts(t *testing.T) {
	srv := &fakeServer{}
	son := &fakeSonification{column: "x"}
	p := NewPlayer(srv, son)

	if err := p.Load(testRecording(t, 1000, 10)); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if err := p.SeekIndex(500); err != nil {
		t.Fatal(err)
	}
	if !p.Playing() {
		t.Error("player should still be playing after seek")
	}
	if err := p.Pause(); err != nil {
		t.Fatal(err)
	}
	if p.Position() < 500 {
		t.Errorf("position = %d, want >= 500", p.Position())
	}

	// Init was sent exactly once across restarts
	init := 0
	for _, a := range srv.addresses() {
		if a == "/init" {
			init++
		}
	}
	if init != 1 {
		t.Errorf("init sent %d times, want 1", init)
	}
}
