package live

import (
	"context"
	"sync"
	"testing"
	"time"

	"panson/domain/feature"
	"panson/domain/sonification"
)

// fakeStream delivers rows pushed into its input channel and closes its
// output when the input closes or the context is cancelled
type fakeStream struct {
	name string
	fps  float64
	cols []string
	in   chan []float64
}

func newFakeStream(name string, fps float64, cols ...string) *fakeStream {
	return &fakeStream{name: name, fps: fps, cols: cols, in: make(chan []float64)}
}

func (f *fakeStream) Name() string { return f.name }

func (f *fakeStream) FPS() float64 { return f.fps }

func (f *fakeStream) Open(ctx context.Context) ([]string, <-chan []float64, error) {
	out := make(chan []float64)
	go func() {
		defer close(out)
		for {
			select {
			case row, ok := <-f.in:
				if !ok {
					return
				}
				select {
				case out <- row:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return f.cols, out, nil
}

// fakeServer collects sent message addresses
type fakeServer struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeServer) Send(msgs ...sonification.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.sent = append(f.sent, m.Address)
	}
	return nil
}

func (f *fakeServer) SendAt(t time.Time, msgs ...sonification.Message) error {
	return f.Send(msgs...)
}

func (f *fakeServer) addresses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

// fakeSonification records every processed frame
type fakeSonification struct {
	mu     sync.Mutex
	frames []feature.Frame
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
	f.mu.Lock()
	f.frames = append(f.frames, frame)
	f.mu.Unlock()
	return []sonification.Message{sonification.NewMessage("/n_set")}
}

func (f *fakeSonification) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeSonification) frame(i int) feature.Frame {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[i]
}

func waitFrames(t *testing.T, son *fakeSonification, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for son.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d frames, got %d", n, son.count())
		}
		time.Sleep(time.Millisecond)
	}
}

// fakeLogger records logged frames
type fakeLogger struct {
	mu      sync.Mutex
	logging bool
	frames  []feature.Frame
	path    string
}

func (f *fakeLogger) Start(path string, overwrite bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logging = true
	f.path = path
	return nil
}

func (f *fakeLogger) Log(frame feature.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeLogger) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logging = false
	return nil
}

func (f *fakeLogger) Logging() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logging
}

func (f *fakeLogger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestPlayerSonifiesStream(t *testing.T) {
	stream := newFakeStream("face", 30, "x", "y")
	srv := &fakeServer{}
	son := &fakeSonification{}
	p := NewPlayer(srv, son, stream)

	if err := p.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := p.Listen(context.Background()); err == nil {
		t.Error("second Listen should fail")
	}

	stream.in <- []float64{1, 2}
	stream.in <- []float64{3, 4}
	waitFrames(t, son, 2)

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if p.Listening() {
		t.Error("player should have stopped")
	}
	if err := p.Close(); err == nil {
		t.Error("second Close should fail")
	}

	v, err := son.frame(1).Value("y")
	if err != nil || v != 4 {
		t.Errorf("frame value = %v, %v; want 4", v, err)
	}

	addrs := srv.addresses()
	if addrs[0] != "/init" || addrs[1] != "/start" || addrs[len(addrs)-1] != "/stop" {
		t.Errorf("address sequence = %v", addrs)
	}
}

func TestPlayerCloseAfterStreamEnds(t *testing.T) {
	stream := newFakeStream("face", 30, "x")
	son := &fakeSonification{}
	p := NewPlayer(&fakeServer{}, son, stream)

	if err := p.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}

	stream.in <- []float64{1}
	waitFrames(t, son, 1)

	// The writer side goes away; the worker winds down on its own
	close(stream.in)
	deadline := time.Now().Add(2 * time.Second)
	for p.Listening() {
		if time.Now().After(deadline) {
			t.Fatal("worker did not finish after the stream ended")
		}
		time.Sleep(time.Millisecond)
	}

	// Closing a player whose stream already ended is still a clean close
	if err := p.Close(); err != nil {
		t.Fatalf("Close after stream end: %v", err)
	}
	if err := p.Close(); err == nil {
		t.Error("second Close should fail")
	}
}

func TestPlayerAppendsTimestamp(t *testing.T) {
	stream := newFakeStream("face", 30, "x")
	son := &fakeSonification{}
	p := NewPlayer(&fakeServer{}, son, stream, WithTimestamp())

	if err := p.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	stream.in <- []float64{7}
	waitFrames(t, son, 1)

	ts, err := son.frame(0).Value(feature.DefaultTimeLabel)
	if err != nil {
		t.Fatalf("frame has no timestamp column: %v", err)
	}
	if ts < 0 || ts > 2 {
		t.Errorf("timestamp = %v, want a small elapsed time", ts)
	}
}

func TestPlayerRejectsTimestampCollision(t *testing.T) {
	stream := newFakeStream("face", 30, "x", feature.DefaultTimeLabel)
	p := NewPlayer(&fakeServer{}, &fakeSonification{}, stream, WithTimestamp())

	if err := p.Listen(context.Background()); err == nil {
		t.Error("Listen should reject a stream that already has a timestamp column")
		p.Close()
	}
}

func TestPlayerFeedsLogger(t *testing.T) {
	stream := newFakeStream("face", 30, "x")
	son := &fakeSonification{}
	logger := &fakeLogger{}
	p := NewPlayer(&fakeServer{}, son, stream, WithLogger(logger))

	if err := p.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	// Not logging yet: frame is sonified but not recorded
	stream.in <- []float64{1}
	waitFrames(t, son, 1)
	if logger.count() != 0 {
		t.Errorf("logged %d frames before LogStart", logger.count())
	}

	if err := p.LogStart("features.csv", false); err != nil {
		t.Fatal(err)
	}
	stream.in <- []float64{2}
	waitFrames(t, son, 2)

	deadline := time.Now().Add(2 * time.Second)
	for logger.count() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("frame never reached the logger")
		}
		time.Sleep(time.Millisecond)
	}

	if err := p.LogStop(); err != nil {
		t.Fatal(err)
	}
}

func TestMultiPlayerMergesStreams(t *testing.T) {
	a := newFakeStream("face", 100, "x")
	b := newFakeStream("pose", 50, "y")
	srv := &fakeServer{}
	son := &fakeSonification{}

	p, err := NewMultiPlayer(srv, son, []feature.Stream{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if p.FPS() != 100 {
		t.Errorf("fps = %v, want the highest stream rate", p.FPS())
	}

	if err := p.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}

	a.in <- []float64{1}
	b.in <- []float64{2}
	waitFrames(t, son, 1)

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}

	frame := son.frame(0)
	for col, want := range map[string]float64{"x": 1, "y": 2} {
		if v, err := frame.Value(col); err != nil || v != want {
			t.Errorf("frame %s = %v, %v; want %v", col, v, err, want)
		}
	}
	for _, col := range []string{"face_timestamp", "pose_timestamp", feature.DefaultTimeLabel} {
		if !frame.Header().Has(col) {
			t.Errorf("merged frame missing column %q", col)
		}
	}
}

func TestMultiPlayerKeepsLatestSample(t *testing.T) {
	a := newFakeStream("face", 100, "x")
	b := newFakeStream("pose", 100, "y")
	son := &fakeSonification{}

	p, err := NewMultiPlayer(&fakeServer{}, son, []feature.Stream{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	// The slow stream delivers once; the fast one keeps updating
	b.in <- []float64{9}
	a.in <- []float64{1}
	a.in <- []float64{2}
	waitFrames(t, son, 3)

	last := son.frame(son.count() - 1)
	if v, _ := last.Value("y"); v != 9 {
		t.Errorf("slow stream value = %v, want 9 carried forward", v)
	}
}

func TestMultiPlayerPreprocessor(t *testing.T) {
	a := newFakeStream("face", 100, "x")
	son := &fakeSonification{}

	prep := func(f feature.Frame) feature.Frame {
		v, _ := f.Value("x")
		f.SetValue("x", v*10)
		return f
	}

	p, err := NewMultiPlayer(&fakeServer{}, son, []feature.Stream{a}, WithPreprocessor(prep))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	a.in <- []float64{3}
	waitFrames(t, son, 1)

	if v, _ := son.frame(0).Value("x"); v != 30 {
		t.Errorf("preprocessed value = %v, want 30", v)
	}
}

func TestMultiPlayerRejectsCollision(t *testing.T) {
	a := newFakeStream("face", 100, "x")
	b := newFakeStream("pose", 100, "x")

	p, err := NewMultiPlayer(&fakeServer{}, &fakeSonification{}, []feature.Stream{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Listen(context.Background()); err == nil {
		t.Error("Listen should reject colliding columns")
		p.Close()
	}
}

func TestMultiPlayerValidation(t *testing.T) {
	if _, err := NewMultiPlayer(&fakeServer{}, &fakeSonification{}, nil); err == nil {
		t.Error("empty stream list should be rejected")
	}

	a := newFakeStream("face", 0, "x")
	if _, err := NewMultiPlayer(&fakeServer{}, &fakeSonification{}, []feature.Stream{a}); err == nil {
		t.Error("unknown rates with no explicit fps should be rejected")
	}
	if _, err := NewMultiPlayer(&fakeServer{}, &fakeSonification{}, []feature.Stream{a}, WithFPS(30)); err != nil {
		t.Errorf("explicit fps should work: %v", err)
	}
}

func TestMultiPlayerStreamLogger(t *testing.T) {
	a := newFakeStream("face", 100, "x")
	son := &fakeSonification{}
	logger := &fakeLogger{}

	p, err := NewMultiPlayer(&fakeServer{}, son, []feature.Stream{a}, WithStreamLogger("face", logger))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Listen(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.LogStart("pose", "x.csv", false); err == nil {
		t.Error("LogStart for an unknown stream should fail")
	}
	if err := p.LogStart("face", "face.csv", false); err != nil {
		t.Fatal(err)
	}

	a.in <- []float64{5}
	deadline := time.Now().Add(2 * time.Second)
	for logger.count() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("frame never reached the stream logger")
		}
		time.Sleep(time.Millisecond)
	}

	logged := logger.frames[0]
	if !logged.Header().Has("face_timestamp") {
		t.Error("logged frame missing the stream timestamp column")
	}
	if err := p.LogStop("face"); err != nil {
		t.Fatal(err)
	}
}
