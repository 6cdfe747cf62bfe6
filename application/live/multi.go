package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"panson/domain/feature"
	"panson/domain/sonification"
	"panson/pkg/log"
)

// Preprocessor transforms the merged frame before sonification
type Preprocessor func(feature.Frame) feature.Frame

// MultiPlayer merges several streams and sonifies the combined frame at a
// fixed tick rate.
//
// Each stream gets a worker goroutine that keeps the latest row in a
// slot, stamped with a `<name>_timestamp` column. A sonifier goroutine
// waits until every stream has produced its first row, then ticks at the
// merge rate, joining the slots into one frame with a shared `timestamp`
// column holding the seconds since the sonifier started.
type MultiPlayer struct {
	server  sonification.Server
	son     sonification.Sonification
	streams []feature.Stream
	fps     float64
	prep    Preprocessor
	loggers map[string]feature.FrameLogger

	mu          sync.Mutex
	listening   bool
	initialized bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// slot holds the latest row of one stream
type slot struct {
	mu     sync.Mutex
	header feature.Header
	row    []float64
	first  chan struct{}
	once   sync.Once
}

// MultiPlayerOption is a functional option for configuring MultiPlayer
type MultiPlayerOption func(*MultiPlayer)

// WithFPS overrides the merge tick rate. By default the highest stream
// rate is used.
func WithFPS(fps float64) MultiPlayerOption {
	return func(p *MultiPlayer) {
		p.fps = fps
	}
}

// WithPreprocessor transforms merged frames before they reach the
// sonification
func WithPreprocessor(prep Preprocessor) MultiPlayerOption {
	return func(p *MultiPlayer) {
		p.prep = prep
	}
}

// WithStreamLogger attaches a frame logger to the named stream
func WithStreamLogger(name string, logger feature.FrameLogger) MultiPlayerOption {
	return func(p *MultiPlayer) {
		p.loggers[name] = logger
	}
}

// NewMultiPlayer creates a live player merging the given streams
func NewMultiPlayer(server sonification.Server, son sonification.Sonification, streams []feature.Stream, opts ...MultiPlayerOption) (*MultiPlayer, error) {
	if len(streams) == 0 {
		return nil, fmt.Errorf("at least one stream is required")
	}

	p := &MultiPlayer{
		server:  server,
		son:     son,
		streams: streams,
		loggers: make(map[string]feature.FrameLogger),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.fps == 0 {
		for _, s := range streams {
			if s.FPS() > p.fps {
				p.fps = s.FPS()
			}
		}
	}
	if p.fps <= 0 {
		return nil, fmt.Errorf("cannot determine merge rate: no stream reports an fps")
	}

	return p, nil
}

// FPS returns the merge tick rate
func (p *MultiPlayer) FPS() float64 {
	return p.fps
}

// Listening reports whether the workers are running
func (p *MultiPlayer) Listening() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listening
}

// Listen opens all streams and starts the merge workers.
// Column collisions across streams are rejected before anything runs.
func (p *MultiPlayer) Listen(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.listening {
		return fmt.Errorf("already listening")
	}

	ctx, cancel := context.WithCancel(ctx)

	slots := make([]*slot, len(p.streams))
	channels := make([]<-chan []float64, len(p.streams))
	headers := make([]feature.Header, len(p.streams))
	for i, s := range p.streams {
		cols, rows, err := s.Open(ctx)
		if err != nil {
			cancel()
			return fmt.Errorf("failed to open stream %q: %w", s.Name(), err)
		}

		header, err := feature.NewHeader(cols)
		if err != nil {
			cancel()
			return fmt.Errorf("stream %q: %w", s.Name(), err)
		}
		header, err = header.Extend(s.Name() + "_timestamp")
		if err != nil {
			cancel()
			return fmt.Errorf("stream %q: %w", s.Name(), err)
		}

		slots[i] = &slot{header: header, first: make(chan struct{})}
		channels[i] = rows
		headers[i] = header
	}

	merged, err := feature.MergeHeaders(headers...)
	if err != nil {
		cancel()
		return err
	}
	merged, err = merged.Extend(feature.DefaultTimeLabel)
	if err != nil {
		cancel()
		return err
	}

	if !p.initialized {
		if err := p.server.Send(p.son.Initialize()...); err != nil {
			cancel()
			return fmt.Errorf("failed to initialize sonification: %w", err)
		}
		p.initialized = true
	}

	p.listening = true
	p.cancel = cancel
	p.done = make(chan struct{})

	var workers sync.WaitGroup
	tStart := time.Now()
	for i := range p.streams {
		workers.Add(1)
		go p.feed(&workers, p.streams[i], channels[i], slots[i], tStart)
	}

	go p.sonify(ctx, merged, slots, &workers, p.done)
	return nil
}

// Close stops all workers and waits for them to end. Workers that already
// finished on their own, because every stream ended, still count as a
// clean close.
func (p *MultiPlayer) Close() error {
	p.mu.Lock()
	if p.done == nil {
		p.mu.Unlock()
		return fmt.Errorf("not listening")
	}
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done

	p.mu.Lock()
	if p.done == done {
		p.listening = false
		p.done = nil
	}
	p.mu.Unlock()
	return nil
}

// LogStart begins recording the named stream's frames to a CSV file
func (p *MultiPlayer) LogStart(stream, path string, overwrite bool) error {
	logger, ok := p.loggers[stream]
	if !ok {
		return fmt.Errorf("no logger attached to stream %q", stream)
	}
	return logger.Start(path, overwrite)
}

// LogStop closes the named stream's log file
func (p *MultiPlayer) LogStop(stream string) error {
	logger, ok := p.loggers[stream]
	if !ok {
		return fmt.Errorf("no logger attached to stream %q", stream)
	}
	return logger.Stop()
}

// feed pumps one stream into its slot, stamping each row with the
// seconds elapsed since listening started
func (p *MultiPlayer) feed(wg *sync.WaitGroup, stream feature.Stream, rows <-chan []float64, sl *slot, tStart time.Time) {
	defer wg.Done()

	logger := p.loggers[stream.Name()]

	for row := range rows {
		stamped := make([]float64, 0, len(row)+1)
		stamped = append(stamped, row...)
		stamped = append(stamped, time.Since(tStart).Seconds())

		sl.mu.Lock()
		sl.row = stamped
		sl.mu.Unlock()
		sl.once.Do(func() { close(sl.first) })

		if logger != nil && logger.Logging() {
			frame, err := feature.NewFrame(sl.header, stamped)
			if err == nil {
				if err := logger.Log(frame); err != nil {
					log.Logger().WithError(err).WithField("stream", stream.Name()).Warn("Failed to log frame")
				}
			}
		}
	}

	log.Logger().WithField("stream", stream.Name()).Info("Stream ended")
}

// sonify merges the slots at the tick rate and drives the sonification
func (p *MultiPlayer) sonify(ctx context.Context, merged feature.Header, slots []*slot, workers *sync.WaitGroup, done chan struct{}) {
	defer close(done)
	defer workers.Wait()

	if err := p.server.Send(p.son.Start()...); err != nil {
		log.Logger().WithError(err).Error("Failed to send start messages")
	}
	defer func() {
		if err := p.server.Send(p.son.Stop()...); err != nil {
			log.Logger().WithError(err).Error("Failed to send stop messages")
		}
	}()

	// Wait until every stream has delivered its first row
	for _, sl := range slots {
		select {
		case <-sl.first:
		case <-ctx.Done():
			return
		}
	}

	log.Logger().WithFields(log.Fields{
		"streams": len(slots),
		"fps":     p.fps,
	}).Info("All streams live, merging")

	t0 := time.Now()
	tick := time.Duration(float64(time.Second) / p.fps)
	sendFailed := false
	for i := 0; ; i++ {
		values := make([]float64, 0, len(merged))
		for _, sl := range slots {
			sl.mu.Lock()
			values = append(values, sl.row...)
			sl.mu.Unlock()
		}
		values = append(values, time.Since(t0).Seconds())

		frame, err := feature.NewFrame(merged, values)
		if err != nil {
			log.Logger().WithError(err).Warn("Dropping malformed merged frame")
		} else {
			if p.prep != nil {
				frame = p.prep(frame)
			}
			if msgs := p.son.Process(frame); len(msgs) > 0 {
				if err := p.server.Send(msgs...); err != nil && !sendFailed {
					sendFailed = true
					log.Logger().WithError(err).
						Error("Failed to send frame messages, suppressing further send errors")
				}
			}
		}

		target := t0.Add(time.Duration(i+1) * tick)
		if lag := time.Since(target); lag > 0 {
			log.Logger().WithFields(log.Fields{
				"tick": i,
				"lag":  lag,
			}).Warn("Merge tick is late")
			continue
		}
		select {
		case <-time.After(time.Until(target)):
		case <-ctx.Done():
			return
		}
	}
}
