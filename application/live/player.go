// Package live sonifies feature streams as they arrive, either from a
// single source or from several sources merged at a fixed tick rate.
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

// Player sonifies a single stream frame by frame as rows arrive
type Player struct {
	server sonification.Server
	son    sonification.Sonification
	stream feature.Stream
	logger feature.FrameLogger

	// timestamp appends a column with seconds since listening started
	timestamp bool

	mu          sync.Mutex
	listening   bool
	initialized bool
	cancel      context.CancelFunc
	done        chan struct{}
}

// PlayerOption is a functional option for configuring Player
type PlayerOption func(*Player)

// WithLogger attaches a frame logger; frames are fed to it while a log
// file is open
func WithLogger(logger feature.FrameLogger) PlayerOption {
	return func(p *Player) {
		p.logger = logger
	}
}

// WithTimestamp appends a timestamp column to each frame, holding the
// seconds elapsed since listening started
func WithTimestamp() PlayerOption {
	return func(p *Player) {
		p.timestamp = true
	}
}

// NewPlayer creates a live player for one stream
func NewPlayer(server sonification.Server, son sonification.Sonification, stream feature.Stream, opts ...PlayerOption) *Player {
	p := &Player{
		server: server,
		son:    son,
		stream: stream,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Listening reports whether the worker is running
func (p *Player) Listening() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listening
}

// Listen opens the stream and starts sonifying its frames
func (p *Player) Listen(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.listening {
		return fmt.Errorf("already listening")
	}

	ctx, cancel := context.WithCancel(ctx)

	cols, rows, err := p.stream.Open(ctx)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to open stream %q: %w", p.stream.Name(), err)
	}

	header, err := feature.NewHeader(cols)
	if err != nil {
		cancel()
		return fmt.Errorf("stream %q: %w", p.stream.Name(), err)
	}
	if p.timestamp {
		header, err = header.Extend(feature.DefaultTimeLabel)
		if err != nil {
			cancel()
			return fmt.Errorf("stream %q: %w", p.stream.Name(), err)
		}
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
	go p.run(header, rows, p.done)
	return nil
}

// Close stops the worker and waits for it to end. A worker that already
// finished on its own, because the stream ended, still counts as a clean
// close.
func (p *Player) Close() error {
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

// LogStart begins recording incoming frames to a CSV file
func (p *Player) LogStart(path string, overwrite bool) error {
	if p.logger == nil {
		return fmt.Errorf("no logger attached")
	}
	return p.logger.Start(path, overwrite)
}

// LogStop closes the current log file
func (p *Player) LogStop() error {
	if p.logger == nil {
		return fmt.Errorf("no logger attached")
	}
	return p.logger.Stop()
}

func (p *Player) run(header feature.Header, rows <-chan []float64, done chan struct{}) {
	defer close(done)

	log.Logger().WithField("stream", p.stream.Name()).Info("Listening to stream")

	if err := p.server.Send(p.son.Start()...); err != nil {
		log.Logger().WithError(err).Error("Failed to send start messages")
	}
	tStart := time.Now()

	sendFailed := false
	for row := range rows {
		if p.timestamp {
			row = append(row, time.Since(tStart).Seconds())
		}

		frame, err := feature.NewFrame(header, row)
		if err != nil {
			log.Logger().WithError(err).Warn("Dropping malformed frame")
			continue
		}

		if msgs := p.son.Process(frame); len(msgs) > 0 {
			if err := p.server.Send(msgs...); err != nil && !sendFailed {
				sendFailed = true
				log.Logger().WithError(err).
					Error("Failed to send frame messages, suppressing further send errors")
			}
		}

		if p.logger != nil && p.logger.Logging() {
			if err := p.logger.Log(frame); err != nil {
				log.Logger().WithError(err).Warn("Failed to log frame")
			}
		}
	}

	if err := p.server.Send(p.son.Stop()...); err != nil {
		log.Logger().WithError(err).Error("Failed to send stop messages")
	}

	p.mu.Lock()
	if p.done == done {
		p.listening = false
	}
	p.mu.Unlock()

	log.Logger().WithField("stream", p.stream.Name()).Info("Stream ended")
}
