// Package playback plays recorded feature data through a sonification,
// with transport controls: play, pause, seek and rate.
package playback

import (
	"fmt"
	"math"
	"sync"
	"time"

	"panson/domain/feature"
	"panson/domain/sonification"
	"panson/pkg/log"
)

// AudioRecorder captures the server's audio output to a file
type AudioRecorder interface {
	Start(path string, overwrite bool) error
	Stop() error
	Recording() bool
}

// Player sends one sonified bundle per recorded frame at its scheduled
// time. A worker goroutine runs the transport; pause joins it.
type Player struct {
	server   sonification.Server
	son      sonification.Sonification
	recorder AudioRecorder

	mu          sync.Mutex
	rec         *feature.Recording
	rate        float64
	ptr         int
	playing     bool
	stopping    bool
	initialized bool
	stop        chan struct{}
	done        chan struct{}
}

// PlayerOption is a functional option for configuring Player
type PlayerOption func(*Player)

// WithRecorder attaches an audio recorder for capturing renders live
func WithRecorder(rec AudioRecorder) PlayerOption {
	return func(p *Player) {
		p.recorder = rec
	}
}

// NewPlayer creates a Player driving the sonification on the server
func NewPlayer(server sonification.Server, son sonification.Sonification, opts ...PlayerOption) *Player {
	p := &Player{
		server: server,
		son:    son,
		rate:   1,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// RecordStart starts capturing the server's audio output to path
func (p *Player) RecordStart(path string, overwrite bool) error {
	if p.recorder == nil {
		return fmt.Errorf("no recorder attached")
	}
	return p.recorder.Start(path, overwrite)
}

// RecordStop stops the audio capture
func (p *Player) RecordStop() error {
	if p.recorder == nil {
		return fmt.Errorf("no recorder attached")
	}
	return p.recorder.Stop()
}

// Load sets the recording to play and rewinds to the first frame.
// Loading while playing is rejected.
func (p *Player) Load(rec *feature.Recording) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.playing {
		return fmt.Errorf("cannot load data while playing")
	}

	p.rec = rec
	p.ptr = 0
	return nil
}

// Position returns the index of the last played frame
func (p *Player) Position() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ptr
}

// Rate returns the playback rate
func (p *Player) Rate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// Playing reports whether the transport is running
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Play starts playback from the current position
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playLocked()
}

func (p *Player) playLocked() error {
	if p.rec == nil {
		return fmt.Errorf("no data loaded")
	}
	if p.playing {
		return fmt.Errorf("already playing")
	}

	if !p.initialized {
		if err := p.server.Send(p.son.Initialize()...); err != nil {
			return fmt.Errorf("failed to initialize sonification: %w", err)
		}
		p.initialized = true
	}

	p.playing = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.rec, p.ptr, p.rate, p.stop, p.done)
	return nil
}

// Pause stops playback, keeping the position. It returns once the worker
// has ended.
func (p *Player) Pause() error {
	p.mu.Lock()
	if !p.playing || p.stopping {
		p.mu.Unlock()
		return fmt.Errorf("already paused")
	}
	// Claim the stop channel before releasing the lock so a concurrent
	// seek or rate change cannot close it a second time
	p.stopping = true
	done := p.done
	close(p.stop)
	p.mu.Unlock()

	<-done

	p.mu.Lock()
	if p.done == done {
		p.playing = false
		p.stopping = false
	}
	p.mu.Unlock()
	return nil
}

// SetRate changes the playback rate. Negative rates play backwards;
// rate 0 is rejected. Changing the rate while playing restarts the
// worker at the current position.
func (p *Player) SetRate(rate float64) error {
	if rate == 0 {
		return fmt.Errorf("cannot set rate to 0")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		p.rate = rate
		return nil
	}

	restart := p.pauseLocked()
	p.rate = rate
	if !restart || p.playing {
		return nil
	}
	return p.playLocked()
}

// SeekIndex jumps to the given frame index. Seeking while playing
// restarts the worker at the new position.
func (p *Player) SeekIndex(idx int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rec == nil {
		return fmt.Errorf("no data loaded")
	}
	if err := p.rec.CheckIndex(idx); err != nil {
		return err
	}

	if !p.playing {
		p.ptr = idx
		return nil
	}

	restart := p.pauseLocked()
	p.ptr = idx
	if !restart || p.playing {
		return nil
	}
	return p.playLocked()
}

// SeekTime jumps to the first frame at or after t seconds
func (p *Player) SeekTime(t float64) error {
	p.mu.Lock()
	rec := p.rec
	p.mu.Unlock()

	if rec == nil {
		return fmt.Errorf("no data loaded")
	}
	idx, err := rec.IndexAtTime(t)
	if err != nil {
		return err
	}
	return p.SeekIndex(idx)
}

// pauseLocked stops the worker while p.mu is held. It reports whether the
// caller stopped the worker itself; false means a concurrent Pause owned
// the stop channel and the pause stands, so no restart should follow.
func (p *Player) pauseLocked() bool {
	concurrent := p.stopping
	if !concurrent {
		p.stopping = true
		close(p.stop)
	}
	done := p.done

	// The worker takes p.mu to update the position, so release it while
	// joining
	p.mu.Unlock()
	<-done
	p.mu.Lock()

	if p.done == done {
		p.playing = false
		p.stopping = false
	}
	return !concurrent
}

func (p *Player) run(rec *feature.Recording, startPtr int, rate float64, stop, done chan struct{}) {
	defer close(done)

	log.Logger().WithFields(log.Fields{
		"frame": startPtr,
		"rate":  rate,
	}).Debug("Player worker started")

	if err := p.server.Send(p.son.Start()...); err != nil {
		log.Logger().WithError(err).Error("Failed to send start messages")
	}

	t0 := time.Now()
	startTime := rec.TimeAt(startPtr)
	step := 1
	if rate < 0 {
		step = -1
	}

	visited := 0
	sendFailed := false
	for i := startPtr; i >= 0 && i < rec.Len(); i += step {
		select {
		case <-stop:
			i = -1 // exit
		default:
		}
		if i < 0 {
			break
		}

		var offset float64
		if fps := rec.FPS(); fps > 0 {
			offset = float64(visited) / fps / math.Abs(rate)
			visited++
		} else {
			offset = (rec.TimeAt(i) - startTime) / rate
		}
		target := t0.Add(time.Duration(offset * float64(time.Second)))

		if msgs := p.son.Process(rec.Frame(i)); len(msgs) > 0 {
			if err := p.server.SendAt(target, msgs...); err != nil && !sendFailed {
				sendFailed = true
				log.Logger().WithError(err).WithField("frame", i).
					Error("Failed to send frame messages, suppressing further send errors")
			}
		}

		p.mu.Lock()
		p.ptr = i
		p.mu.Unlock()

		if wait := time.Until(target); wait > 0 {
			select {
			case <-time.After(wait):
			case <-stop:
			}
		}
	}

	if err := p.server.Send(p.son.Stop()...); err != nil {
		log.Logger().WithError(err).Error("Failed to send stop messages")
	}

	// Relevant when the loop ends naturally
	p.mu.Lock()
	if p.done == done {
		p.playing = false
		p.stopping = false
	}
	p.mu.Unlock()

	log.Logger().Debug("Player worker ended")
}
