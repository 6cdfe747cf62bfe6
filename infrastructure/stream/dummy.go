package stream

import (
	"context"
	"math"
	"time"

	"panson/domain/feature"
)

// Sine is a synthetic stream yielding a sinusoid of wall-clock time.
// Useful for trying sonifications without an extractor.
type Sine struct {
	name       string
	fps        float64
	amp        float64
	timestamps bool
}

// NewSine creates a Sine stream. When timestamps is set the first column
// carries seconds since the stream was opened.
func NewSine(name string, fps, amp float64, timestamps bool) *Sine {
	return &Sine{name: name, fps: fps, amp: amp, timestamps: timestamps}
}

// Name implements feature.Stream
func (s *Sine) Name() string { return s.name }

// FPS implements feature.Stream
func (s *Sine) FPS() float64 { return s.fps }

// Open implements feature.Stream
func (s *Sine) Open(ctx context.Context) ([]string, <-chan []float64, error) {
	header := []string{"value"}
	if s.timestamps {
		header = append([]string{feature.DefaultTimeLabel}, header...)
	}

	out := make(chan []float64)
	go func() {
		defer close(out)

		t0 := time.Now()
		ticker := time.NewTicker(time.Duration(float64(time.Second) / s.fps))
		defer ticker.Stop()

		for {
			t := time.Since(t0).Seconds()
			row := []float64{math.Sin(t) * s.amp}
			if s.timestamps {
				row = append([]float64{t}, row...)
			}

			select {
			case out <- row:
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return header, out, nil
}

// SineCosine is a synthetic two-column stream yielding a sine and a cosine
// of wall-clock time
type SineCosine struct {
	name       string
	fps        float64
	sinAmp     float64
	cosAmp     float64
	timestamps bool
}

// NewSineCosine creates a SineCosine stream
func NewSineCosine(name string, fps, sinAmp, cosAmp float64, timestamps bool) *SineCosine {
	return &SineCosine{name: name, fps: fps, sinAmp: sinAmp, cosAmp: cosAmp, timestamps: timestamps}
}

// Name implements feature.Stream
func (s *SineCosine) Name() string { return s.name }

// FPS implements feature.Stream
func (s *SineCosine) FPS() float64 { return s.fps }

// Open implements feature.Stream
func (s *SineCosine) Open(ctx context.Context) ([]string, <-chan []float64, error) {
	header := []string{"sin", "cos"}
	if s.timestamps {
		header = append([]string{feature.DefaultTimeLabel}, header...)
	}

	out := make(chan []float64)
	go func() {
		defer close(out)

		t0 := time.Now()
		ticker := time.NewTicker(time.Duration(float64(time.Second) / s.fps))
		defer ticker.Stop()

		for {
			t := time.Since(t0).Seconds()
			row := []float64{math.Sin(t) * s.sinAmp, math.Cos(t) * s.cosAmp}
			if s.timestamps {
				row = append([]float64{t}, row...)
			}

			select {
			case out <- row:
			case <-ctx.Done():
				return
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return header, out, nil
}

// Ensure the synthetic streams implement feature.Stream
var (
	_ feature.Stream = (*Sine)(nil)
	_ feature.Stream = (*SineCosine)(nil)
)
