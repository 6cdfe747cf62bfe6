// Package stream provides live feature sources: named-pipe CSV readers,
// growing-file tailers and synthetic generators for testing sonifications
// without an extractor.
package stream

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"panson/domain/feature"
	"panson/pkg/log"
)

// FIFO reads CSV rows from a named pipe. Opening blocks until the writing
// side connects; the stream ends when the writer closes the pipe.
type FIFO struct {
	name string
	path string
	fps  float64
}

// NewFIFO creates a FIFO stream. fps is the nominal frame rate of the
// writer, or 0 if unknown.
func NewFIFO(name, path string, fps float64) *FIFO {
	return &FIFO{name: name, path: path, fps: fps}
}

// Name implements feature.Stream
func (s *FIFO) Name() string { return s.name }

// FPS implements feature.Stream
func (s *FIFO) FPS() float64 { return s.fps }

type fifoOpen struct {
	f      *os.File
	reader *csv.Reader
	header []string
	err    error
}

// Open implements feature.Stream. Opening a pipe blocks until a writer
// connects, so the open and the header read run in a goroutine raced
// against ctx.
func (s *FIFO) Open(ctx context.Context) ([]string, <-chan []float64, error) {
	opened := make(chan fifoOpen, 1)
	go func() {
		f, err := os.Open(s.path)
		if err != nil {
			opened <- fifoOpen{err: fmt.Errorf("failed to open pipe %s: %w", s.path, err)}
			return
		}

		reader := csv.NewReader(f)
		reader.TrimLeadingSpace = true

		header, err := reader.Read()
		if err != nil {
			f.Close()
			opened <- fifoOpen{err: fmt.Errorf("failed to read header from %s: %w", s.path, err)}
			return
		}
		opened <- fifoOpen{f: f, reader: reader, header: header}
	}()

	var res fifoOpen
	select {
	case res = <-opened:
		if res.err != nil {
			return nil, nil, res.err
		}
	case <-ctx.Done():
		// Release the pipe if a writer connects after the caller gave up
		go func() {
			if late := <-opened; late.f != nil {
				late.f.Close()
			}
		}()
		return nil, nil, fmt.Errorf("waiting for a writer on pipe %s: %w", s.path, ctx.Err())
	}

	f := res.f
	reader := res.reader
	header := res.header

	out := make(chan []float64)
	go func() {
		defer close(out)
		defer f.Close()

		for {
			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				log.Logger().WithError(err).WithField("stream", s.name).Error("Failed to read row")
				return
			}

			row, err := parseRow(record)
			if err != nil {
				log.Logger().WithError(err).WithField("stream", s.name).Error("Malformed row")
				return
			}

			select {
			case out <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	return header, out, nil
}

func parseRow(record []string) ([]float64, error) {
	row := make([]float64, len(record))
	for i, cell := range record {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", i, err)
		}
		row[i] = v
	}
	return row, nil
}

// Ensure FIFO implements feature.Stream
var _ feature.Stream = (*FIFO)(nil)
