package stream

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"panson/domain/feature"
	"panson/pkg/log"
)

// DefaultPollInterval is how often Tail re-checks a file that has no new
// complete lines
const DefaultPollInterval = 20 * time.Millisecond

// Tail follows a CSV file that another process is appending to, such as
// the realtime extractor's output. Partial trailing lines are held back
// until their newline arrives.
type Tail struct {
	name string
	path string
	fps  float64
	poll time.Duration
}

// TailOption is a functional option for configuring Tail
type TailOption func(*Tail)

// WithPollInterval sets how often the tailer re-reads at end of file
func WithPollInterval(d time.Duration) TailOption {
	return func(t *Tail) {
		t.poll = d
	}
}

// NewTail creates a Tail stream over the file at path
func NewTail(name, path string, fps float64, opts ...TailOption) *Tail {
	t := &Tail{name: name, path: path, fps: fps, poll: DefaultPollInterval}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Name implements feature.Stream
func (t *Tail) Name() string { return t.name }

// FPS implements feature.Stream
func (t *Tail) FPS() float64 { return t.fps }

// Open implements feature.Stream. It waits for the file to appear and for
// its header line, then follows appended rows until ctx is cancelled.
func (t *Tail) Open(ctx context.Context) ([]string, <-chan []float64, error) {
	f, err := t.waitForFile(ctx)
	if err != nil {
		return nil, nil, err
	}

	reader := bufio.NewReader(f)

	headerLine, err := t.readLine(ctx, reader)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to read header from %s: %w", t.path, err)
	}
	header, err := parseCSVLine(headerLine)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("malformed header in %s: %w", t.path, err)
	}

	out := make(chan []float64)
	go func() {
		defer close(out)
		defer f.Close()

		for {
			line, err := t.readLine(ctx, reader)
			if err != nil {
				return
			}

			record, err := parseCSVLine(line)
			if err != nil {
				log.Logger().WithError(err).WithField("stream", t.name).Error("Malformed row")
				return
			}
			row, err := parseRow(record)
			if err != nil {
				log.Logger().WithError(err).WithField("stream", t.name).Error("Malformed row")
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

func (t *Tail) waitForFile(ctx context.Context) (*os.File, error) {
	for {
		f, err := os.Open(t.path)
		if err == nil {
			return f, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to open %s: %w", t.path, err)
		}

		select {
		case <-time.After(t.poll):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// readLine returns the next complete line, polling at end of file until
// one arrives or ctx is cancelled
func (t *Tail) readLine(ctx context.Context, reader *bufio.Reader) (string, error) {
	var partial strings.Builder
	for {
		chunk, err := reader.ReadString('\n')
		partial.WriteString(chunk)

		if err == nil {
			return strings.TrimRight(partial.String(), "\r\n"), nil
		}
		if err != io.EOF {
			return "", err
		}

		select {
		case <-time.After(t.poll):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func parseCSVLine(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.TrimLeadingSpace = true
	return reader.Read()
}

// Ensure Tail implements feature.Stream
var _ feature.Stream = (*Tail)(nil)
