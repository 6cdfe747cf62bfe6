//go:build capture

package capture

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"panson/pkg/log"
)

// Recorder grabs frames from a camera device and writes them to a video
// file alongside a frame-timestamp CSV, so raw video can be aligned with
// logged feature data afterwards.
type Recorder struct {
	device   int
	prefix   string
	autoEnum bool

	capture *gocv.VideoCapture
	width   int
	height  int
	fps     float64

	mu         sync.Mutex
	writer     *gocv.VideoWriter
	videoName  string
	t0         time.Time
	frameCount int
	frameTimes [][2]float64
	runCounter int

	stop     chan struct{}
	finished chan struct{}
}

// RecorderOption is a functional option for configuring Recorder
type RecorderOption func(*Recorder)

// WithFilePrefix sets the output file prefix (default "take")
func WithFilePrefix(prefix string) RecorderOption {
	return func(r *Recorder) {
		r.prefix = prefix
	}
}

// WithAutoEnumerate toggles numbered output files (default on)
func WithAutoEnumerate(on bool) RecorderOption {
	return func(r *Recorder) {
		r.autoEnum = on
	}
}

// NewRecorder opens the camera device and starts the grab loop. Frames
// are discarded until Record is called.
func NewRecorder(device int, opts ...RecorderOption) (*Recorder, error) {
	r := &Recorder{
		device:   device,
		prefix:   "take",
		autoEnum: true,
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.autoEnum {
		// Resume numbering after any takes from earlier runs
		r.runCounter = nextCounter(r.prefix)
	}

	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera device %d: %w", device, err)
	}

	r.capture = capture
	r.width = int(capture.Get(gocv.VideoCaptureFrameWidth))
	r.height = int(capture.Get(gocv.VideoCaptureFrameHeight))
	r.fps = capture.Get(gocv.VideoCaptureFPS)

	log.Logger().WithFields(log.Fields{
		"device": device,
		"width":  r.width,
		"height": r.height,
		"fps":    r.fps,
	}).Info("Camera opened")

	go r.grabLoop()

	return r, nil
}

func (r *Recorder) grabLoop() {
	defer close(r.finished)

	img := gocv.NewMat()
	defer img.Close()

	for {
		select {
		case <-r.stop:
			return
		default:
		}

		if ok := r.capture.Read(&img); !ok {
			log.Logger().WithField("device", r.device).Error("Camera read failed")
			return
		}
		if img.Empty() {
			continue
		}

		r.mu.Lock()
		if r.writer != nil {
			t := time.Since(r.t0).Seconds()
			r.frameTimes = append(r.frameTimes, [2]float64{float64(r.frameCount), t})
			r.frameCount++
			if err := r.writer.Write(img); err != nil {
				log.Logger().WithError(err).Error("Failed to write video frame")
			}
		}
		r.mu.Unlock()
	}
}

// Record starts writing frames to the next output file. It returns the
// capture start time so other recorders can be aligned to it.
func (r *Recorder) Record() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer != nil {
		return time.Time{}, fmt.Errorf("already recording to %s", r.videoName)
	}

	name := outputName(r.prefix, r.runCounter, r.autoEnum)
	if r.autoEnum {
		r.runCounter++
	}

	writer, err := gocv.VideoWriterFile(name, "XVID", r.fps, r.width, r.height, true)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to create video writer for %s: %w", name, err)
	}

	r.writer = writer
	r.videoName = name
	r.frameCount = 0
	r.frameTimes = nil
	r.t0 = time.Now()

	log.Logger().WithField("path", name).Info("Video recording started")
	return r.t0, nil
}

// Stop ends the current take, releasing the video file and writing the
// frame-timestamp CSV next to it.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.writer == nil {
		return fmt.Errorf("recorder is not recording")
	}

	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close video writer: %w", err)
	}
	r.writer = nil

	if err := writeFrameTimes(frameTimesName(r.videoName), r.frameTimes); err != nil {
		return err
	}

	log.Logger().WithFields(log.Fields{
		"path":   r.videoName,
		"frames": r.frameCount,
	}).Info("Video recording stopped")
	r.videoName = ""
	return nil
}

// Recording reports whether a take is in progress
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer != nil
}

// Close stops the grab loop and releases the camera. An in-progress take
// is stopped first.
func (r *Recorder) Close() error {
	if r.Recording() {
		if err := r.Stop(); err != nil {
			return err
		}
	}

	close(r.stop)
	<-r.finished
	return r.capture.Close()
}

func writeFrameTimes(path string, frameTimes [][2]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame-time file %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"frame", "timestamp"}); err != nil {
		return err
	}
	for _, ft := range frameTimes {
		record := []string{
			strconv.Itoa(int(ft[0])),
			strconv.FormatFloat(ft[1], 'g', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
