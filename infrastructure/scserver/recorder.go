package scserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"panson/domain/sonification"
	"panson/pkg/log"
)

// Recorder defaults. The record synth reads the server's output bus into
// a disk-backed buffer.
const (
	DefaultRecordSynthDef = "record-2ch"
	DefaultRecordBufNum   = int32(99)
	DefaultRecordNodeID   = int32(3000)
	recordBufferFrames    = int32(65536)
	recordChannels        = int32(2)
	addToTail             = int32(1)
)

// Recorder captures the server's audio output to a sound file using a
// disk-streaming buffer and a record synth
type Recorder struct {
	server   sonification.Server
	synthDef string
	bufNum   int32
	nodeID   int32

	mu        sync.Mutex
	recording bool
	path      string
}

// RecorderOption is a functional option for configuring Recorder
type RecorderOption func(*Recorder)

// WithRecordSynthDef sets the name of the record synth definition
func WithRecordSynthDef(name string) RecorderOption {
	return func(r *Recorder) {
		r.synthDef = name
	}
}

// WithRecordBufNum sets the buffer number used for disk streaming
func WithRecordBufNum(bufNum int32) RecorderOption {
	return func(r *Recorder) {
		r.bufNum = bufNum
	}
}

// WithRecordNodeID sets the node ID of the record synth
func WithRecordNodeID(nodeID int32) RecorderOption {
	return func(r *Recorder) {
		r.nodeID = nodeID
	}
}

// NewRecorder creates a Recorder on the given server
func NewRecorder(server sonification.Server, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		server:   server,
		synthDef: DefaultRecordSynthDef,
		bufNum:   DefaultRecordBufNum,
		nodeID:   DefaultRecordNodeID,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// headerFormatFor maps the output extension to an scsynth header format
func headerFormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".aiff", ".aif":
		return "aiff"
	default:
		return "wav"
	}
}

// Start begins recording to path. It refuses to run twice and refuses to
// overwrite an existing file unless overwrite is set.
func (r *Recorder) Start(path string, overwrite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording {
		return fmt.Errorf("recorder already running (writing %s)", r.path)
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("file %s already exists: pass overwrite to replace it", path)
		}
	}

	err := r.server.Send(
		sonification.NewMessage("/b_alloc", r.bufNum, recordBufferFrames, recordChannels),
		sonification.NewMessage("/b_write",
			r.bufNum, path, headerFormatFor(path), "int16",
			int32(0), int32(0), int32(1)), // leaveOpen for streaming
		sonification.NewMessage("/s_new",
			r.synthDef, r.nodeID, addToTail, int32(0),
			"bufnum", r.bufNum),
	)
	if err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}

	r.recording = true
	r.path = path
	log.Logger().WithField("path", path).Info("Recording started")
	return nil
}

// Stop ends the recording and closes the sound file
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.recording {
		return fmt.Errorf("recorder is not running")
	}

	err := r.server.Send(
		sonification.NewMessage("/n_free", r.nodeID),
		sonification.NewMessage("/b_close", r.bufNum),
		sonification.NewMessage("/b_free", r.bufNum),
	)
	if err != nil {
		return fmt.Errorf("failed to stop recording: %w", err)
	}

	log.Logger().WithField("path", r.path).Info("Recording stopped")
	r.recording = false
	r.path = ""
	return nil
}

// Recording reports whether the recorder is currently running
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}
