package render

import (
	"fmt"
	"strings"
)

// Defaults for non-realtime rendering
const (
	DefaultSampleRate   = 44100
	DefaultHeaderFormat = "AIFF"
	DefaultSampleFormat = "int16"
	DefaultEndDelay     = 0.1
)

// headerFormats maps supported sound file header formats to extensions
var headerFormats = map[string]string{
	"AIFF": "aiff",
	"WAV":  "wav",
}

// sampleFormats lists supported sample encodings
var sampleFormats = map[string]bool{
	"int16": true,
	"int24": true,
	"int32": true,
	"float": true,
}

// Request describes a non-realtime render of a sonification
type Request struct {
	OutputPath   string  // output path without extension
	SampleRate   int
	HeaderFormat string  // AIFF or WAV
	SampleFormat string  // int16, int24, int32 or float
	Rate         float64 // playback rate of the rendering, > 0
	EndDelay     float64 // tail added after the last frame, seconds
}

// NewRequest creates a Request with defaults applied
func NewRequest(outputPath string) *Request {
	return &Request{
		OutputPath:   outputPath,
		SampleRate:   DefaultSampleRate,
		HeaderFormat: DefaultHeaderFormat,
		SampleFormat: DefaultSampleFormat,
		Rate:         1,
		EndDelay:     DefaultEndDelay,
	}
}

// Validate checks that the render request is usable
func (r *Request) Validate() error {
	if r.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if r.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive")
	}
	if _, ok := headerFormats[strings.ToUpper(r.HeaderFormat)]; !ok {
		return fmt.Errorf("unsupported header format %q: must be AIFF or WAV", r.HeaderFormat)
	}
	if !sampleFormats[r.SampleFormat] {
		return fmt.Errorf("unsupported sample format %q: must be int16, int24, int32 or float", r.SampleFormat)
	}
	if r.Rate <= 0 {
		return fmt.Errorf("rate must be positive")
	}
	if r.EndDelay < 0 {
		return fmt.Errorf("end delay must not be negative")
	}
	return nil
}

// OutputFile returns the output path with the header format extension
func (r *Request) OutputFile() string {
	return r.OutputPath + "." + headerFormats[strings.ToUpper(r.HeaderFormat)]
}
