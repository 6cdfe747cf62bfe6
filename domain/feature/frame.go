package feature

import "fmt"

// Frame is one row of feature values bound to a header
type Frame struct {
	header Header
	values []float64
}

// NewFrame creates a Frame; the value count must match the header width
func NewFrame(header Header, values []float64) (Frame, error) {
	if len(values) != len(header) {
		return Frame{}, fmt.Errorf("frame has %d values for %d columns", len(values), len(header))
	}
	return Frame{header: header, values: values}, nil
}

// Header returns the frame's header
func (f Frame) Header() Header {
	return f.header
}

// Values returns the frame's values in header order
func (f Frame) Values() []float64 {
	return f.values
}

// Value returns the value of the named column
func (f Frame) Value(column string) (float64, error) {
	i, ok := f.header.Index(column)
	if !ok {
		return 0, fmt.Errorf("frame has no column %q", column)
	}
	return f.values[i], nil
}

// SetValue overwrites the value of the named column in place
func (f Frame) SetValue(column string, v float64) error {
	i, ok := f.header.Index(column)
	if !ok {
		return fmt.Errorf("frame has no column %q", column)
	}
	f.values[i] = v
	return nil
}

// Append returns a new frame with an extra column appended
func (f Frame) Append(column string, v float64) (Frame, error) {
	header, err := f.header.Extend(column)
	if err != nil {
		return Frame{}, err
	}
	values := make([]float64, 0, len(f.values)+1)
	values = append(values, f.values...)
	values = append(values, v)
	return Frame{header: header, values: values}, nil
}
