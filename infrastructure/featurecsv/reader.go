// Package featurecsv reads and writes feature data as CSV, the interchange
// format of the extraction tool.
package featurecsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"panson/domain/feature"
)

// LoadRecording reads a feature CSV into a Recording. The extraction tool
// pads cells with spaces, so leading whitespace is trimmed. fps and
// timeLabel select the timing mode, as in feature.NewRecording.
func LoadRecording(path string, fps float64, timeLabel string) (*feature.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feature file %s: %w", path, err)
	}
	defer f.Close()

	header, rows, err := readAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature file %s: %w", path, err)
	}

	rec, err := feature.NewRecording(header, rows, fps, timeLabel)
	if err != nil {
		return nil, fmt.Errorf("feature file %s: %w", path, err)
	}
	return rec, nil
}

func readAll(r io.Reader) (feature.Header, [][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	rawHeader, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	header, err := feature.NewHeader(rawHeader)
	if err != nil {
		return nil, nil, err
	}

	var rows [][]float64
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}

		row := make([]float64, len(record))
		for i, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("line %d, column %s: %w", line, header[i], err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	return header, rows, nil
}
