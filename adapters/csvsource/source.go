package csvsource

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"venturi/domain/core"
	"venturi/domain/signal"
	"venturi/internal/errors"
	"venturi/ports"
)

// Source replays recorded samples from a CSV file. Row format: RFC 3339
// timestamp in the first column, one float per channel after it. Header
// rows that fail to parse as a timestamp are skipped.
type Source struct {
	file   *os.File
	reader *csv.Reader
}

var _ ports.SampleSource = (*Source)(nil)

// Open opens a CSV recording for replay
func Open(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sample recording")
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return &Source{file: f, reader: r}, nil
}

// Next returns the next recorded sample, or io.EOF at end of file
func (s *Source) Next(ctx context.Context) (signal.Sample, error) {
	for {
		if err := ctx.Err(); err != nil {
			return signal.Sample{}, err
		}

		row, err := s.reader.Read()
		if err != nil {
			if err == io.EOF {
				return signal.Sample{}, io.EOF
			}
			return signal.Sample{}, errors.Wrap(err, "malformed sample row")
		}
		if len(row) < 2 {
			continue
		}

		ts, err := time.Parse(time.RFC3339Nano, row[0])
		if err != nil {
			// Header or comment row
			continue
		}

		values := make([]float64, len(row)-1)
		ok := true
		for i, field := range row[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			values[i] = v
		}
		if !ok {
			continue
		}
		return signal.Sample{Timestamp: core.NewTimestamp(ts), Values: values}, nil
	}
}

// Close releases the underlying file
func (s *Source) Close() error {
	return s.file.Close()
}
