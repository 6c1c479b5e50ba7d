// Package ingest decodes the extractor's readings payload and rejects
// malformed input at the boundary. Noisy-but-well-formed data passes through;
// structural violations do not.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pable/go-smash-coach/internal/model"
)

// ErrMalformed marks input that violates the extraction contract. Callers
// should not retry with the same payload.
var ErrMalformed = errors.New("malformed input")

// ReadFile decodes and validates a readings file.
func ReadFile(path string) (*model.MatchInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening readings file: %w", err)
	}
	defer f.Close()
	in, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return in, nil
}

// Read decodes and validates a readings stream.
func Read(r io.Reader) (*model.MatchInput, error) {
	var in model.MatchInput
	dec := json.NewDecoder(r)
	if err := dec.Decode(&in); err != nil {
		return nil, fmt.Errorf("%w: decoding readings: %v", ErrMalformed, err)
	}
	if err := Validate(&in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Validate checks the structural contract: non-empty stream, strictly
// non-decreasing timestamps, non-negative values, confidence in [0,1].
func Validate(in *model.MatchInput) error {
	if len(in.Readings) == 0 {
		return fmt.Errorf("%w: empty readings stream", ErrMalformed)
	}
	prev := -1.0
	for i, r := range in.Readings {
		if r.Timestamp < 0 {
			return fmt.Errorf("%w: reading %d has negative timestamp %g", ErrMalformed, i, r.Timestamp)
		}
		if r.Timestamp < prev {
			return fmt.Errorf("%w: reading %d timestamp %g precedes %g", ErrMalformed, i, r.Timestamp, prev)
		}
		prev = r.Timestamp
		for p, pr := range r.Players {
			if pr.Confidence < 0 || pr.Confidence > 1 {
				return fmt.Errorf("%w: reading %d player %d confidence %g outside [0,1]", ErrMalformed, i, p+1, pr.Confidence)
			}
			if pr.Percent != nil && *pr.Percent < 0 {
				return fmt.Errorf("%w: reading %d player %d negative percent %g", ErrMalformed, i, p+1, *pr.Percent)
			}
			if pr.Stocks != nil && *pr.Stocks < 0 {
				return fmt.Errorf("%w: reading %d player %d negative stocks %d", ErrMalformed, i, p+1, *pr.Stocks)
			}
		}
	}
	return nil
}
