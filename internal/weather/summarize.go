package weather

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMalformedInput is returned when a forecast record is missing fields,
	// has wrongly typed fields or has fewer than SummaryLength entries.
	ErrMalformedInput = errors.New("malformed forecast record")

	// ErrUnknownTimeLabel is returned when an entry's time of day has no
	// label in the configured table.
	ErrUnknownTimeLabel = errors.New("unknown forecast time of day")
)

var validate = validator.New()

// Summarizer turns a forecast record into the dashboard's five-slot summary.
// It holds no mutable state and is safe for concurrent use.
type Summarizer struct {
	labels TimeLabelTable
}

// NewSummarizer creates a Summarizer resolving times through labels.
func NewSummarizer(labels TimeLabelTable) *Summarizer {
	return &Summarizer{labels: labels}
}

// Labels returns the table the summarizer resolves times with.
func (s *Summarizer) Labels() TimeLabelTable {
	return s.labels
}

// Summarize summarizes the first SummaryLength entries of rec, in order.
// Entries past that are neither read nor validated.
func (s *Summarizer) Summarize(rec ForecastRecord) ([]Summary, error) {
	if len(rec.List) < SummaryLength {
		return nil, fmt.Errorf("%w: list has %d entries, need at least %d", ErrMalformedInput, len(rec.List), SummaryLength)
	}

	out := make([]Summary, 0, SummaryLength)
	for i, entry := range rec.List[:SummaryLength] {
		sum, err := s.summarizeEntry(entry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, sum)
	}
	return out, nil
}

func (s *Summarizer) summarizeEntry(e ForecastEntry) (Summary, error) {
	if err := validate.Struct(e); err != nil {
		return Summary{}, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}

	temp, ok := toInt(*e.Main.Temp)
	if !ok {
		return Summary{}, fmt.Errorf("%w: temperature %v is not a finite number in range", ErrMalformedInput, *e.Main.Temp)
	}

	ts := *e.DtTxt
	if len(ts) < 8 {
		return Summary{}, fmt.Errorf("%w: timestamp %q shorter than 8 characters", ErrMalformedInput, ts)
	}
	label, err := s.labels.Label(ts[len(ts)-8:])
	if err != nil {
		return Summary{}, err
	}

	return Summary{
		Temperature: temp,
		Label:       label,
		Icon:        ClassifyIcon(int(*e.Weather[0].ID)),
	}, nil
}
