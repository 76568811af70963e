package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"emgpipe/internal/config"
	apperrors "emgpipe/internal/errors"
)

// Series holds the three selected CSV columns. Time is strictly increasing.
type Series struct {
	Time []float64
	Arm  []float64
	Leg  []float64
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.Time)
}

// MaxTime returns the last (largest) sample time, or NaN for an empty series.
func (s *Series) MaxTime() float64 {
	if len(s.Time) == 0 {
		return math.NaN()
	}
	return s.Time[len(s.Time)-1]
}

// LoadSignals reads the CSV at path. See ReadSignals.
func LoadSignals(path string, cfg config.SignalConfig) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("open csv", err)
	}
	defer f.Close()
	return ReadSignals(f, cfg)
}

// ReadSignals parses CSV text whose header sits on record cfg.HeaderRow
// (1-based, blank lines not counted), selects the time, arm and leg columns
// by exact name and parses them as floats. Fully blank data rows are skipped.
func ReadSignals(r io.Reader, cfg config.SignalConfig) (*Series, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var header []string
	for i := 0; i < cfg.HeaderRow; i++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("header row %d is past the end of the file", cfg.HeaderRow), apperrors.ErrNoData)
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read csv header", err)
		}
		header = record
	}

	columns := make([]int, 3)
	for k, name := range []string{cfg.TimeColumn, cfg.ArmColumn, cfg.LegColumn} {
		idx := indexOf(header, name)
		if idx < 0 {
			return nil, apperrors.NewParsingError(fmt.Sprintf("column %q", name), apperrors.ErrMissingColumn).
				WithContext("header", header)
		}
		columns[k] = idx
	}

	s := &Series{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read csv", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		var values [3]float64
		for k, col := range columns {
			if col >= len(record) {
				return nil, apperrors.NewParsingError(fmt.Sprintf("line %d: missing %q", line, header[col]), nil)
			}
			text := strings.TrimSpace(record[col])
			if text == "" && k > 0 {
				// blank signal cell, kept as a gap
				values[k] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, apperrors.NewParsingError(fmt.Sprintf("line %d: column %q", line, header[col]), err)
			}
			values[k] = v
		}

		if n := len(s.Time); n > 0 && values[0] <= s.Time[n-1] {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("line %d: time %g does not increase after %g", line, values[0], s.Time[n-1]), nil)
		}

		s.Time = append(s.Time, values[0])
		s.Arm = append(s.Arm, values[1])
		s.Leg = append(s.Leg, values[2])
	}

	if s.Len() == 0 {
		return nil, apperrors.NewParsingError("no samples below header", apperrors.ErrNoData)
	}
	return s, nil
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
