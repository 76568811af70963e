package sylk

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	apperrors "emgpipe/internal/errors"
)

// Sheet is the cell grid of one SYLK document. Coordinates are 1-based.
type Sheet struct {
	cells  map[cell]string
	MaxRow int
	MaxCol int
}

type cell struct{ row, col int }

// Value returns the text at row, col or "" if the cell is empty.
func (s *Sheet) Value(row, col int) string {
	return s.cells[cell{row, col}]
}

// Len returns the number of populated cells.
func (s *Sheet) Len() int {
	return len(s.cells)
}

// Rows returns the dense grid, MaxRow rows of MaxCol columns.
func (s *Sheet) Rows() [][]string {
	rows := make([][]string, s.MaxRow)
	for r := range rows {
		rows[r] = make([]string, s.MaxCol)
		for c := range rows[r] {
			rows[r][c] = s.cells[cell{r + 1, c + 1}]
		}
	}
	return rows
}

func (s *Sheet) set(row, col int, v string) {
	s.cells[cell{row, col}] = v
	if row > s.MaxRow {
		s.MaxRow = row
	}
	if col > s.MaxCol {
		s.MaxCol = col
	}
}

// Decode reads a SYLK document. Only cell values are kept: ID must be the
// first record, C records place values, F records may move the cursor, E ends
// the document and every other record type is ignored.
func Decode(r io.Reader) (*Sheet, error) {
	sheet := &Sheet{cells: make(map[cell]string)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		sawID    bool
		row, col int
		lineNo   int
	)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		fields := splitFields(line)
		kind := fields[0]

		if !sawID {
			if kind != "ID" {
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("line %d: first record is %q", lineNo, kind), apperrors.ErrNotSYLK)
			}
			sawID = true
			continue
		}

		switch kind {
		case "E":
			return sheet, nil
		case "C", "F":
			var value *string
			for _, f := range fields[1:] {
				if f == "" {
					continue
				}
				switch f[0] {
				case 'X':
					n, err := coordinate(f[1:])
					if err != nil {
						return nil, apperrors.NewParsingError(fmt.Sprintf("line %d: bad column", lineNo), err)
					}
					col = n
				case 'Y':
					n, err := coordinate(f[1:])
					if err != nil {
						return nil, apperrors.NewParsingError(fmt.Sprintf("line %d: bad row", lineNo), err)
					}
					row = n
				case 'K':
					if kind == "C" {
						v := unquote(f[1:])
						value = &v
					}
				}
			}
			if value == nil {
				continue
			}
			if row == 0 || col == 0 {
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("line %d: cell value before any X/Y position", lineNo), nil)
			}
			sheet.set(row, col, *value)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewParsingError("read SYLK", err)
	}
	if !sawID {
		return nil, apperrors.NewParsingError("empty document", apperrors.ErrNotSYLK)
	}

	// A missing E record is tolerated; many exporters truncate it.
	return sheet, nil
}

// splitFields splits a record on ';', treating ";;" as a literal semicolon.
func splitFields(line string) []string {
	var (
		fields []string
		b      strings.Builder
	)
	for i := 0; i < len(line); i++ {
		if line[i] != ';' {
			b.WriteByte(line[i])
			continue
		}
		if i+1 < len(line) && line[i+1] == ';' {
			b.WriteByte(';')
			i++
			continue
		}
		fields = append(fields, b.String())
		b.Reset()
	}
	return append(fields, b.String())
}

func coordinate(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("coordinate %d out of range", n)
	}
	return n, nil
}

func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		return v[1 : len(v)-1]
	}
	if len(v) == 1 && v[0] == '"' {
		return ""
	}
	return v
}
