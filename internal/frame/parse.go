package frame

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

const linePrefix = "Row"

// Reading is one successfully parsed protocol line.
type Reading struct {
	Row    int
	Values []int
}

// Parser validates protocol lines against a fixed grid shape.
type Parser struct {
	Rows int
	Cols int
}

// NewParser returns a parser for a rows x cols grid.
func NewParser(rows, cols int) Parser {
	return Parser{Rows: rows, Cols: cols}
}

// Parse decodes a single line of the form "Row <r>: <v0> ... <vN>". Leading
// and trailing whitespace, including line terminators, is ignored. Any
// deviation from the expected shape yields an error wrapping one of the
// package's rejection sentinels.
func (p Parser) Parse(line string) (Reading, error) {
	if !utf8.ValidString(line) {
		return Reading{}, ErrInvalidEncoding
	}
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, linePrefix) {
		return Reading{}, ErrMissingPrefix
	}

	parts := strings.Split(line, ":")
	if len(parts) != 2 {
		return Reading{}, fmt.Errorf("%w: %d colon-separated parts", ErrMalformed, len(parts))
	}

	// The index is the second whitespace token of the header, so "Row 3" and
	// "Row 3 extra" both name row 3 while "Row3" has no index at all.
	header := strings.Fields(parts[0])
	if len(header) < 2 {
		return Reading{}, fmt.Errorf("%w: missing index in %q", ErrBadRowIndex, parts[0])
	}
	row, err := strconv.Atoi(header[1])
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %q", ErrBadRowIndex, header[1])
	}

	tokens := strings.Fields(parts[1])
	values := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.Atoi(tok)
		if err != nil {
			return Reading{}, fmt.Errorf("%w: %q", ErrBadValue, tok)
		}
		values = append(values, v)
	}
	if len(values) != p.Cols {
		return Reading{}, fmt.Errorf("%w: got %d, want %d", ErrValueCount, len(values), p.Cols)
	}

	if row < 0 || row >= p.Rows {
		return Reading{}, fmt.Errorf("%w: %d not in [0, %d)", ErrRowOutOfRange, row, p.Rows)
	}

	return Reading{Row: row, Values: values}, nil
}

// FormatLine renders a reading in the wire format understood by Parse.
func FormatLine(r Reading) string {
	var b strings.Builder
	b.WriteString(linePrefix)
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(r.Row))
	b.WriteByte(':')
	for _, v := range r.Values {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
