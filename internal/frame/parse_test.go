package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_RoundTrip(t *testing.T) {
	p := NewParser(DefaultRows, DefaultCols)
	cases := []Reading{
		{Row: 0, Values: []int{0, 0, 0, 0}},
		{Row: 7, Values: []int{12, 30000, 45000, 1}},
		{Row: 15, Values: []int{-5, 3, -2147483648, 2147483647}},
	}
	for _, want := range cases {
		line := FormatLine(want)
		got, err := p.Parse(line)
		require.NoError(t, err, "line %q", line)
		assert.Equal(t, want, got)
	}
}

func TestParser_ToleratesWhitespace(t *testing.T) {
	p := NewParser(DefaultRows, DefaultCols)

	for _, line := range []string{
		"Row 2: 1 2 3 4\r\n",
		"  Row 2:1 2 3 4  ",
		"Row 2 :  1\t2  3 4",
		"Row   2: 1 2 3 4\n",
	} {
		got, err := p.Parse(line)
		require.NoError(t, err, "line %q", line)
		assert.Equal(t, Reading{Row: 2, Values: []int{1, 2, 3, 4}}, got, "line %q", line)
	}
}

func TestParser_HeaderExtraTokensIgnored(t *testing.T) {
	got, err := NewParser(DefaultRows, DefaultCols).Parse("Row 4 left: 9 9 9 9")
	require.NoError(t, err)
	assert.Equal(t, 4, got.Row)
}

func TestParser_RejectionSet(t *testing.T) {
	p := NewParser(DefaultRows, DefaultCols)

	tests := []struct {
		name string
		line string
		want error
	}{
		{"empty", "", ErrMissingPrefix},
		{"garbage", "garbage", ErrMissingPrefix},
		{"lowercase prefix", "row 1: 1 2 3 4", ErrMissingPrefix},
		{"leading text", "Data Row 1: 1 2 3 4", ErrMissingPrefix},
		{"missing colon", "Row 1 1 2 3 4", ErrMalformed},
		{"two colons", "Row 1: 1 2: 3 4", ErrMalformed},
		{"no index", "Row: 1 2 3 4", ErrBadRowIndex},
		{"glued index", "Row1: 1 2 3 4", ErrBadRowIndex},
		{"non-numeric index", "Row x: 1 2 3 4", ErrBadRowIndex},
		{"negative index", "Row -1: 1 2 3 4", ErrRowOutOfRange},
		{"index too large", "Row 16: 1 2 3 4", ErrRowOutOfRange},
		{"too few values", "Row 1: 1 2 3", ErrValueCount},
		{"too many values", "Row 1: 1 2 3 4 5", ErrValueCount},
		{"no values", "Row 1:", ErrValueCount},
		{"float value", "Row 1: 1 2.5 3 4", ErrBadValue},
		{"word value", "Row 1: 1 two 3 4", ErrBadValue},
		{"invalid utf8", "Row 1: 1 2 3 \xff", ErrInvalidEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.line)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParser_CustomShape(t *testing.T) {
	p := NewParser(2, 3)

	got, err := p.Parse("Row 1: 7 8 9")
	require.NoError(t, err)
	assert.Equal(t, []int{7, 8, 9}, got.Values)

	_, err = p.Parse("Row 2: 7 8 9")
	assert.ErrorIs(t, err, ErrRowOutOfRange)

	_, err = p.Parse("Row 0: 1 2 3 4")
	assert.ErrorIs(t, err, ErrValueCount)
}

func TestRejectReason(t *testing.T) {
	p := NewParser(DefaultRows, DefaultCols)
	reasons := map[string]string{
		"nope":               "prefix",
		"Row 1 2 3 4 5":      "malformed",
		"Row z: 1 2 3 4":     "row_index",
		"Row 99: 1 2 3 4":    "row_range",
		"Row 1: 1 2":         "value_count",
		"Row 1: a b c d":     "value",
		"Row 1: 1 2 3 4\xfe": "encoding",
	}
	for line, want := range reasons {
		_, err := p.Parse(line)
		assert.Equal(t, want, RejectReason(err), "line %q", line)
	}
	assert.Equal(t, "other", RejectReason(assert.AnError))
}
