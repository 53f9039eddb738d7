package frame

import "errors"

// Line rejection reasons. Every parse failure wraps exactly one of these.
var (
	ErrInvalidEncoding = errors.New("line is not valid UTF-8")
	ErrMissingPrefix   = errors.New("line does not start with \"Row\"")
	ErrMalformed       = errors.New("line does not split into header and values")
	ErrBadRowIndex     = errors.New("row index is not an integer")
	ErrRowOutOfRange   = errors.New("row index out of range")
	ErrValueCount      = errors.New("wrong number of values")
	ErrBadValue        = errors.New("value is not an integer")
)

// ErrSourceFailed is returned by ReadFullSweep once the line source has
// failed more times than the retry policy allows.
var ErrSourceFailed = errors.New("line source failed")

// RejectReason returns a short stable key for a parse error, suitable for
// counters and JSON output.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrInvalidEncoding):
		return "encoding"
	case errors.Is(err, ErrMissingPrefix):
		return "prefix"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrBadRowIndex):
		return "row_index"
	case errors.Is(err, ErrRowOutOfRange):
		return "row_range"
	case errors.Is(err, ErrValueCount):
		return "value_count"
	case errors.Is(err, ErrBadValue):
		return "value"
	default:
		return "other"
	}
}
