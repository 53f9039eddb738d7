package frame

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/tactile/internal/monitoring"
	"github.com/banshee-data/tactile/internal/timeutil"
)

// LineSource is a blocking line-oriented input such as a serial port. ReadLine
// returns one line without its terminator. It should return promptly with
// ctx.Err() once ctx is done.
type LineSource interface {
	ReadLine(ctx context.Context) (string, error)
}

// ErrorHandler receives every line source failure together with the number
// of consecutive failures so far, before the reader backs off.
type ErrorHandler func(err error, attempt int)

// RetryPolicy bounds how a Reader recovers from line source failures.
type RetryPolicy struct {
	// MaxRetries is the number of consecutive failures tolerated before
	// ReadFullSweep gives up. Zero retries forever.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryPolicy retries forever, backing off from 100ms up to 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
	}
}

// Backoff returns the wait before retry number attempt (1-based). The delay
// doubles each attempt and is capped at MaxBackoff.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 || p.InitialBackoff <= 0 {
		return 0
	}
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// exhausted reports whether attempt consecutive failures exceed the policy.
func (p RetryPolicy) exhausted(attempt int) bool {
	return p.MaxRetries > 0 && attempt > p.MaxRetries
}

// ReaderConfig configures a Reader.
type ReaderConfig struct {
	Rows int
	Cols int

	// CountDistinctRows makes a sweep wait until every row index has been
	// seen. By default a sweep ends after Rows successful parses regardless
	// of which rows they carried, so a row sent twice can stand in for a row
	// that never arrived.
	CountDistinctRows bool

	Retry   RetryPolicy
	Clock   timeutil.Clock
	OnError ErrorHandler
}

// Reader assembles complete sweeps from a LineSource.
type Reader struct {
	src           LineSource
	parser        Parser
	countDistinct bool
	retry         RetryPolicy
	clock         timeutil.Clock
	onError       ErrorHandler
}

// NewReader returns a Reader over src. Zero dimensions fall back to the
// 16x4 board defaults; a nil clock uses the real clock.
func NewReader(src LineSource, cfg ReaderConfig) *Reader {
	if cfg.Rows <= 0 {
		cfg.Rows = DefaultRows
	}
	if cfg.Cols <= 0 {
		cfg.Cols = DefaultCols
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Reader{
		src:           src,
		parser:        NewParser(cfg.Rows, cfg.Cols),
		countDistinct: cfg.CountDistinctRows,
		retry:         cfg.Retry,
		clock:         cfg.Clock,
		onError:       cfg.OnError,
	}
}

// Rows returns the number of rows in a sweep.
func (r *Reader) Rows() int { return r.parser.Rows }

// Cols returns the number of readings per row.
func (r *Reader) Cols() int { return r.parser.Cols }

// SweepStats describes one ReadFullSweep call.
type SweepStats struct {
	LinesRead     int            `json:"lines_read"`
	ValidLines    int            `json:"valid_lines"`
	Rejected      map[string]int `json:"rejected,omitempty"`
	RowsRefreshed int            `json:"rows_refreshed"`
	IOErrors      int            `json:"io_errors"`
	Duration      time.Duration  `json:"duration_ns"`
}

// RejectedLines returns the total number of lines that failed to parse.
func (s SweepStats) RejectedLines() int {
	n := 0
	for _, c := range s.Rejected {
		n += c
	}
	return n
}

func (s *SweepStats) reject(err error) {
	if s.Rejected == nil {
		s.Rejected = make(map[string]int)
	}
	s.Rejected[RejectReason(err)]++
}

// ReadFullSweep blocks until a full sweep has been written into m. Lines that
// fail to parse are skipped without counting towards the sweep, and there is
// no cap on how many may be skipped. Source failures are reported and retried
// according to the retry policy.
//
// On error, rows parsed before the failure remain written in m, each of them
// complete, but the sweep itself is unfinished.
func (r *Reader) ReadFullSweep(ctx context.Context, m *Matrix) (SweepStats, error) {
	var stats SweepStats
	if m.Rows() != r.parser.Rows || m.Cols() != r.parser.Cols {
		return stats, fmt.Errorf("frame: matrix is %dx%d, reader expects %dx%d",
			m.Rows(), m.Cols(), r.parser.Rows, r.parser.Cols)
	}

	start := r.clock.Now()
	seen := make([]bool, r.parser.Rows)
	parsed, distinct, failures := 0, 0, 0

	for !r.complete(parsed, distinct) {
		line, err := r.src.ReadLine(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return stats, ctxErr
			}
			failures++
			stats.IOErrors++
			r.report(err, failures)
			if r.retry.exhausted(failures) {
				return stats, fmt.Errorf("%w after %d attempts: %w", ErrSourceFailed, failures, err)
			}
			if err := timeutil.Sleep(ctx, r.clock, r.retry.Backoff(failures)); err != nil {
				return stats, err
			}
			continue
		}
		failures = 0
		stats.LinesRead++

		reading, err := r.parser.Parse(line)
		if err != nil {
			stats.reject(err)
			monitoring.Debugf("frame: skipping line %q: %v", line, err)
			continue
		}
		if err := m.SetRow(reading.Row, reading.Values); err != nil {
			// Parse already enforces the shape.
			return stats, err
		}

		stats.ValidLines++
		parsed++
		if !seen[reading.Row] {
			seen[reading.Row] = true
			distinct++
		}
	}

	stats.RowsRefreshed = distinct
	stats.Duration = r.clock.Since(start)
	return stats, nil
}

func (r *Reader) complete(parsed, distinct int) bool {
	if r.countDistinct {
		return distinct >= r.parser.Rows
	}
	return parsed >= r.parser.Rows
}

func (r *Reader) report(err error, attempt int) {
	monitoring.Logf("frame: line source error (attempt %d): %v", attempt, err)
	if r.onError != nil {
		r.onError(err, attempt)
	}
}
