// Package dashboard drives the tactile sensor display: it owns the sensor
// matrix and the selected row, runs the refresh loop that pulls sweeps from a
// frame.Reader, and pushes each completed sweep to the attached render sinks.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/tactile/internal/frame"
	"github.com/banshee-data/tactile/internal/monitoring"
	"github.com/banshee-data/tactile/internal/timeutil"
)

// ErrInvalidRow is returned when a row selection falls outside the matrix.
var ErrInvalidRow = errors.New("invalid row")

// DefaultRefreshPeriod is the delay between refresh cycles.
const DefaultRefreshPeriod = 100 * time.Millisecond

// Mode selects how acquisition is scheduled against rendering.
type Mode string

const (
	// ModeBackground reads sweeps back to back on a dedicated goroutine and
	// renders the freshest completed sweep on every tick.
	ModeBackground Mode = "background"
	// ModeInline reads a sweep, renders it, then waits one period. A slow
	// sweep delays the next cycle.
	ModeInline Mode = "inline"
)

// ParseMode parses an acquisition mode name. The empty string selects
// ModeBackground.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeBackground:
		return ModeBackground, nil
	case ModeInline:
		return ModeInline, nil
	}
	return "", fmt.Errorf("unknown acquisition mode %q (want %q or %q)", s, ModeBackground, ModeInline)
}

// Config configures a Dashboard.
type Config struct {
	Reader *frame.Reader
	Sinks  []Sink
	Range  DisplayRange
	Period time.Duration
	Mode   Mode
	Clock  timeutil.Clock
}

// Totals accumulates sweep statistics over the life of a Dashboard.
type Totals struct {
	Sweeps        int            `json:"sweeps"`
	FailedSweeps  int            `json:"failed_sweeps"`
	LinesRead     int            `json:"lines_read"`
	ValidLines    int            `json:"valid_lines"`
	Rejected      map[string]int `json:"rejected"`
	IOErrors      int            `json:"io_errors"`
	LastError     string         `json:"last_error,omitempty"`
	LastSweepTime time.Duration  `json:"last_sweep_ns"`
}

// Dashboard holds the displayed sensor state.
type Dashboard struct {
	reader  *frame.Reader
	rng     DisplayRange
	period  time.Duration
	mode    Mode
	clock   timeutil.Clock
	session uuid.UUID

	selected atomic.Int64

	// work is written by whichever goroutine is acquiring sweeps.
	work   *frame.Matrix
	latest *frame.Latest

	// mu guards the rendered state and the sinks.
	mu    sync.Mutex
	view  *frame.Matrix
	shown frame.Frame
	sinks MultiSink

	totalsMu sync.Mutex
	totals   Totals
}

// New returns a Dashboard showing an all-zero matrix with row 0 selected.
func New(cfg Config) (*Dashboard, error) {
	if cfg.Reader == nil {
		return nil, errors.New("dashboard: reader is required")
	}
	if cfg.Range == (DisplayRange{}) {
		cfg.Range = DefaultDisplayRange()
	}
	if err := cfg.Range.Validate(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultRefreshPeriod
	}
	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}

	rows, cols := cfg.Reader.Rows(), cfg.Reader.Cols()
	d := &Dashboard{
		reader:  cfg.Reader,
		rng:     cfg.Range,
		period:  cfg.Period,
		mode:    mode,
		clock:   cfg.Clock,
		session: uuid.New(),
		work:    frame.NewMatrix(rows, cols),
		latest:  frame.NewLatest(),
		view:    frame.NewMatrix(rows, cols),
		sinks:   append(MultiSink(nil), cfg.Sinks...),
		totals:  Totals{Rejected: make(map[string]int)},
	}
	d.shown = frame.Frame{Session: d.session, CapturedAt: d.clock.Now()}
	return d, nil
}

// Rows returns the number of matrix rows.
func (d *Dashboard) Rows() int { return d.view.Rows() }

// Cols returns the number of matrix columns.
func (d *Dashboard) Cols() int { return d.view.Cols() }

// Range returns the display range.
func (d *Dashboard) Range() DisplayRange { return d.rng }

// Mode returns the acquisition mode.
func (d *Dashboard) Mode() Mode { return d.mode }

// Period returns the refresh period.
func (d *Dashboard) Period() time.Duration { return d.period }

// Session identifies this Dashboard's acquisition run.
func (d *Dashboard) Session() uuid.UUID { return d.session }

// AddSink attaches s and brings it up to date with the current display.
func (d *Dashboard) AddSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
	row := int(d.selected.Load())
	s.SetSelectedRowTitle(row)
	pushMatrix(s, d.view, d.rng, row)
}

// Selected returns the selected row.
func (d *Dashboard) Selected() int {
	return int(d.selected.Load())
}

// SelectRow makes row the selected row. It retitles the line plot and
// redraws it from the last rendered matrix; matrix contents are untouched.
// An out-of-range row is reported and leaves the selection unchanged.
func (d *Dashboard) SelectRow(row int) error {
	if row < 0 || row >= d.Rows() {
		err := fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidRow, row, d.Rows())
		monitoring.Logf("dashboard: %v", err)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.selected.Store(int64(row))
	d.sinks.SetSelectedRowTitle(row)
	d.sinks.SetLinePlot(row, d.view.Row(row))
	return nil
}

// Snapshot returns the most recently rendered frame. Seq is zero until the
// first sweep has been rendered, in which case the matrix is all zeros.
func (d *Dashboard) Snapshot() frame.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.shown
	f.Matrix = d.view.Clone()
	return f
}

// Totals returns a copy of the accumulated sweep statistics.
func (d *Dashboard) Totals() Totals {
	d.totalsMu.Lock()
	defer d.totalsMu.Unlock()
	t := d.totals
	t.Rejected = make(map[string]int, len(d.totals.Rejected))
	for k, v := range d.totals.Rejected {
		t.Rejected[k] = v
	}
	return t
}

// RefreshCycle reads one full sweep and renders it: the heatmap with its
// cell labels, then the selected row's line plot. It must not be called
// concurrently with itself or with Run.
func (d *Dashboard) RefreshCycle(ctx context.Context) error {
	f, err := d.acquireOnce(ctx)
	if err != nil {
		return err
	}
	d.render(f)
	return nil
}

// Run drives refresh cycles until ctx is done. In inline mode a failed sweep
// ends the loop with its error; in background mode it is logged and the next
// sweep starts. Run returns nil once ctx is done.
func (d *Dashboard) Run(ctx context.Context) error {
	d.mu.Lock()
	row := int(d.selected.Load())
	d.sinks.SetSelectedRowTitle(row)
	pushMatrix(d.sinks, d.view, d.rng, row)
	d.mu.Unlock()

	monitoring.Logf("dashboard: running %s acquisition of %dx%d sweeps every %v (session %s)",
		d.mode, d.Rows(), d.Cols(), d.period, d.session)

	if d.mode == ModeInline {
		return d.runInline(ctx)
	}
	return d.runBackground(ctx)
}

func (d *Dashboard) runInline(ctx context.Context) error {
	for {
		if err := d.RefreshCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if err := timeutil.Sleep(ctx, d.clock, d.period); err != nil {
			return nil
		}
	}
}

func (d *Dashboard) runBackground(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.acquire(ctx)
	}()

	ticker := d.clock.NewTicker(d.period)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case <-ticker.C():
			f, ok := d.latest.Load()
			if !ok || f.Seq == lastSeq {
				continue
			}
			lastSeq = f.Seq
			d.render(f)
		}
	}
}

// acquire reads sweeps back to back, publishing each into d.latest.
func (d *Dashboard) acquire(ctx context.Context) {
	for {
		if _, err := d.acquireOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			monitoring.Logf("dashboard: sweep failed, restarting: %v", err)
			if timeutil.Sleep(ctx, d.clock, d.period) != nil {
				return
			}
		}
	}
}

// acquireOnce reads a sweep into the work matrix and publishes a copy.
func (d *Dashboard) acquireOnce(ctx context.Context) (frame.Frame, error) {
	stats, err := d.reader.ReadFullSweep(ctx, d.work)
	if err != nil {
		if ctx.Err() == nil {
			d.account(stats, err)
		}
		return frame.Frame{}, err
	}
	d.account(stats, nil)
	return d.latest.Publish(frame.Frame{
		Session:    d.session,
		CapturedAt: d.clock.Now(),
		Matrix:     d.work.Clone(),
		Stats:      stats,
	}), nil
}

func (d *Dashboard) account(s frame.SweepStats, err error) {
	d.totalsMu.Lock()
	defer d.totalsMu.Unlock()
	t := &d.totals
	if err != nil {
		t.FailedSweeps++
		t.LastError = err.Error()
	} else {
		t.Sweeps++
		t.LastSweepTime = s.Duration
	}
	t.LinesRead += s.LinesRead
	t.ValidLines += s.ValidLines
	t.IOErrors += s.IOErrors
	for k, v := range s.Rejected {
		t.Rejected[k] += v
	}
}

// render copies f into the view and pushes it to every sink.
func (d *Dashboard) render(f frame.Frame) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.view.CopyFrom(f.Matrix); err != nil {
		monitoring.Logf("dashboard: dropping frame %d: %v", f.Seq, err)
		return
	}
	f.Matrix = nil
	d.shown = f
	pushMatrix(d.sinks, d.view, d.rng, int(d.selected.Load()))
}

func pushMatrix(s Sink, m *frame.Matrix, r DisplayRange, row int) {
	s.SetHeatmap(m, r)
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			s.SetCellLabel(i, j, m.At(i, j))
		}
	}
	s.SetLinePlot(row, m.Row(row))
}
