// Package testutil provides shared test utilities and fixtures.
//
// This package centralises the scripted serial streams used by the frame,
// dashboard and serial transport tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// RowLine formats one protocol line for row r.
func RowLine(r int, values ...int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Row %d:", r)
	for _, v := range values {
		fmt.Fprintf(&b, " %d", v)
	}
	return b.String()
}

// SweepLines returns one well-formed line per row, in row order, with cell
// values produced by value.
func SweepLines(rows, cols int, value func(r, c int) int) []string {
	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		vals := make([]int, cols)
		for c := range vals {
			vals[c] = value(r, c)
		}
		lines = append(lines, RowLine(r, vals...))
	}
	return lines
}

// Step is one scripted ReadLine result.
type Step struct {
	Line string
	Err  error
}

// ScriptedLines replays a fixed script through ReadLine. Once the script is
// exhausted ReadLine blocks until the context is done, like a silent serial
// device.
type ScriptedLines struct {
	mu    sync.Mutex
	steps []Step
	pos   int
	more  chan struct{}
}

// NewScriptedLines returns a source that yields lines in order.
func NewScriptedLines(lines ...string) *ScriptedLines {
	s := &ScriptedLines{more: make(chan struct{}, 1)}
	s.Append(lines...)
	return s
}

// Append adds lines to the end of the script.
func (s *ScriptedLines) Append(lines ...string) {
	s.mu.Lock()
	for _, l := range lines {
		s.steps = append(s.steps, Step{Line: l})
	}
	s.mu.Unlock()
	s.wake()
}

// AppendError adds a failing read to the end of the script.
func (s *ScriptedLines) AppendError(err error) {
	s.mu.Lock()
	s.steps = append(s.steps, Step{Err: err})
	s.mu.Unlock()
	s.wake()
}

func (s *ScriptedLines) wake() {
	select {
	case s.more <- struct{}{}:
	default:
	}
}

// ReadLine returns the next scripted step.
func (s *ScriptedLines) ReadLine(ctx context.Context) (string, error) {
	for {
		s.mu.Lock()
		if s.pos < len(s.steps) {
			step := s.steps[s.pos]
			s.pos++
			s.mu.Unlock()
			return step.Line, step.Err
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-s.more:
		}
	}
}

// Consumed returns how many steps have been read.
func (s *ScriptedLines) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Remaining returns how many steps are still queued.
func (s *ScriptedLines) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps) - s.pos
}
