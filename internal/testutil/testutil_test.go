package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowLine(t *testing.T) {
	assert.Equal(t, "Row 3: 1 2 3 4", RowLine(3, 1, 2, 3, 4))
	assert.Equal(t, "Row 0:", RowLine(0))
}

func TestSweepLines(t *testing.T) {
	lines := SweepLines(3, 2, func(r, c int) int { return r*10 + c })
	assert.Equal(t, []string{"Row 0: 0 1", "Row 1: 10 11", "Row 2: 20 21"}, lines)
}

func TestScriptedLines_ReplaysInOrder(t *testing.T) {
	boom := errors.New("boom")
	s := NewScriptedLines("a", "b")
	s.AppendError(boom)

	ctx := context.Background()
	line, err := s.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", line)

	line, err = s.ReadLine(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", line)

	_, err = s.ReadLine(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, s.Consumed())
	assert.Equal(t, 0, s.Remaining())
}

func TestScriptedLines_BlocksWhenExhausted(t *testing.T) {
	s := NewScriptedLines()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := s.ReadLine(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestScriptedLines_AppendWakesReader(t *testing.T) {
	s := NewScriptedLines()
	done := make(chan string, 1)
	go func() {
		line, _ := s.ReadLine(context.Background())
		done <- line
	}()

	time.Sleep(5 * time.Millisecond)
	s.Append("late")

	select {
	case line := <-done:
		assert.Equal(t, "late", line)
	case <-time.After(time.Second):
		t.Fatal("reader was not woken by Append")
	}
}
