package serialmux

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

// MockSerialPort implements SerialPorter on top of an in-memory pipe. Reads
// come from a generator goroutine; writes are captured for inspection.
type MockSerialPort struct {
	r *io.PipeReader

	mu      sync.Mutex
	written bytes.Buffer
}

func (m *MockSerialPort) Read(p []byte) (int, error) {
	return m.r.Read(p)
}

func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.Write(p)
}

// Close stops the generator by closing the read side of the pipe.
func (m *MockSerialPort) Close() error {
	return m.r.Close()
}

// Written returns everything written to the port so far.
func (m *MockSerialPort) Written() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

// SyntheticSweep renders one sweep of the simulated sensor at time step
// tick: a pressure spot wandering over the grid on top of a little noise.
func SyntheticSweep(rows, cols, tick int, rng *rand.Rand) []string {
	centerRow := float64(rows-1) * (0.5 + 0.5*math.Sin(float64(tick)/20))
	centerCol := float64(cols-1) * (0.5 + 0.5*math.Cos(float64(tick)/13))

	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		var b strings.Builder
		fmt.Fprintf(&b, "Row %d:", r)
		for c := 0; c < cols; c++ {
			dr, dc := float64(r)-centerRow, float64(c)-centerCol
			v := 28000*math.Exp(-(dr*dr+dc*dc)/6) + 400*rng.Float64()
			fmt.Fprintf(&b, " %d", int(v))
		}
		lines = append(lines, b.String())
	}
	return lines
}

// NewMockSerialMux creates a SerialMux backed by a simulated tactile board
// that emits one sweep every interval. A malformed line is mixed in now and
// then, as the real board prints boot banners and debug text.
func NewMockSerialMux(rows, cols int, interval time.Duration) *SerialMux[*MockSerialPort] {
	r, w := io.Pipe()
	mockPort := &MockSerialPort{r: r}

	go func() {
		defer w.Close()
		rng := rand.New(rand.NewPCG(1, 2))
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for tick := 0; ; tick++ {
			lines := SyntheticSweep(rows, cols, tick, rng)
			if tick%50 == 0 {
				lines = append([]string{"tactile board ready"}, lines...)
			}
			if _, err := io.WriteString(w, strings.Join(lines, "\r\n")+"\r\n"); err != nil {
				return
			}
			<-ticker.C
		}
	}()

	return NewSerialMux(mockPort)
}

// TestableSerialPort implements SerialPorter with configurable behaviour for testing.
// It provides fine-grained control over reads, writes, errors, and latency.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures data written to the port
	WriteBuffer *bytes.Buffer

	// ReadLatency adds a delay to each Read call
	ReadLatency time.Duration

	// ReadError is returned by the next Read call if set
	ReadError error

	// WriteError is returned by the next Write call if set
	WriteError error

	// CloseError is returned by Close if set
	CloseError error

	// Closed indicates whether Close was called
	Closed bool

	// ReadCalls records the number of Read calls
	ReadCalls int

	// ReadTimeout is the current read timeout
	ReadTimeout time.Duration

	// BlockReads causes Read to block until data is added or Close is called
	BlockReads bool

	// EmptyReads makes Read return (0, nil) on an empty buffer, like a real
	// port whose read timeout expired.
	EmptyReads bool

	// readCond is used to signal blocked readers
	readCond *sync.Cond
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	tsp := &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
	}
	tsp.readCond = sync.NewCond(&tsp.mu)
	return tsp
}

// Read reads from the read buffer, optionally simulating latency and errors.
func (t *TestableSerialPort) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.ReadError != nil {
		err := t.ReadError
		t.ReadError = nil
		return 0, err
	}

	if t.ReadLatency > 0 {
		t.mu.Unlock()
		time.Sleep(t.ReadLatency)
		t.mu.Lock()
	}

	if t.ReadBuffer.Len() == 0 {
		switch {
		case t.BlockReads:
			for !t.Closed && t.ReadBuffer.Len() == 0 {
				t.readCond.Wait()
			}
			if t.Closed {
				return 0, errors.New("serial port closed")
			}
		case t.EmptyReads:
			return 0, nil
		}
	}

	return t.ReadBuffer.Read(p)
}

// Write writes to the write buffer, optionally simulating errors.
func (t *TestableSerialPort) Write(p []byte) (n int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Closed {
		return 0, errors.New("serial port closed")
	}

	if t.WriteError != nil {
		err := t.WriteError
		t.WriteError = nil
		return 0, err
	}

	return t.WriteBuffer.Write(p)
}

// Close marks the port as closed.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.Closed = true
	t.readCond.Broadcast() // Wake up any blocked readers

	return t.CloseError
}

// SetReadTimeout implements TimeoutSerialPorter.
func (t *TestableSerialPort) SetReadTimeout(timeout time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadTimeout = timeout
	return nil
}

// AddReadData adds data to be returned by subsequent Read calls.
func (t *TestableSerialPort) AddReadData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ReadBuffer.Write(data)
	t.readCond.Signal() // Wake up a blocked reader
}

// SetReadError makes the next Read fail with err.
func (t *TestableSerialPort) SetReadError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ReadError = err
	t.readCond.Signal()
}

// GetWrittenData returns all data written to the port.
func (t *TestableSerialPort) GetWrittenData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.WriteBuffer.Bytes()
}
