package serialmux

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestSerialPort implements SerialPorter for testing SerialMux operations
type TestSerialPort struct {
	readData    []byte
	readIndex   int
	writtenData bytes.Buffer
	writeErr    error
	closeErr    error
	closed      bool
	mu          sync.Mutex
}

func NewTestSerialPort(data string) *TestSerialPort {
	return &TestSerialPort{
		readData: []byte(data),
	}
}

func (p *TestSerialPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, io.EOF
	}
	if p.readIndex >= len(p.readData) {
		// Behave like a port whose read timeout expired.
		p.mu.Unlock()
		time.Sleep(time.Millisecond)
		p.mu.Lock()
		return 0, nil
	}
	n := copy(buf, p.readData[p.readIndex:])
	p.readIndex += n
	return n, nil
}

func (p *TestSerialPort) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	return p.writtenData.Write(data)
}

func (p *TestSerialPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.closeErr
}

func (p *TestSerialPort) SetWriteError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

func (p *TestSerialPort) WrittenData() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writtenData.String()
}

// TestNewSerialMux tests creation of a new SerialMux
func TestNewSerialMux(t *testing.T) {
	port := NewTestSerialPort("")
	mux := NewSerialMux(port)

	if mux == nil {
		t.Fatal("NewSerialMux returned nil")
	}
	if mux.port != port {
		t.Error("SerialMux port not set correctly")
	}
	if mux.subscribers == nil {
		t.Error("SerialMux subscribers map not initialized")
	}
}

func TestSerialMux_ReadLine(t *testing.T) {
	port := NewTestSerialPort("Row 0: 1 2 3 4\r\nRow 1: 5 6 7 8\n\nRow 2")
	mux := NewSerialMux(port)
	ctx := context.Background()

	for _, want := range []string{"Row 0: 1 2 3 4", "Row 1: 5 6 7 8", ""} {
		got, err := mux.ReadLine(ctx)
		if err != nil {
			t.Fatalf("ReadLine: %v", err)
		}
		if got != want {
			t.Errorf("ReadLine = %q, want %q", got, want)
		}
	}

	// "Row 2" has no terminator yet, so the next call waits for more data.
	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := mux.ReadLine(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReadLine error = %v, want DeadlineExceeded", err)
	}
}

func TestSerialMux_ReadLine_AcrossTimeouts(t *testing.T) {
	port := NewTestableSerialPort()
	port.EmptyReads = true
	mux := NewSerialMux(port)

	port.AddReadData([]byte("Row 3: 1"))
	done := make(chan string, 1)
	go func() {
		line, err := mux.ReadLine(context.Background())
		if err != nil {
			t.Errorf("ReadLine: %v", err)
		}
		done <- line
	}()

	time.Sleep(5 * time.Millisecond)
	port.AddReadData([]byte(" 2 3 4\n"))

	select {
	case line := <-done:
		if line != "Row 3: 1 2 3 4" {
			t.Errorf("ReadLine = %q", line)
		}
	case <-time.After(time.Second):
		t.Fatal("ReadLine did not complete")
	}
}

func TestSerialMux_ReadLine_ReadError(t *testing.T) {
	port := NewTestableSerialPort()
	boom := errors.New("device reports an error")
	port.SetReadError(boom)
	mux := NewSerialMux(port)

	if _, err := mux.ReadLine(context.Background()); !errors.Is(err, boom) {
		t.Errorf("ReadLine error = %v, want %v", err, boom)
	}
}

func TestSerialMux_ReadLine_DiscardsOverlongGarbage(t *testing.T) {
	data := strings.Repeat("x", 5000) + "Row 1: 1 2 3 4\n"
	port := NewTestableSerialPort()
	port.AddReadData([]byte(data))
	mux := NewSerialMux(port)

	line, err := mux.ReadLine(context.Background())
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	if len(line) >= 5000 {
		t.Errorf("garbage prefix was not discarded: %d bytes", len(line))
	}
	if !strings.HasSuffix(line, "Row 1: 1 2 3 4") {
		t.Errorf("line = %q", line[len(line)-20:])
	}
}

func TestSerialMux_ReadLine_CloseUnblocks(t *testing.T) {
	port := NewTestableSerialPort()
	port.BlockReads = true
	mux := NewSerialMux(port)

	done := make(chan error, 1)
	go func() {
		_, err := mux.ReadLine(context.Background())
		done <- err
	}()

	time.Sleep(5 * time.Millisecond)
	if err := mux.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("ReadLine error = %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReadLine did not return after Close")
	}
}

func TestSerialMux_ReadLine_PublishesToSubscribers(t *testing.T) {
	port := NewTestSerialPort("Row 0: 1 1 1 1\n")
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	if _, err := mux.ReadLine(context.Background()); err != nil {
		t.Fatalf("ReadLine: %v", err)
	}

	select {
	case got := <-ch:
		if got != "Row 0: 1 1 1 1" {
			t.Errorf("subscriber got %q", got)
		}
	default:
		t.Fatal("subscriber did not receive the line")
	}
}

func TestSerialMux_SlowSubscriberDoesNotBlockReader(t *testing.T) {
	var data strings.Builder
	for i := 0; i < subscriberBuffer*2; i++ {
		data.WriteString("Row 0: 1 1 1 1\n")
	}
	port := NewTestSerialPort(data.String())
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	for i := 0; i < subscriberBuffer*2; i++ {
		if _, err := mux.ReadLine(context.Background()); err != nil {
			t.Fatalf("ReadLine %d: %v", i, err)
		}
	}
	if len(ch) != subscriberBuffer {
		t.Errorf("buffered %d lines, want %d", len(ch), subscriberBuffer)
	}
}

// TestSerialMux_Subscribe tests subscribing to the serial mux
func TestSerialMux_Subscribe(t *testing.T) {
	mux := NewSerialMux(NewTestSerialPort(""))

	id1, ch1 := mux.Subscribe()
	id2, ch2 := mux.Subscribe()

	if id1 == "" || id2 == "" {
		t.Error("Subscribe returned empty ID")
	}
	if id1 == id2 {
		t.Error("Subscription IDs should be unique")
	}
	if ch1 == nil || ch2 == nil {
		t.Error("Subscribe returned nil channel")
	}

	mux.subscriberMu.Lock()
	if len(mux.subscribers) != 2 {
		t.Errorf("Expected 2 subscribers, got %d", len(mux.subscribers))
	}
	mux.subscriberMu.Unlock()
}

// TestSerialMux_Unsubscribe tests unsubscribing from the serial mux
func TestSerialMux_Unsubscribe(t *testing.T) {
	mux := NewSerialMux(NewTestSerialPort(""))

	id, ch := mux.Subscribe()
	mux.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("Expected channel to be closed")
	}

	mux.subscriberMu.Lock()
	if len(mux.subscribers) != 0 {
		t.Errorf("Expected 0 subscribers, got %d", len(mux.subscribers))
	}
	mux.subscriberMu.Unlock()

	// Should not panic
	mux.Unsubscribe("non-existent-id")
}

// TestSerialMux_SendCommand tests sending commands to the serial port
func TestSerialMux_SendCommand(t *testing.T) {
	port := NewTestSerialPort("")
	mux := NewSerialMux(port)

	for _, cmd := range []string{"reset", "rate 10\n"} {
		if err := mux.SendCommand(cmd); err != nil {
			t.Errorf("SendCommand(%q) returned error: %v", cmd, err)
		}
	}

	if got, want := port.WrittenData(), "reset\nrate 10\n"; got != want {
		t.Errorf("written = %q, want %q", got, want)
	}
}

func TestSerialMux_SendCommand_WriteError(t *testing.T) {
	port := NewTestSerialPort("")
	port.SetWriteError(io.ErrClosedPipe)
	mux := NewSerialMux(port)

	if err := mux.SendCommand("reset"); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("SendCommand error = %v", err)
	}
}

// PartialWritePort reports fewer bytes written than requested.
type PartialWritePort struct{ TestSerialPort }

func (p *PartialWritePort) Write(data []byte) (int, error) {
	return len(data) - 1, nil
}

func TestSerialMux_SendCommand_PartialWrite(t *testing.T) {
	mux := NewSerialMux(&PartialWritePort{})
	if err := mux.SendCommand("reset"); !errors.Is(err, ErrWriteFailed) {
		t.Errorf("SendCommand error = %v, want ErrWriteFailed", err)
	}
}

func TestSerialMux_Close(t *testing.T) {
	port := NewTestSerialPort("")
	port.closeErr = errors.New("close failed")
	mux := NewSerialMux(port)
	_, ch := mux.Subscribe()

	if err := mux.Close(); err == nil || err.Error() != "close failed" {
		t.Errorf("Close error = %v", err)
	}
	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed")
	}
	if _, err := mux.ReadLine(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("ReadLine after Close = %v, want ErrClosed", err)
	}
}

func TestNewRealSerialMux_UsesOpener(t *testing.T) {
	original := openPort
	defer func() { openPort = original }()

	fake := NewTestableSerialPort()
	var gotPath string
	var gotOpts PortOptions
	openPort = func(path string, opts PortOptions) (SerialPorter, error) {
		gotPath, gotOpts = path, opts
		return fake, nil
	}

	mux, err := NewRealSerialMux("/dev/ttyUSB7", PortOptions{BaudRate: 57600})
	if err != nil {
		t.Fatalf("NewRealSerialMux: %v", err)
	}
	if gotPath != "/dev/ttyUSB7" || gotOpts.BaudRate != 57600 {
		t.Errorf("opener called with %q %+v", gotPath, gotOpts)
	}
	if mux.port != SerialPorter(fake) {
		t.Error("mux not backed by opened port")
	}

	openPort = func(string, PortOptions) (SerialPorter, error) {
		return nil, errors.New("no such device")
	}
	if _, err := NewRealSerialMux("/dev/missing", PortOptions{}); err == nil {
		t.Error("expected opener error")
	}
}

func TestOpenPort_InvalidOptions(t *testing.T) {
	if _, err := OpenPort("/dev/null", PortOptions{DataBits: 12}); err == nil {
		t.Error("expected validation error")
	}
}

func TestSetReadTimeout(t *testing.T) {
	port := NewTestableSerialPort()
	if err := setReadTimeout(port, 250*time.Millisecond); err != nil {
		t.Fatalf("setReadTimeout() error = %v", err)
	}
	if port.ReadTimeout != 250*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 250ms", port.ReadTimeout)
	}

	// Ports without timeout support are accepted unchanged.
	if err := setReadTimeout(NewTestSerialPort(""), time.Second); err != nil {
		t.Errorf("setReadTimeout() on plain port error = %v", err)
	}
}

func TestRandomID(t *testing.T) {
	a, b := randomID(), randomID()
	if len(a) != 16 {
		t.Errorf("randomID length = %d, want 16", len(a))
	}
	if a == b {
		t.Error("randomID returned duplicate values")
	}
}
