package piezo

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

// TestableSerialPort implements SerialPorter with configurable behaviour for
// testing. It provides fine-grained control over reads, writes and errors.
type TestableSerialPort struct {
	mu sync.Mutex

	// ReadBuffer holds data to be returned by Read calls.
	ReadBuffer *bytes.Buffer

	// WriteBuffer captures all data written to the port.
	WriteBuffer *bytes.Buffer

	// Writes records each Write call's payload separately.
	Writes [][]byte

	// WriteLatency adds a delay to each Write call.
	WriteLatency time.Duration

	// ReadError is returned by the next Read call if set (consumed once).
	ReadError error

	// WriteErrors maps 1-based Write call numbers to injected errors.
	WriteErrors map[int]error

	// CloseError is returned by Close if set.
	CloseError error

	// Closed indicates whether Close was called.
	Closed bool

	// ReadCalls and WriteCalls record call counts.
	ReadCalls  int
	WriteCalls int
	CloseCalls int
}

// NewTestableSerialPort creates a new TestableSerialPort for testing.
func NewTestableSerialPort() *TestableSerialPort {
	return &TestableSerialPort{
		ReadBuffer:  bytes.NewBuffer(nil),
		WriteBuffer: bytes.NewBuffer(nil),
		WriteErrors: make(map[int]error),
	}
}

// Read reads from the read buffer. An empty buffer reads as io.EOF, which the
// Link monitor treats as a clean end of input.
func (t *TestableSerialPort) Read(p []byte) (int, error) {
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
	return t.ReadBuffer.Read(p)
}

// Write appends to the write buffer, optionally simulating latency and
// injected errors.
func (t *TestableSerialPort) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.WriteCalls++

	if t.Closed {
		return 0, errors.New("serial port closed")
	}
	if err, ok := t.WriteErrors[t.WriteCalls]; ok {
		return 0, err
	}

	if t.WriteLatency > 0 {
		t.mu.Unlock()
		time.Sleep(t.WriteLatency)
		t.mu.Lock()
	}

	frame := make([]byte, len(p))
	copy(frame, p)
	t.Writes = append(t.Writes, frame)
	return t.WriteBuffer.Write(p)
}

// Close marks the port closed.
func (t *TestableSerialPort) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.CloseCalls++
	t.Closed = true
	return t.CloseError
}

// WrittenFrames returns a copy of all recorded writes.
func (t *TestableSerialPort) WrittenFrames() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()

	frames := make([][]byte, len(t.Writes))
	copy(frames, t.Writes)
	return frames
}
