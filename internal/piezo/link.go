package piezo

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/Clonexy700/DAS-auto-experiment-app/internal/monitoring"
	"github.com/Clonexy700/DAS-auto-experiment-app/internal/protocol"
)

var (
	// ErrWriteFailed indicates a short write to the serial port.
	ErrWriteFailed = errors.New("failed to write full frame to serial port")
	// ErrLinkClosed indicates an operation on a closed link.
	ErrLinkClosed = errors.New("serial link is closed")
)

// Setpoint holds the physical quantities commanded to one channel in one
// configuration call. Voltage and bias are in volts (open loop) and
// frequency in hertz.
type Setpoint struct {
	Voltage   float64 `json:"v"`
	Bias      float64 `json:"b"`
	Frequency float64 `json:"f"`
}

// Link owns one open serial connection to the piezo controller. Writes are
// serialized; the read monitor is diagnostic only and never interferes with
// write ordering.
type Link struct {
	port SerialPorter

	writeMu sync.Mutex

	closeMu sync.Mutex
	closed  bool
}

// NewLink wraps an already open serial port.
func NewLink(port SerialPorter) *Link {
	return &Link{port: port}
}

// ConfigureChannels sends the full configuration sequence for all three
// channels in fixed order 0, 1, 2: voltage frame, bias frame, then
// waveform+frequency frame per channel. Channels missing from setpoints are
// driven to zero with a logged warning rather than rejected.
//
// A failure on one channel is logged and the remaining channels are still
// attempted; only a closed link is an error.
func (l *Link) ConfigureChannels(w protocol.Waveform, setpoints map[protocol.Channel]Setpoint) error {
	l.closeMu.Lock()
	closed := l.closed
	l.closeMu.Unlock()
	if closed {
		return ErrLinkClosed
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	for _, ch := range protocol.Channels {
		sp, ok := setpoints[ch]
		if !ok {
			monitoring.Logf("[piezo] no setpoint for channel %d, driving to zero", ch)
		}
		if err := l.configureChannel(ch, w, sp); err != nil {
			monitoring.Logf("[piezo] channel %d configuration error: %v", ch, err)
			continue
		}
	}
	return nil
}

func (l *Link) configureChannel(ch protocol.Channel, w protocol.Waveform, sp Setpoint) error {
	voltage, err := protocol.VoltageFrame(ch, sp.Voltage)
	if err != nil {
		return err
	}
	bias, err := protocol.BiasFrame(ch, sp.Bias)
	if err != nil {
		return err
	}
	waveform, err := protocol.WaveformFrame(ch, w, sp.Voltage, sp.Frequency)
	if err != nil {
		return err
	}

	for _, frame := range [][]byte{voltage, bias, waveform} {
		if err := l.writeFrame(frame); err != nil {
			return err
		}
	}
	return nil
}

func (l *Link) writeFrame(frame []byte) error {
	n, err := l.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor polls the port for inbound bytes and logs them as hex. The
// controller sends no frames the protocol depends on; this loop exists
// purely for diagnostics and must never be relied on for correctness.
//
// The blocking reads run on their own goroutine so the outer loop can await
// both data and context cancellation.
func (l *Link) Monitor(ctx context.Context) error {
	chunks := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(chunks)
		buf := make([]byte, 256)
		for {
			n, err := l.port.Read(buf)
			if n > 0 {
				b := make([]byte, n)
				copy(b, buf[:n])
				select {
				case chunks <- b:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				select {
				case readErr <- err:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			if errors.Is(err, io.EOF) || l.isClosed() {
				return nil
			}
			return err

		case b, ok := <-chunks:
			if !ok {
				return nil
			}
			monitoring.Logf("[piezo] rx %s", monitoring.Hex(b))
		}
	}
}

func (l *Link) isClosed() bool {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	return l.closed
}

// Close closes the underlying serial port. It is idempotent: repeated calls
// return nil.
func (l *Link) Close() error {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	return l.port.Close()
}
