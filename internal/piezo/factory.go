package piezo

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// readPollTimeout is the near-zero read timeout applied to the real port.
// The monitor loop is a pure poll; it must never block writes.
const readPollTimeout = time.Millisecond

// Open opens a Link backed by a real serial port at the given path using the
// provided serial options.
func Open(path string, opts PortOptions) (*Link, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}

	if err := port.SetReadTimeout(readPollTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", path, err)
	}

	return NewLink(port), nil
}
