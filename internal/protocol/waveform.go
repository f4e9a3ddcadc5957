package protocol

import (
	"strings"

	"github.com/Clonexy700/DAS-auto-experiment-app/internal/monitoring"
)

// Channel identifies one of the three physical piezo drive outputs. It is
// written to the wire as a raw byte.
type Channel uint8

// The controller exposes exactly three channels.
const NumChannels = 3

// Channels lists all valid channel indices in configuration order.
var Channels = [NumChannels]Channel{0, 1, 2}

// Valid reports whether c names a physical channel.
func (c Channel) Valid() bool {
	return c < NumChannels
}

// Waveform enumerates the drive waveform shapes the controller supports.
// The single-character wire codes are applied only when building frames.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

var waveformCodes = map[Waveform]byte{
	Sine:     'Z',
	Square:   'F',
	Triangle: 'S',
	Sawtooth: 'J',
}

var waveformNames = map[Waveform]string{
	Sine:     "sine",
	Square:   "square",
	Triangle: "triangle",
	Sawtooth: "sawtooth",
}

// WireCode returns the ASCII code the controller expects for the waveform.
// Unknown values fall back to the sine code.
func (w Waveform) WireCode() byte {
	if c, ok := waveformCodes[w]; ok {
		return c
	}
	return 'Z'
}

func (w Waveform) String() string {
	if n, ok := waveformNames[w]; ok {
		return n
	}
	return "sine"
}

// ParseWaveform maps a configuration string to a Waveform. Both the
// human-readable names ("sine", "square", ...) and the single-letter wire
// codes ("Z", "F", "S", "J") are accepted, case insensitive. Invalid input
// is never rejected: the controller convention is to fall back to sine
// with a logged warning.
func ParseWaveform(s string) Waveform {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Z", "SINE":
		return Sine
	case "F", "SQUARE":
		return Square
	case "S", "TRIANGLE":
		return Triangle
	case "J", "SAWTOOTH":
		return Sawtooth
	}
	monitoring.Logf("[protocol] invalid waveform %q, defaulting to sine", s)
	return Sine
}
