package protocol

import (
	"testing"

	"github.com/Clonexy700/DAS-auto-experiment-app/internal/monitoring"
)

func TestParseWaveform(t *testing.T) {
	testCases := []struct {
		input string
		want  Waveform
	}{
		{"Z", Sine},
		{"z", Sine},
		{"F", Square},
		{"S", Triangle},
		{"J", Sawtooth},
		{" j ", Sawtooth},
		{"sine", Sine},
		{"Square", Square},
		{"TRIANGLE", Triangle},
		{"sawtooth", Sawtooth},
	}

	for _, tc := range testCases {
		if got := ParseWaveform(tc.input); got != tc.want {
			t.Errorf("ParseWaveform(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

// Invalid waveform codes are never rejected: they default to sine and log a
// warning.
func TestParseWaveformLenient(t *testing.T) {
	original := monitoring.Logf
	defer monitoring.SetLogger(original)

	warned := 0
	monitoring.SetLogger(func(format string, v ...interface{}) { warned++ })

	for _, s := range []string{"", "X", "sin", "??"} {
		if got := ParseWaveform(s); got != Sine {
			t.Errorf("ParseWaveform(%q) = %v, want Sine", s, got)
		}
	}
	if warned != 4 {
		t.Errorf("expected 4 warnings, got %d", warned)
	}
}

func TestWireCode(t *testing.T) {
	codes := map[Waveform]byte{Sine: 'Z', Square: 'F', Triangle: 'S', Sawtooth: 'J'}
	for w, want := range codes {
		if got := w.WireCode(); got != want {
			t.Errorf("%v.WireCode() = %c, want %c", w, got, want)
		}
	}
	if got := Waveform(99).WireCode(); got != 'Z' {
		t.Errorf("unknown waveform wire code = %c, want Z", got)
	}
}

func TestChannelValid(t *testing.T) {
	for _, ch := range Channels {
		if !ch.Valid() {
			t.Errorf("channel %d should be valid", ch)
		}
	}
	if Channel(3).Valid() {
		t.Error("channel 3 should be invalid")
	}
}
