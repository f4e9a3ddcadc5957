package piezo

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if opts.BaudRate != 115200 {
		t.Errorf("default baud rate = %d, want 115200", opts.BaudRate)
	}
	if opts.DataBits != 8 || opts.StopBits != 1 || opts.Parity != "N" {
		t.Errorf("default mode = %d%s%d, want 8N1", opts.DataBits, opts.Parity, opts.StopBits)
	}
}

func TestPortOptionsNormalizeErrors(t *testing.T) {
	testCases := []struct {
		name string
		opts PortOptions
	}{
		{"bad_data_bits", PortOptions{DataBits: 9}},
		{"bad_stop_bits", PortOptions{StopBits: 3}},
		{"bad_parity", PortOptions{Parity: "X"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.opts.Normalize(); err == nil {
				t.Errorf("Normalize(%+v) succeeded, want error", tc.opts)
			}
		})
	}
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 115200, Parity: "even", StopBits: 2}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode returned error: %v", err)
	}
	if mode.BaudRate != 115200 {
		t.Errorf("BaudRate = %d, want 115200", mode.BaudRate)
	}
	if mode.Parity != serial.EvenParity {
		t.Errorf("Parity = %v, want even", mode.Parity)
	}
	if mode.StopBits != serial.TwoStopBits {
		t.Errorf("StopBits = %v, want two", mode.StopBits)
	}
}
