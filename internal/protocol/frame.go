package protocol

import "fmt"

// Frame lengths for the two command shapes.
const (
	setFrameLen      = 11 // set-voltage and set-bias
	waveformFrameLen = 20 // set-waveform+frequency
)

// Fixed header bytes shared by every frame.
const (
	frameStart    = 0xAA
	deviceAddress = 0x01
)

// Command / subcommand bytes.
const (
	cmdSet        = 0x0B
	subcmdVoltage = 0x00
	subcmdBias    = 0x01
	cmdWaveform   = 0x14
	subcmdWave    = 0x0F
)

// xorFold computes the BCC (block check character): the XOR of every byte
// before the checksum slot.
func xorFold(frame []byte) byte {
	var x byte
	for _, b := range frame[:len(frame)-1] {
		x ^= b
	}
	return x
}

func checkChannel(ch Channel) error {
	if !ch.Valid() {
		return fmt.Errorf("invalid channel %d", ch)
	}
	return nil
}

// setFrame builds an 11-byte set command: header, channel, 4-byte
// fixed-point payload, XOR checksum.
func setFrame(subcmd byte, ch Channel, value float64) ([]byte, error) {
	if err := checkChannel(ch); err != nil {
		return nil, err
	}
	payload, err := Encode(value)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, setFrameLen)
	frame[0] = frameStart
	frame[1] = deviceAddress
	frame[2] = cmdSet
	frame[3] = subcmd
	frame[5] = byte(ch)
	copy(frame[6:10], payload[:])
	frame[setFrameLen-1] = xorFold(frame)
	return frame, nil
}

// VoltageFrame builds the set-voltage command for one channel.
func VoltageFrame(ch Channel, voltage float64) ([]byte, error) {
	return setFrame(subcmdVoltage, ch, voltage)
}

// BiasFrame builds the set-bias ("move") command for one channel.
func BiasFrame(ch Channel, bias float64) ([]byte, error) {
	return setFrame(subcmdBias, ch, bias)
}

// WaveformFrame builds the 20-byte set-waveform+frequency command: waveform
// wire code at byte 6, fixed-point voltage at bytes 7-10, fixed-point
// frequency at bytes 11-14, reserved zeros, XOR checksum at byte 19.
func WaveformFrame(ch Channel, w Waveform, voltage, frequency float64) ([]byte, error) {
	if err := checkChannel(ch); err != nil {
		return nil, err
	}
	v, err := Encode(voltage)
	if err != nil {
		return nil, fmt.Errorf("voltage: %w", err)
	}
	f, err := Encode(frequency)
	if err != nil {
		return nil, fmt.Errorf("frequency: %w", err)
	}

	frame := make([]byte, waveformFrameLen)
	frame[0] = frameStart
	frame[1] = deviceAddress
	frame[2] = cmdWaveform
	frame[3] = subcmdWave
	frame[5] = byte(ch)
	frame[6] = w.WireCode()
	copy(frame[7:11], v[:])
	copy(frame[11:15], f[:])
	frame[waveformFrameLen-1] = xorFold(frame)
	return frame, nil
}
