// Package protocol implements the byte-exact serial command protocol for the
// three-channel piezo controller: the sign-magnitude fixed-point encoding of
// physical quantities and the checksummed command frames that carry them.
package protocol

import (
	"fmt"
	"math"
)

// maxMagnitude is the largest absolute value whose integer part fits the
// two-byte integer field of the fixed-point encoding.
const maxMagnitude = 32768

// Encode converts a physical quantity (voltage, bias or frequency) into the
// controller's 4-byte fixed-point representation:
//
//	byte 0: integer part / 256, with 0x80 added for negative values
//	byte 1: integer part % 256
//	byte 2: fractional part (in 1/10000 units) / 256
//	byte 3: fractional part % 256
//
// The sign is carried as a flag bit in byte 0, not as two's complement. A
// 1e-5 epsilon is added before scaling the fraction to bias away from
// floating-point truncation. Resolution is 1/10000 of a unit.
//
// Non-finite values and magnitudes >= 32768 do not fit the wire format and
// are rejected.
func Encode(value float64) ([4]byte, error) {
	var out [4]byte

	if math.IsNaN(value) || math.IsInf(value, 0) {
		return out, fmt.Errorf("cannot encode non-finite value %v", value)
	}

	negative := value < 0
	magnitude := math.Abs(value)
	if magnitude >= maxMagnitude {
		return out, fmt.Errorf("value %v out of range: magnitude must be below %d", value, maxMagnitude)
	}

	integer := uint16(math.Floor(magnitude))
	fraction := uint16(math.Round((magnitude - math.Floor(magnitude) + 1e-5) * 10000))

	out[0] = byte(integer / 256)
	if negative {
		out[0] += 0x80
	}
	out[1] = byte(integer % 256)
	out[2] = byte(fraction / 256)
	out[3] = byte(fraction % 256)
	return out, nil
}

// Decode reverses Encode. It exists for the round-trip law and for
// diagnostics; the controller never sends fixed-point values back.
func Decode(b [4]byte) float64 {
	negative := b[0]&0x80 != 0
	integer := float64(uint16(b[0]&0x7F)*256 + uint16(b[1]))
	fraction := float64(uint16(b[2])*256+uint16(b[3])) / 10000
	v := integer + fraction
	if negative {
		v = -v
	}
	return v
}
