// Package hrv decodes the serial protocol of the HRV ventilation unit.
// Pure byte-in frame-out state machine, no I/O.
package hrv

import "fmt"

type Location byte

const (
	LocationRoof  Location = 0x30
	LocationHouse Location = 0x31
)

func (l Location) String() string {
	switch l {
	case LocationRoof:
		return "roof"
	case LocationHouse:
		return "house"
	}
	return fmt.Sprintf("unknown(%02x)", byte(l))
}

// Frame is one validated message from the HRV unit.
// Only the decoder constructs frames, after the checksum passed.
type Frame struct {
	Location    Location
	RawTempHigh byte
	RawTempLow  byte
	FanSpeed    int // percent 0..100, house frames only
	ControlTemp int // degrees, house frames only
	Checksum    byte
}

// Temp converts the two raw bytes to degrees.
// The unit reports fixed point in 1/16 degree steps.
func (f *Frame) Temp() float64 {
	return float64(uint16(f.RawTempHigh)<<8|uint16(f.RawTempLow)) * 0.0625
}

func (f *Frame) String() string {
	if f.Location == LocationHouse {
		return fmt.Sprintf("hrv.Frame(%s temp=%.4f fan=%d control=%d)", f.Location, f.Temp(), f.FanSpeed, f.ControlTemp)
	}
	return fmt.Sprintf("hrv.Frame(%s temp=%.4f)", f.Location, f.Temp())
}
