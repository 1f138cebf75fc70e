package hrv

import (
	"errors"
	"fmt"
)

// Marker delimits frames on the wire, same byte opens and closes.
// There is no escaping, the unit never emits 0x7e inside a frame.
const Marker byte = 0x7e

const (
	// location + checksum + everything the unit sends between them
	bufferCap = 9
	// location + 2 temperature bytes + remaining fields + checksum;
	// shorter capture is a fragment from the link settling, not an error
	minFrameLength = 6
)

var ErrDesync = errors.New("capture buffer overflow, stream desync")

type InvalidChecksum struct {
	Received byte
	Actual   byte
}

func (e InvalidChecksum) Error() string {
	return fmt.Sprintf("invalid checksum received=%02x actual=%02x", e.Received, e.Actual)
}

type InvalidLocation struct {
	Received byte
}

func (e InvalidLocation) Error() string {
	return fmt.Sprintf("invalid location byte=%02x", e.Received)
}

type decodeState byte

const (
	stateIdle decodeState = iota
	stateCapturing
)

// Decoder accumulates bytes between markers and emits validated frames.
// Zero value is ready to use. Not safe for concurrent use, feed it
// from one loop.
type Decoder struct {
	buf   [bufferCap]byte
	used  int
	state decodeState
}

// Feed consumes one byte from the wire. Returns a frame when the byte
// completed a valid one, an error when it revealed a malformed one,
// both nil otherwise. Constant time, never blocks.
//
// All errors are transient: the decoder is back in idle state and will
// sync on the next marker. After InvalidChecksum the caller should
// also flush its byte source, the remaining tail of the broken frame
// is garbage.
func (self *Decoder) Feed(b byte) (*Frame, error) {
	switch self.state {
	case stateIdle:
		if b == Marker {
			self.state = stateCapturing
			self.used = 0
		}
		// non-marker in idle is pre-sync garbage
		return nil, nil

	case stateCapturing:
		if b != Marker {
			if self.used >= bufferCap {
				self.reset()
				return nil, ErrDesync
			}
			self.buf[self.used] = b
			self.used++
			return nil, nil
		}
		if self.used == 0 {
			// marker with empty buffer begins capture, even when the
			// previous byte was also a marker
			return nil, nil
		}
		n := self.used
		self.reset()
		if n < minFrameLength {
			return nil, nil
		}
		return parse(self.buf[:n])
	}
	panic(fmt.Sprintf("code error hrv.Decoder state=%d", self.state))
}

func (self *Decoder) reset() {
	self.state = stateIdle
	self.used = 0
}

// buf holds location, data bytes, checksum.
func parse(buf []byte) (*Frame, error) {
	received := buf[len(buf)-1]
	// the unit computes the checksum by running subtraction, not
	// addition; byte arithmetic gives mod 256 for free
	var sum byte
	for _, b := range buf[1 : len(buf)-1] {
		sum -= b
	}
	if sum != received {
		return nil, InvalidChecksum{Received: received, Actual: sum}
	}

	location := Location(buf[0])
	frame := &Frame{
		Location:    location,
		RawTempHigh: buf[1],
		RawTempLow:  buf[2],
		Checksum:    received,
	}
	switch location {
	case LocationRoof:
	case LocationHouse:
		frame.FanSpeed = int(buf[3])
		frame.ControlTemp = int(buf[4])
	default:
		return nil, InvalidLocation{Received: buf[0]}
	}
	return frame, nil
}
