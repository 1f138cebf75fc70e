package tele

import (
	"fmt"
	"math"
)

// PublishedState remembers the last value sent per output channel to
// suppress redundant publishes. Zero value means "never published"
// which forces one unconditional publish per channel; Reset rearms
// that after any reconnect, the remote subscriber state is unknown.
type PublishedState struct {
	roofTemp    float64
	houseTemp   float64
	controlTemp int
	fanSpeed    int

	hasRoof    bool
	hasHouse   bool
	hasControl bool
	hasFan     bool

	// a temperature or control change happened since the last
	// fan status publish
	fanDirty bool
}

func (self *PublishedState) Reset() {
	*self = PublishedState{}
}

// nearest 0.5 degree, the unit display granularity
func roundHalf(x float64) float64 {
	return math.Round(x*2) / 2
}

func formatTemp(x float64) string {
	return fmt.Sprintf("%.1f", x)
}

// fanStatus maps the raw speed to the categorical message. The
// heating/cooling annotation compares last known temperatures, so it
// only applies once both roof and house have been seen.
func (self *PublishedState) fanStatus(speed int) string {
	switch speed {
	case 0:
		return "Off"
	case 5:
		return "Idle"
	case 100:
		s := "Full"
		if self.hasRoof && self.hasHouse && self.hasControl {
			if float64(self.controlTemp) >= self.roofTemp && self.roofTemp > self.houseTemp {
				s += " (heating)"
			} else if self.roofTemp <= float64(self.controlTemp) && self.roofTemp < self.houseTemp {
				s += " (cooling)"
			}
		}
		return s
	}
	return fmt.Sprintf("%d%%", speed)
}
