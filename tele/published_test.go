package tele

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFanStatus(t *testing.T) {
	t.Parallel()

	temps := func(roof, house float64, control int) *PublishedState {
		return &PublishedState{
			roofTemp: roof, houseTemp: house, controlTemp: control,
			hasRoof: true, hasHouse: true, hasControl: true,
		}
	}

	cases := []struct {
		name   string
		pub    *PublishedState
		speed  int
		expect string
	}{
		{"off", temps(20, 18, 22), 0, "Off"},
		{"off/no-temps", new(PublishedState), 0, "Off"},
		{"idle", temps(20, 18, 22), 5, "Idle"},
		{"full/heating", temps(20, 18, 22), 100, "Full (heating)"},
		{"full/cooling", temps(20, 25, 22), 100, "Full (cooling)"},
		{"full/no-temps", new(PublishedState), 100, "Full"},
		{"full/neutral", temps(20, 20, 22), 100, "Full"},
		{"full/control-below-roof", temps(25, 18, 22), 100, "Full"},
		{"percent", temps(20, 18, 22), 50, "50%"},
		{"percent/low", temps(20, 18, 22), 1, "1%"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expect, c.pub.fanStatus(c.speed))
		})
	}
}

func TestRoundHalf(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     float64
		expect float64
	}{
		{20.0, 20.0},
		{20.125, 20.0},
		{20.25, 20.5},
		{20.4375, 20.5},
		{20.625, 20.5},
		{20.75, 21.0},
		{-0.25, -0.5},
	}
	for _, c := range cases {
		assert.Equal(t, c.expect, roundHalf(c.in), "in=%v", c.in)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	p := &PublishedState{roofTemp: 20, hasRoof: true, hasFan: true, fanSpeed: 50, fanDirty: true}
	p.Reset()
	assert.Equal(t, PublishedState{}, *p)
}
