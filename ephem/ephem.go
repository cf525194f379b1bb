// Package ephem provides the geocentric states of perturbing bodies.
package ephem

import (
	"fmt"
	"strings"
	"time"

	smd "github.com/lanan07075/aldev-sub001"
)

// Body is a perturbing body.
type Body uint8

const (
	// Moon is the Earth's moon.
	Moon Body = iota + 1
	// Sun is the Sun.
	Sun
	// Jupiter is the largest planet.
	Jupiter
)

func (b Body) String() string {
	switch b {
	case Moon:
		return "moon"
	case Sun:
		return "sun"
	case Jupiter:
		return "jupiter"
	default:
		return fmt.Sprintf("Body(%d)", uint8(b))
	}
}

// Object returns the celestial object (and its gravitational parameter) of the body.
func (b Body) Object() smd.CelestialObject {
	switch b {
	case Moon:
		return smd.Moon
	case Sun:
		return smd.Sun
	default:
		return smd.Jupiter
	}
}

// ParseBody returns a body from its name.
func ParseBody(name string) (Body, error) {
	switch strings.ToLower(name) {
	case "moon", "luna":
		return Moon, nil
	case "sun":
		return Sun, nil
	case "jupiter":
		return Jupiter, nil
	default:
		return 0, fmt.Errorf("unsupported body %q", name)
	}
}

// Provider returns the geocentric state of a body. Implementations may fail with a
// *smd.RangeError when the epoch is outside of their span. They are read only and safe
// for concurrent use.
type Provider interface {
	BodyState(epoch time.Time) (smd.State, error)
}
