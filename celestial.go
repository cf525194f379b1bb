package smd

import (
	"fmt"
	"strings"
)

const (
	// AU is one astronomical unit in meters.
	AU = 1.49597870700e11
	// EarthRotationRate is the average Earth rotation rate in radians per second.
	EarthRotationRate = 7.2921158553e-5
)

// CelestialObject defines a gravitating body: its gravitational parameter and its shape
// and rotation constants. All values are SI.
type CelestialObject struct {
	Name         string
	Radius       float64 // Equatorial radius, m
	μ            float64 // m^3/s^2
	Flattening   float64
	RotationRate float64 // rad/s
	J2           float64
	J3           float64
	J4           float64
}

// NewCelestialObject returns a body with the provided constants.
func NewCelestialObject(name string, radius, μ, flattening, rotationRate, j2 float64) CelestialObject {
	return CelestialObject{Name: name, Radius: radius, μ: μ, Flattening: flattening, RotationRate: rotationRate, J2: j2}
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// J returns the perturbing J_n factor for the provided n.
func (c CelestialObject) J(n uint8) float64 {
	switch n {
	case 2:
		return c.J2
	case 3:
		return c.J3
	case 4:
		return c.J4
	default:
		return 0.0
	}
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.μ == b.μ && c.J2 == b.J2 && c.RotationRate == b.RotationRate
}

// CelestialObjectFromString returns the object from its name
func CelestialObjectFromString(name string) (CelestialObject, error) {
	switch strings.ToLower(name) {
	case "earth":
		return Earth, nil
	case "earth_wgs72", "wgs72":
		return EarthWGS72, nil
	case "moon":
		return Moon, nil
	case "sun":
		return Sun, nil
	case "jupiter":
		return Jupiter, nil
	default:
		return CelestialObject{}, fmt.Errorf("undefined body '%s'", name)
	}
}

/* Definitions */

// Earth is home (WGS-84 shape, EGM-96 zonal).
var Earth = CelestialObject{"Earth", 6378137.0, 3.986004418e14, 1 / 298.257223563, EarthRotationRate, 1.08262668355e-3, -2.53265648533e-6, -1.61962159137e-6}

// EarthWGS72 is the Earth used by the NORAD analytic theories.
var EarthWGS72 = CelestialObject{"Earth WGS-72", 6378135.0, 3.986008e14, 1 / 298.26, EarthRotationRate, 1.082616e-3, -2.53881e-6, -1.65597e-6}

// Moon is always facing us.
var Moon = CelestialObject{"Moon", 1737400.0, 4.9028e12, 0.0012, 2.6617e-6, 202.7e-6, 0, 0}

// Sun is our closest star.
var Sun = CelestialObject{"Sun", 695700e3, 1.32712440017987e20, 0, 2.865e-6, 0, 0, 0}

// Jupiter is big.
var Jupiter = CelestialObject{"Jupiter", 71492e3, 1.266865361e17, 0.06487, 1.7585e-4, 0.01475, 0, -0.00058}
