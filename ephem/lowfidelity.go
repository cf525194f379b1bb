package ephem

import (
	"math"
	"time"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/planetelements"
	"github.com/soniakeys/meeus/v3/solar"
	"gonum.org/v1/gonum/spatial/r3"
)

// differencing half span for the velocity
const lowFidelityΔt = 30 * time.Second

// LowFidelity is an analytic ephemeris from Meeus' Astronomical Algorithms: the Moon from
// chapter 47, the Sun from chapter 25 and the planets from their mean elements (chapter 31).
// Positions are referred to the mean equator and equinox of date, hence states are in MOD.
type LowFidelity struct {
	Body Body
}

// NewLowFidelity returns a low fidelity ephemeris for the body.
func NewLowFidelity(b Body) LowFidelity {
	return LowFidelity{Body: b}
}

// BodyState implements the Provider interface.
func (l LowFidelity) BodyState(epoch time.Time) (smd.State, error) {
	before := l.position(epoch.Add(-lowFidelityΔt))
	after := l.position(epoch.Add(lowFidelityΔt))
	V := r3.Scale(1/(2*lowFidelityΔt.Seconds()), r3.Sub(after, before))
	return smd.NewState(epoch, smd.MOD, l.position(epoch), V), nil
}

// position returns the geocentric equatorial position of date, in meters.
func (l LowFidelity) position(epoch time.Time) r3.Vec {
	jde := julian.TimeToJD(epoch.UTC())
	var ecl r3.Vec
	switch l.Body {
	case Moon:
		λ, β, Δ := moonposition.Position(jde)
		ecl = spherical(λ.Rad(), β.Rad(), Δ*1e3)
	case Sun:
		ecl = sun(jde)
	default:
		// The Earth is where the Sun is seen from, reversed. Its mean element table has no node.
		ecl = r3.Add(heliocentric(planetelements.Jupiter, jde), sun(jde))
	}
	return smd.MxV33(smd.R1(-nutation.MeanObliquity(jde).Rad()), ecl)
}

// sun returns the ecliptic geocentric position of the Sun of date, in meters.
func sun(jde float64) r3.Vec {
	T := base.J2000Century(jde)
	λ, _ := solar.True(T)
	return spherical(λ.Rad(), 0, solar.Radius(T)*smd.AU)
}

func spherical(λ, β, r float64) r3.Vec {
	sλ, cλ := math.Sincos(λ)
	sβ, cβ := math.Sincos(β)
	return r3.Vec{X: r * cβ * cλ, Y: r * cβ * sλ, Z: r * sβ}
}

// heliocentric returns the ecliptic heliocentric position of the planet from its mean elements of date.
func heliocentric(planet int, jde float64) r3.Vec {
	var e planetelements.Elements
	planetelements.Mean(planet, jde, &e)
	Ω := e.Node.Rad()
	ω := e.Peri.Rad() - Ω
	M := e.Lon.Rad() - e.Peri.Rad()
	ν := smd.MeanToTrue(M, e.Ecc)
	a := e.Axis * smd.AU
	r := a * (1 - e.Ecc*e.Ecc) / (1 + e.Ecc*math.Cos(ν))
	sν, cν := math.Sincos(ν)
	return smd.PQW2ECI(e.Inc.Rad(), ω, Ω, r3.Vec{X: r * cν, Y: r * sν})
}
