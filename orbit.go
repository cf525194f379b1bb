package smd

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	eccentricityε = 5e-5                         // 0.00005
	angleε        = (5e-3 / 360) * (2 * math.Pi) // 0.005 degrees
	distanceε     = 2e1                          // 20 m
	// Below these, the orbit is treated as circular or equatorial when converting from a state.
	circularε   = 1e-11
	equatorialε = 1e-11
)

// Orbit defines an osculating orbit via its classical orbital elements, at an epoch and in a frame.
//
// The elements are exactly equivalent to a state under two-body motion. The ill-defined angles of
// degenerate orbits follow an explicit convention:
//   - circular (e ≈ 0): ω is zero and ν holds the argument of latitude;
//   - equatorial (i ≈ 0 or π): Ω is zero and ω holds the longitude of periapsis;
//   - both: Ω and ω are zero and ν holds the true longitude.
type Orbit struct {
	a, e, i, Ω, ω, ν float64
	Origin           CelestialObject // Orbit origin
	Epoch            time.Time
	Frame            Frame
}

// NewOrbitFromOE creates an orbit from the orbital elements, angles in radians.
func NewOrbitFromOE(a, e, i, Ω, ω, ν float64, c CelestialObject, epoch time.Time, frame Frame) Orbit {
	return Orbit{a, e, i, WrapAngle(Ω), WrapAngle(ω), WrapAngle(ν), c, epoch, frame}
}

// ToElements returns the osculating elements of the provided state about the body.
// From Vallado's RV2COE, with atan2 forms for every angle.
func ToElements(s State, c CelestialObject) Orbit {
	R, V := s.R, s.V
	h := r3.Cross(R, V)
	hNorm := r3.Norm(h)
	hHat := r3.Scale(1/hNorm, h)
	n := r3.Vec{X: -h.Y, Y: h.X}
	r := r3.Norm(R)
	v := r3.Norm(V)
	ξ := (v*v)/2 - c.μ/r
	a := -c.μ / (2 * ξ)
	eVec := r3.Scale(1/c.μ, r3.Sub(r3.Scale(v*v-c.μ/r, R), r3.Scale(r3.Dot(R, V), V)))
	e := r3.Norm(eVec)
	i := math.Atan2(math.Hypot(h.X, h.Y), h.Z)

	equatorial := i < equatorialε || math.Pi-i < equatorialε
	circular := e < circularε
	// Prograde orbits measure longitudes counter-clockwise about +Z.
	s3 := sign(h.Z)

	var Ω, ω, ν float64
	if !equatorial {
		Ω = math.Atan2(n.Y, n.X)
	}
	switch {
	case !circular && !equatorial:
		ω = math.Atan2(r3.Dot(hHat, r3.Cross(n, eVec)), r3.Dot(n, eVec))
		ν = math.Atan2(r3.Dot(hHat, r3.Cross(eVec, R)), r3.Dot(eVec, R))
	case !circular && equatorial:
		ω = math.Atan2(s3*eVec.Y, eVec.X)
		ν = math.Atan2(r3.Dot(hHat, r3.Cross(eVec, R)), r3.Dot(eVec, R))
	case circular && !equatorial:
		ν = math.Atan2(r3.Dot(hHat, r3.Cross(n, R)), r3.Dot(n, R))
	default:
		ν = math.Atan2(s3*R.Y, R.X)
	}
	return Orbit{a, e, i, WrapAngle(Ω), WrapAngle(ω), WrapAngle(ν), c, s.Epoch, s.Frame}
}

// ToState returns the state equivalent to these elements.
func (o Orbit) ToState() State {
	R, V := o.RV()
	return State{Epoch: o.Epoch, Frame: o.Frame, R: R, V: V}
}

// RV returns the position and velocity vectors.
func (o Orbit) RV() (r3.Vec, r3.Vec) {
	p := o.SemiParameter()
	sinν, cosν := math.Sincos(o.ν)
	rPQW := r3.Vec{X: p * cosν / (1 + o.e*cosν), Y: p * sinν / (1 + o.e*cosν)}
	k := math.Sqrt(o.Origin.μ / p)
	vPQW := r3.Vec{X: -k * sinν, Y: k * (o.e + cosν)}
	return PQW2ECI(o.i, o.ω, o.Ω, rPQW), PQW2ECI(o.i, o.ω, o.Ω, vPQW)
}

// Elements returns the six classical elements.
func (o Orbit) Elements() (a, e, i, Ω, ω, ν float64) {
	return o.a, o.e, o.i, o.Ω, o.ω, o.ν
}

// SMA returns the semi major axis.
func (o Orbit) SMA() float64 { return o.a }

// Ecc returns the eccentricity.
func (o Orbit) Ecc() float64 { return o.e }

// Incl returns the inclination.
func (o Orbit) Incl() float64 { return o.i }

// RAAN returns the right ascension of the ascending node.
func (o Orbit) RAAN() float64 { return o.Ω }

// ArgPeri returns the argument of periapsis.
func (o Orbit) ArgPeri() float64 { return o.ω }

// TrueAnomaly returns the true anomaly.
func (o Orbit) TrueAnomaly() float64 { return o.ν }

// MeanAnomaly returns the mean anomaly (elliptical orbits only).
func (o Orbit) MeanAnomaly() float64 {
	return TrueToMean(o.ν, o.e)
}

// MeanMotion returns the mean motion in rad/s.
func (o Orbit) MeanMotion() float64 {
	return math.Sqrt(o.Origin.μ / math.Pow(o.a, 3))
}

// Energyξ returns the specific mechanical energy ξ.
func (o Orbit) Energyξ() float64 {
	return -o.Origin.μ / (2 * o.a)
}

// Tildeω returns the longitude of periapsis.
func (o Orbit) Tildeω() float64 {
	return math.Mod(o.ω+o.Ω, 2*math.Pi)
}

// TrueLongλ returns the *approximate* true longitude (cf. Vallado page 103).
func (o Orbit) TrueLongλ() float64 {
	return math.Mod(o.ω+o.Ω+o.ν, 2*math.Pi)
}

// ArgLatitudeU returns the argument of latitude.
func (o Orbit) ArgLatitudeU() float64 {
	return math.Mod(o.ν+o.ω, 2*math.Pi)
}

// SemiParameter returns the semi parameter.
func (o Orbit) SemiParameter() float64 {
	return o.a * (1 - o.e*o.e)
}

// Apoapsis returns the apoapsis.
func (o Orbit) Apoapsis() float64 {
	return o.a * (1 + o.e)
}

// Periapsis returns the periapsis.
func (o Orbit) Periapsis() float64 {
	return o.a * (1 - o.e)
}

// Period returns the period of this orbit.
func (o Orbit) Period() time.Duration {
	seconds := 2 * math.Pi * math.Sqrt(math.Pow(o.a, 3)/o.Origin.μ)
	return time.Duration(seconds * float64(time.Second))
}

// String implements the stringer interface (hence the value receiver)
func (o Orbit) String() string {
	return fmt.Sprintf("a=%.1f e=%.6f i=%.3f Ω=%.3f ω=%.3f ν=%.3f", o.a, o.e, Rad2deg(o.i), Rad2deg(o.Ω), Rad2deg(o.ω), Rad2deg(o.ν))
}

// Equals returns whether two orbits are identical with free true anomaly.
// Use StrictlyEquals to also check true anomaly.
func (o Orbit) Equals(o1 Orbit) (bool, error) {
	if !o.Origin.Equals(o1.Origin) {
		return false, errors.New("different origin")
	}
	if !scalar.EqualWithinAbs(o.a, o1.a, distanceε) {
		return false, errors.New("semi major axis invalid")
	}
	if !scalar.EqualWithinAbs(o.e, o1.e, eccentricityε) {
		return false, errors.New("eccentricity invalid")
	}
	if !scalar.EqualWithinAbs(o.i, o1.i, angleε) {
		return false, errors.New("inclination invalid")
	}
	if !anglesEqual(o.Ω, o1.Ω) {
		return false, errors.New("RAAN invalid")
	}
	if o.e > eccentricityε && !anglesEqual(o.ω, o1.ω) {
		return false, errors.New("argument of perigee invalid")
	}
	return true, nil
}

// StrictlyEquals returns whether two orbits are identical.
func (o Orbit) StrictlyEquals(o1 Orbit) (bool, error) {
	if !anglesEqual(o.ArgLatitudeU(), o1.ArgLatitudeU()) {
		return false, errors.New("argument of latitude invalid")
	}
	return o.Equals(o1)
}

func anglesEqual(a, b float64) bool {
	diff := WrapAngle(a - b)
	return diff < angleε || twoπ-diff < angleε
}

// Kepler helpers.

const (
	keplerTolerance = 1e-12
	keplerMaxIter   = 1000
)

// SolveKepler returns the eccentric anomaly for the provided mean anomaly and eccentricity,
// and whether the iteration converged.
func SolveKepler(M, e float64) (E float64, converged bool) {
	M = WrapAngle(M)
	switch {
	case e < 0.5:
		E = M
	case e < 0.9:
		E = M + e*math.Sin(M)
	default:
		E = math.Pi
	}
	for iter := 0; iter < keplerMaxIter; iter++ {
		δ := (E - e*math.Sin(E) - M) / (1 - e*math.Cos(E))
		E -= δ
		if math.Abs(δ) < keplerTolerance {
			return E, true
		}
	}
	return E, false
}

// MeanToTrue converts a mean anomaly to the true anomaly.
func MeanToTrue(M, e float64) float64 {
	E, _ := SolveKepler(M, e)
	sinE, cosE := math.Sincos(E)
	return WrapAngle(math.Atan2(math.Sqrt(1-e*e)*sinE, cosE-e))
}

// TrueToMean converts a true anomaly to the mean anomaly.
func TrueToMean(ν, e float64) float64 {
	sinν, cosν := math.Sincos(ν)
	E := math.Atan2(math.Sqrt(1-e*e)*sinν, e+cosν)
	return WrapAngle(E - e*math.Sin(E))
}

// Radii2ae returns the semi major axis and the eccentricty from the radii.
func Radii2ae(rA, rP float64) (a, e float64) {
	if rA < rP {
		panic("periapsis cannot be greater than apoapsis")
	}
	a = (rP + rA) / 2
	e = (rA - rP) / (rA + rP)
	return
}
