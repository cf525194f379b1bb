package smd

import (
	"fmt"
	"strings"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/sidereal"
	"github.com/soniakeys/unit"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Frame identifies the axes a state is expressed in. All inertial frames are equatorial and
// Earth centered. The time scales are approximated: UTC is used in place of UT1 and TT.
type Frame uint8

const (
	// J2000 is the mean equator and equinox of J2000.0.
	J2000 Frame = iota
	// MOD is the mean equator and mean equinox of date.
	MOD
	// TOD is the true equator and true equinox of date.
	TOD
	// TEME is the true equator, mean equinox frame of the NORAD theories.
	TEME
	// BodyFixed rotates with the Earth (pseudo Earth fixed, no polar motion).
	BodyFixed
)

// chain from the J2000 hub down to the body fixed frame.
var frameChain = []Frame{J2000, MOD, TOD, TEME, BodyFixed}

func (f Frame) String() string {
	switch f {
	case J2000:
		return "J2000"
	case MOD:
		return "MOD"
	case TOD:
		return "TOD"
	case TEME:
		return "TEME"
	case BodyFixed:
		return "BodyFixed"
	default:
		return fmt.Sprintf("Frame(%d)", uint8(f))
	}
}

// ParseFrame returns the frame from its name (case insensitive).
func ParseFrame(name string) (Frame, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "J2000", "EME2000", "ECI":
		return J2000, nil
	case "MOD":
		return MOD, nil
	case "TOD":
		return TOD, nil
	case "TEME":
		return TEME, nil
	case "BODYFIXED", "ECEF", "PEF":
		return BodyFixed, nil
	default:
		return J2000, fmt.Errorf("%w: %q", ErrUnknownFrame, name)
	}
}

// JulianDate returns the Julian date of the provided time.
func JulianDate(dt time.Time) float64 {
	return julian.TimeToJD(dt.UTC())
}

// JulianCenturies returns the number of Julian centuries since J2000.0.
func JulianCenturies(dt time.Time) float64 {
	return (JulianDate(dt) - 2451545.0) / 36525
}

// GMST returns the Greenwich mean sidereal time in radians (IAU-82).
func GMST(dt time.Time) float64 {
	var θ unit.Time = sidereal.Mean(JulianDate(dt))
	return WrapAngle(θ.Rad())
}

// EquationOfEquinoxes returns the equation of the equinoxes in radians.
func EquationOfEquinoxes(dt time.Time) float64 {
	return nutation.NutationInRA(JulianDate(dt)).Rad()
}

// precession returns the IAU-76 precession matrix from J2000 to MOD.
func precession(dt time.Time) *mat.Dense {
	T := JulianCenturies(dt)
	ζ := unit.AngleFromSec(2306.2181*T + 0.30188*T*T + 0.017998*T*T*T).Rad()
	θ := unit.AngleFromSec(2004.3109*T - 0.42665*T*T - 0.041833*T*T*T).Rad()
	z := unit.AngleFromSec(2306.2181*T + 1.09468*T*T + 0.018203*T*T*T).Rad()
	return chain(R3(-z), R2(θ), R3(-ζ))
}

// nutationMatrix returns the IAU-80 nutation matrix from MOD to TOD.
func nutationMatrix(dt time.Time) *mat.Dense {
	jd := JulianDate(dt)
	Δψ, Δε := nutation.Nutation(jd)
	ε0 := nutation.MeanObliquity(jd).Rad()
	return chain(R1(-(ε0 + Δε.Rad())), R3(-Δψ.Rad()), R1(ε0))
}

// step converts the state one link along the frame chain.
func step(s State, to Frame) State {
	out := State{Epoch: s.Epoch, Frame: to}
	switch {
	case s.Frame == J2000 && to == MOD:
		P := precession(s.Epoch)
		out.R, out.V = MxV33(P, s.R), MxV33(P, s.V)
	case s.Frame == MOD && to == J2000:
		P := precession(s.Epoch)
		out.R, out.V = MTxV33(P, s.R), MTxV33(P, s.V)
	case s.Frame == MOD && to == TOD:
		N := nutationMatrix(s.Epoch)
		out.R, out.V = MxV33(N, s.R), MxV33(N, s.V)
	case s.Frame == TOD && to == MOD:
		N := nutationMatrix(s.Epoch)
		out.R, out.V = MTxV33(N, s.R), MTxV33(N, s.V)
	case s.Frame == TOD && to == TEME:
		E := R3(EquationOfEquinoxes(s.Epoch))
		out.R, out.V = MxV33(E, s.R), MxV33(E, s.V)
	case s.Frame == TEME && to == TOD:
		E := R3(EquationOfEquinoxes(s.Epoch))
		out.R, out.V = MTxV33(E, s.R), MTxV33(E, s.V)
	case s.Frame == TEME && to == BodyFixed:
		out.R, out.V = TEME2BodyFixed(s.Epoch, s.R, s.V)
	case s.Frame == BodyFixed && to == TEME:
		out.R, out.V = BodyFixed2TEME(s.Epoch, s.R, s.V)
	default:
		panic(fmt.Errorf("no direct link from %s to %s", s.Frame, to))
	}
	return out
}

func chainIndex(f Frame) int {
	for i, c := range frameChain {
		if c == f {
			return i
		}
	}
	return -1
}

// Convert returns the provided state expressed in another frame.
// Panics if either frame is unknown.
func Convert(s State, to Frame) State {
	from, dest := chainIndex(s.Frame), chainIndex(to)
	if from < 0 || dest < 0 {
		panic(fmt.Errorf("%w: %s -> %s", ErrUnknownFrame, s.Frame, to))
	}
	for from < dest {
		from++
		s = step(s, frameChain[from])
	}
	for from > dest {
		from--
		s = step(s, frameChain[from])
	}
	return s
}

// TEME2BodyFixed rotates a TEME position and velocity to the Earth fixed frame, including the
// transport term of the velocity.
func TEME2BodyFixed(dt time.Time, R, V r3.Vec) (r3.Vec, r3.Vec) {
	θ := R3(GMST(dt))
	rB := MxV33(θ, R)
	ω := r3.Vec{Z: EarthRotationRate}
	vB := r3.Sub(MxV33(θ, V), r3.Cross(ω, rB))
	return rB, vB
}

// BodyFixed2TEME is the inverse of TEME2BodyFixed.
func BodyFixed2TEME(dt time.Time, R, V r3.Vec) (r3.Vec, r3.Vec) {
	θ := R3(GMST(dt))
	ω := r3.Vec{Z: EarthRotationRate}
	return MTxV33(θ, R), MTxV33(θ, r3.Add(V, r3.Cross(ω, R)))
}

// ECI2ECEF converts the provided inertial vector to ECEF for the θgst given in radians.
func ECI2ECEF(R r3.Vec, θgst float64) r3.Vec {
	return MxV33(R3(θgst), R)
}

// ECEF2ECI converts the provided ECEF vector to inertial for the θgst given in radians.
func ECEF2ECI(R r3.Vec, θgst float64) r3.Vec {
	return ECI2ECEF(R, -θgst)
}
