package dynamics

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

var errNoContext = errors.New("term used before Initialize")

// Monopole is the point mass attraction of the central body.
type Monopole struct {
	// Mu overrides the gravitational parameter of the central body when non zero.
	Mu float64
}

// Name implements the Term interface.
func (m *Monopole) Name() string { return "monopole" }

// Initialize implements the Term interface.
func (m *Monopole) Initialize(ctx Context) error {
	if m.Mu == 0 {
		m.Mu = ctx.CentralBody().GM()
	}
	return nil
}

// Acceleration implements the Term interface.
func (m *Monopole) Acceleration(_ float64, _ time.Time, R, _ r3.Vec) (r3.Vec, error) {
	if m.Mu == 0 {
		return r3.Vec{}, errNoContext
	}
	r := r3.Norm(R)
	return r3.Scale(-m.Mu/(r*r*r), R), nil
}

// Oblateness is the J2 zonal harmonic of the central body. It is evaluated in the body fixed
// frame, where the harmonic is defined, and rotated back to the working frame.
type Oblateness struct {
	ctx       Context
	μ, J2, Re float64
}

// Name implements the Term interface.
func (o *Oblateness) Name() string { return "j2" }

// Initialize implements the Term interface.
func (o *Oblateness) Initialize(ctx Context) error {
	body := ctx.CentralBody()
	o.ctx = ctx
	o.μ, o.J2, o.Re = body.GM(), body.J2, body.Radius
	if o.J2 == 0 {
		return errors.New(body.Name + " has no J2")
	}
	return nil
}

// Acceleration implements the Term interface.
func (o *Oblateness) Acceleration(_ float64, epoch time.Time, R, _ r3.Vec) (r3.Vec, error) {
	if o.ctx == nil {
		return r3.Vec{}, errNoContext
	}
	return o.ctx.FromBodyFixed(epoch, j2Acceleration(o.ctx.ToBodyFixed(epoch, R), o.μ, o.J2, o.Re)), nil
}

// j2Acceleration is the Cartesian J2 acceleration in body fixed axes.
func j2Acceleration(R r3.Vec, μ, J2, Re float64) r3.Vec {
	r := r3.Norm(R)
	r2 := r * r
	r5 := r2 * r2 * r
	r7 := r5 * r2
	z2 := R.Z * R.Z
	accJ2 := 1.5 * J2 * Re * Re * μ
	return r3.Vec{
		X: accJ2 * (5*R.X*z2/r7 - R.X/r5),
		Y: accJ2 * (5*R.Y*z2/r7 - R.Y/r5),
		Z: accJ2 * (5*R.Z*z2/r7 - 3*R.Z/r5),
	}
}

// inverse square of the distance, used by the third body term.
func pull(μ float64, d r3.Vec) r3.Vec {
	n := r3.Norm(d)
	return r3.Scale(μ/math.Pow(n, 3), d)
}
