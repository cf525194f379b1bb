// Package prop provides the Cartesian propagators: a closed-form two-body propagator and a
// propagator integrating a dynamics aggregator.
package prop

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/metrics"
)

// ErrNotInitialized is returned by Update before a successful Initialize.
var ErrNotInitialized = errors.New("propagator not initialized")

// Keplerian propagates two-body motion in closed form. With Precession set, the node, the
// argument of periapsis and the mean anomaly drift at the secular J2 rates of the central body.
type Keplerian struct {
	Body       smd.CelestialObject
	Precession bool
	Mass       smd.MassProvider

	id     string
	logger log.Logger

	initial smd.Orbit
	m0      float64 // mean anomaly at the initial epoch
	n       float64 // rad/s
	rates   j2Rates
	current smd.State
	ready   bool
}

// j2Rates are the secular drifts in rad/s.
type j2Rates struct {
	Ωdot, ωdot, Mdot float64
}

// NewKeplerian returns a two-body propagator about the provided body.
func NewKeplerian(body smd.CelestialObject, precession bool) *Keplerian {
	k := &Keplerian{Body: body, Precession: precession, Mass: smd.FixedMass(0), id: uuid.NewString()}
	k.logger = log.With(smd.Logger(), "subsys", "prop", "type", "keplerian", "id", k.id)
	return k
}

// ID returns the identifier used in logs.
func (k *Keplerian) ID() string { return k.id }

// Initialize implements the smd.Propagator interface. Only Cartesian states are accepted.
func (k *Keplerian) Initialize(ic smd.InitialCondition) error {
	k.ready = false
	s, ok := ic.(smd.State)
	if !ok {
		return &smd.InitializationError{Component: "keplerian", Err: fmt.Errorf("unsupported initial condition %T", ic)}
	}
	if !smd.IsFinite(s.R) || !smd.IsFinite(s.V) || s.R.X == 0 && s.R.Y == 0 && s.R.Z == 0 {
		return &smd.InitializationError{Component: "keplerian", Err: errors.New("invalid initial state")}
	}
	o := smd.ToElements(s, k.Body)
	if a, e := o.SMA(), o.Ecc(); !(a > 0) || e >= 1 {
		return &smd.InitializationError{Component: "keplerian", Err: fmt.Errorf("orbit is not elliptical (a=%g, e=%g)", a, e)}
	}
	k.initial = o
	k.m0 = o.MeanAnomaly()
	k.n = o.MeanMotion()
	k.rates = j2Rates{}
	if k.Precession {
		k.rates = secularJ2(o, k.Body)
	}
	k.current = s
	k.ready = true
	level.Debug(k.logger).Log("msg", "initialized", "orbit", o, "period", o.Period())
	return nil
}

// secularJ2 returns the secular drift of the elements from the time averaged semi-major axis
// (Vallado, 4th edition, 9-41).
func secularJ2(o smd.Orbit, body smd.CelestialObject) j2Rates {
	a, e, i, _, ω, _ := o.Elements()
	M := o.MeanAnomaly()
	sini, cosi := math.Sincos(i)
	j2 := body.J(2)
	r2 := body.Radius * body.Radius
	oneMinusE2 := 1 - e*e
	aBar := a - 1.5*j2*r2/a*sini*sini*math.Cos(2*(ω+M))
	common := 1.5 * j2 * r2 * math.Pow(aBar, -3.5) * math.Sqrt(body.GM())
	return j2Rates{
		Ωdot: -common / (oneMinusE2 * oneMinusE2) * cosi,
		ωdot: common / (oneMinusE2 * oneMinusE2) * (2 - 2.5*sini*sini),
		Mdot: common / math.Pow(oneMinusE2, 1.5) * (1 - 1.5*sini*sini),
	}
}

// Update implements the smd.Propagator interface.
func (k *Keplerian) Update(epoch time.Time) (s smd.State, err error) {
	defer func(start time.Time) { metrics.PropagatorUpdate("keplerian", start, err) }(time.Now())
	if !k.ready {
		return smd.State{}, ErrNotInitialized
	}
	dt := epoch.Sub(k.initial.Epoch).Seconds()
	a, e, i, Ω, ω, _ := k.initial.Elements()
	M := k.m0 + (k.n+k.rates.Mdot)*dt
	Ω += k.rates.Ωdot * dt
	ω += k.rates.ωdot * dt
	if _, converged := smd.SolveKepler(M, e); !converged {
		return smd.State{}, &smd.RangeError{Quantity: "Kepler equation", Err: fmt.Errorf("no convergence for M=%g e=%g", M, e)}
	}
	o := smd.NewOrbitFromOE(a, e, i, Ω, ω, smd.MeanToTrue(M, e), k.Body, epoch, k.initial.Frame)
	k.current = o.ToState()
	return k.current, nil
}

// OrbitalState implements the smd.Propagator interface.
func (k *Keplerian) OrbitalState() smd.State { return k.current }

// DynamicalMass implements the smd.Propagator interface.
func (k *Keplerian) DynamicalMass() float64 {
	if k.Mass == nil {
		return 0
	}
	return k.Mass.Mass()
}

// Elements returns the osculating elements at the current epoch.
func (k *Keplerian) Elements() smd.Orbit {
	return smd.ToElements(k.current, k.Body)
}

// TimeToPeriapsis returns the time until the n-th next periapsis passage (n=0 is the next one).
// Circular orbits have no periapsis, so this returns n periods.
func (k *Keplerian) TimeToPeriapsis(n uint) time.Duration {
	o := k.Elements()
	nBar := k.n + k.rates.Mdot
	var sec float64
	if o.Ecc() < 1e-9 {
		sec = float64(n) * 2 * math.Pi / nBar
	} else {
		sec = (2*math.Pi - o.MeanAnomaly() + float64(n)*2*math.Pi) / nBar
	}
	return time.Duration(sec * float64(time.Second))
}

// TimeToAscendingNode returns the time until the n-th next ascending node passage. Equatorial
// orbits have no node, so this returns n periods.
func (k *Keplerian) TimeToAscendingNode(n uint) time.Duration {
	o := k.Elements()
	nBar := k.n + k.rates.Mdot
	if o.Incl() < 1e-9 || math.Pi-o.Incl() < 1e-9 {
		return time.Duration(float64(n) * 2 * math.Pi / nBar * float64(time.Second))
	}
	Mnode := smd.TrueToMean(2*math.Pi-o.ArgPeri(), o.Ecc())
	ΔM := smd.WrapAngle(Mnode - o.MeanAnomaly())
	return time.Duration((ΔM + float64(n)*2*math.Pi) / nBar * float64(time.Second))
}

// Clone implements the smd.Propagator interface.
func (k *Keplerian) Clone() smd.Propagator {
	c := NewKeplerian(k.Body, k.Precession)
	if k.Mass != nil {
		c.Mass = k.Mass.Snapshot()
	}
	c.initial, c.m0, c.n, c.rates = k.initial, k.m0, k.n, k.rates
	c.current, c.ready = k.current, k.ready
	return c
}
