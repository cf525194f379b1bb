// Package norad implements the NORAD analytic propagators of Spacetrack Report #3: SGP, SGP4,
// SGP8 and their deep space counterparts SDP4 and SDP8.
package norad

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/metrics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Variant is one of the NORAD theories. The values are the ephemeris types of the element
// sets.
type Variant int

const (
	SGP Variant = iota
	SGP4
	SGP8
	SDP4
	SDP8
)

// HintFromElements selects the variant from the ephemeris type of the mean elements. Published
// element sets carry 0 there, which then stands for SGP4.
const HintFromElements = -1

var variantNames = [...]string{"SGP", "SGP4", "SGP8", "SDP4", "SDP8"}

func (v Variant) String() string {
	if v < SGP || v > SDP8 {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// Deep returns whether the variant includes the deep space terms.
func (v Variant) Deep() bool { return v == SDP4 || v == SDP8 }

// ParseVariant returns the variant from its name (case insensitive).
func ParseVariant(name string) (Variant, error) {
	for i, n := range variantNames {
		if strings.EqualFold(n, name) {
			return Variant(i), nil
		}
	}
	return SGP, fmt.Errorf("unknown NORAD variant %q", name)
}

// IsDeepSpace returns whether the orbital period of the elements is at least 225 minutes
// (fewer than 6.4 revolutions per day). It only depends on the mean motion, the eccentricity
// and the inclination.
func IsDeepSpace(m smd.MeanElements) bool {
	xnodp, _ := recoverMeanMotion(newElements(m))
	return twoπ/(xnodp*xmnpda) >= 1/6.4
}

// Select returns the variant for the provided hint (an ephemeris type from 0 to 4) and
// classification. Near earth hints are promoted to their deep space counterpart for deep
// space orbits and conversely; SGP is kept in both cases.
func Select(hint int, deep bool) (Variant, error) {
	if hint < int(SGP) || hint > int(SDP8) {
		return SGP, fmt.Errorf("ephemeris type %d is not in [0, 4]", hint)
	}
	v := Variant(hint)
	switch {
	case deep && (v == SGP4 || v == SGP8):
		v += 2
	case !deep && (v == SDP4 || v == SDP8):
		v -= 2
	}
	return v, nil
}

// model evaluates one theory. Positions are in km and velocities in km/min, in TEME.
type model interface {
	propagate(tsince float64) (pos, vel r3.Vec, converged bool, err error)
}

func newModel(v Variant, el elements) model {
	switch v {
	case SGP4:
		return newSGP4(el)
	case SGP8:
		return newSGP8(el)
	case SDP4:
		return newSDP4(el)
	case SDP8:
		return newSDP8(el)
	default:
		return newSGP(el)
	}
}

// Propagator propagates mean elements with the NORAD theory selected from the hint and the
// orbit classification. It implements smd.MeanElementPropagator.
type Propagator struct {
	// Hint is the ephemeris type (0 SGP, 1 SGP4, 2 SGP8, 3 SDP4, 4 SDP8) or HintFromElements.
	Hint int
	// OutputFrame is the frame of the returned states. The theories compute in TEME.
	OutputFrame smd.Frame
	Mass        smd.MassProvider

	id     string
	logger log.Logger

	elements smd.MeanElements
	variant  Variant
	model    model
	current  smd.State
	ready    bool
	warned   bool
}

// Resolve returns the variant used for the elements with the provided hint. With
// HintFromElements, an ephemeris type of 0 selects SGP4; an explicit hint of 0 keeps SGP.
func Resolve(m smd.MeanElements, hint int) (Variant, error) {
	if hint == HintFromElements {
		hint = m.EphemerisType
		if hint == int(SGP) {
			hint = int(SGP4)
		}
	}
	return Select(hint, IsDeepSpace(m))
}

// New returns a propagator for the provided hint, returning states in the output frame.
func New(hint int, output smd.Frame) *Propagator {
	p := &Propagator{Hint: hint, OutputFrame: output, Mass: smd.FixedMass(0), id: uuid.NewString()}
	p.logger = log.With(smd.Logger(), "subsys", "norad", "id", p.id)
	return p
}

// ID returns the identifier used in logs.
func (p *Propagator) ID() string { return p.id }

// Initialize implements the smd.Propagator interface. Only mean elements are accepted: a
// Cartesian state must first be converted with the invert package.
func (p *Propagator) Initialize(ic smd.InitialCondition) error {
	p.ready = false
	var m smd.MeanElements
	switch v := ic.(type) {
	case smd.MeanElements:
		m = v
	case *smd.MeanElements:
		if v == nil {
			return &smd.InitializationError{Component: "norad", Err: errors.New("nil mean elements")}
		}
		m = *v
	case nil:
		return &smd.InitializationError{Component: "norad", Err: errors.New("no initial condition")}
	default:
		return &smd.InitializationError{Component: "norad", Err: fmt.Errorf("unsupported initial condition %T, mean elements are required", ic)}
	}
	if err := m.Validate(); err != nil {
		return &smd.InitializationError{Component: "norad", Err: err}
	}
	deep := IsDeepSpace(m)
	v, err := Resolve(m, p.Hint)
	if err != nil {
		return &smd.InitializationError{Component: "norad", Err: err}
	}
	p.elements = m
	p.variant = v
	p.model = newModel(v, newElements(m))
	p.warned = false
	s, err := p.evaluate(m.Epoch)
	if err != nil {
		return &smd.InitializationError{Component: "norad", Err: err}
	}
	p.current = s
	p.ready = true
	level.Debug(p.logger).Log("msg", "initialized", "satellite", m.SatelliteNumber, "variant", v, "deep", deep, "epoch", m.Epoch)
	return nil
}

// Update implements the smd.Propagator interface.
func (p *Propagator) Update(epoch time.Time) (s smd.State, err error) {
	defer func(start time.Time) { metrics.PropagatorUpdate("norad", start, err) }(time.Now())
	if !p.ready {
		return smd.State{}, errors.New("norad propagator not initialized")
	}
	if s, err = p.evaluate(epoch); err != nil {
		return smd.State{}, err
	}
	p.current = s
	return s, nil
}

// evaluate runs the theory at the epoch and converts the result to SI units in the output frame.
func (p *Propagator) evaluate(epoch time.Time) (smd.State, error) {
	tsince := epoch.Sub(p.elements.Epoch).Minutes()
	pos, vel, converged, err := p.model.propagate(tsince)
	if err != nil {
		return smd.State{}, &smd.RangeError{Quantity: "orbit", Err: fmt.Errorf("%s at %s: %w", p.variant, epoch.Format(time.RFC3339), err)}
	}
	if !converged && !p.warned {
		p.warned = true
		smd.Degraded(p.logger, "norad", "Kepler iteration capped", "variant", p.variant, "epoch", epoch)
	}
	R := r3.Scale(1e3, pos)
	V := r3.Scale(1e3/60, vel)
	if !smd.IsFinite(R) || !smd.IsFinite(V) {
		return smd.State{}, &smd.RangeError{Quantity: "orbit", Err: fmt.Errorf("%s at %s: non finite state", p.variant, epoch.Format(time.RFC3339))}
	}
	return smd.NewState(epoch, smd.TEME, R, V).In(p.OutputFrame), nil
}

// OrbitalState implements the smd.Propagator interface.
func (p *Propagator) OrbitalState() smd.State { return p.current }

// DynamicalMass implements the smd.Propagator interface.
func (p *Propagator) DynamicalMass() float64 {
	if p.Mass == nil {
		return 0
	}
	return p.Mass.Mass()
}

// CentralBody implements the smd.MeanElementPropagator interface.
func (p *Propagator) CentralBody() smd.CelestialObject { return smd.EarthWGS72 }

// NativeFrame implements the smd.MeanElementPropagator interface.
func (p *Propagator) NativeFrame() smd.Frame { return smd.TEME }

// Variant returns the theory selected at initialization.
func (p *Propagator) Variant() Variant { return p.variant }

// Elements returns the mean elements of the last initialization.
func (p *Propagator) Elements() smd.MeanElements { return p.elements }

// Clone implements the smd.Propagator interface. The clone is initialized again from the same
// elements, so it starts with a fresh resonance cache.
func (p *Propagator) Clone() smd.Propagator {
	c := New(p.Hint, p.OutputFrame)
	if p.Mass != nil {
		c.Mass = p.Mass.Snapshot()
	}
	if p.ready {
		if err := c.Initialize(p.elements); err != nil {
			level.Error(c.logger).Log("msg", "clone initialization failed", "err", err)
			return c
		}
		c.current = p.current
	}
	return c
}

// period returns the anomalistic period of the mean elements in minutes.
func period(m smd.MeanElements) float64 {
	xnodp, _ := recoverMeanMotion(newElements(m))
	return twoπ / xnodp
}

var _ smd.MeanElementPropagator = (*Propagator)(nil)
