// Package invert finds the mean elements which, propagated with an analytic theory, reproduce a
// Cartesian state.
package invert

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/metrics"
	"gonum.org/v1/gonum/mat"
)

// ErrEccentricity is returned for targets whose osculating eccentricity is above
// Options.MaxEccentricity, where the analytic theories break down numerically.
var ErrEccentricity = errors.New("eccentricity too high for inversion")

// Components of the search vector.
const (
	sma = iota
	ecc
	inc
	raan
	argp
	anom
	dim
)

const (
	circularSeed   = 1e-7 // eccentricity below which the seed is nudged
	equatorialSeed = 1e-8 // rad, inclination below which the seed is nudged
	maxHalvings    = 30
	// Forward difference steps: relative for the semi-major axis, absolute (radians or unitless)
	// for the others.
	relativeStep = 1e-7
	absoluteStep = 1e-7
)

// Options configure the Newton-Raphson search.
type Options struct {
	// Tolerance is the max-abs residual, with positions in body radii and velocities in body
	// radii per minute.
	Tolerance       float64
	MaxIterations   int
	MaxEccentricity float64
	// Nudge replaces a near zero eccentricity or inclination of the seed.
	Nudge float64
}

// DefaultOptions are the options used for zero fields.
var DefaultOptions = Options{Tolerance: 1e-6, MaxIterations: 50, MaxEccentricity: 0.75, Nudge: 1e-4}

// Validate returns a configuration error for negative values.
func (o Options) Validate() error {
	switch {
	case o.Tolerance < 0:
		return smd.NewConfigurationError("inversion", "tolerance", "must be positive, got %g", o.Tolerance)
	case o.MaxIterations < 0:
		return smd.NewConfigurationError("inversion", "max_iterations", "must be positive, got %d", o.MaxIterations)
	case o.MaxEccentricity < 0 || o.MaxEccentricity >= 1:
		return smd.NewConfigurationError("inversion", "max_eccentricity", "must be in [0, 1), got %g", o.MaxEccentricity)
	case o.Nudge < 0:
		return smd.NewConfigurationError("inversion", "nudge", "must be positive, got %g", o.Nudge)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Tolerance == 0 {
		o.Tolerance = DefaultOptions.Tolerance
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultOptions.MaxIterations
	}
	if o.MaxEccentricity == 0 {
		o.MaxEccentricity = DefaultOptions.MaxEccentricity
	}
	if o.Nudge == 0 {
		o.Nudge = DefaultOptions.Nudge
	}
	return o
}

// Result is the outcome of an inversion. When Converged is false, Elements is the best set found.
type Result struct {
	Elements   smd.MeanElements
	Converged  bool
	Iterations int
	Residual   float64
}

// search is (a, e, i, Ω, ω, M), with a in meters and the angles in radians.
type search [dim]float64

// admissible returns whether the search vector describes an elliptical orbit.
func (x search) admissible() bool {
	return x[sma] > 0 && x[ecc] >= 0 && x[ecc] < 1 && x[inc] >= 0 && x[inc] <= math.Pi
}

func (x search) wrapped() search {
	for _, k := range []int{raan, argp, anom} {
		x[k] = smd.WrapAngle(x[k])
	}
	return x
}

type inverter struct {
	target   smd.State
	p        smd.Propagator
	template smd.MeanElements
	body     smd.CelestialObject
	logger   log.Logger
}

// Invert searches for the mean elements which p propagates to the target state at the target
// epoch. The template provides everything but the six elements (drag terms, identifiers,
// ephemeris type); the epoch of the result is the target epoch. The propagator itself is not
// modified: the search runs on a clone.
//
// If p implements smd.MeanElementPropagator, the seed is computed in its native frame about its
// central body. Otherwise, the target frame and the WGS-72 Earth are used.
func Invert(target smd.State, p smd.Propagator, template smd.MeanElements, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	opts = opts.withDefaults()
	inv := inverter{
		target:   target,
		p:        p.Clone(),
		template: template,
		body:     smd.EarthWGS72,
		logger:   log.With(smd.Logger(), "subsys", "invert", "id", uuid.NewString()),
	}
	seedState := target
	if mp, ok := p.(smd.MeanElementPropagator); ok {
		inv.body = mp.CentralBody()
		seedState = target.In(mp.NativeFrame())
	}
	res, err := inv.run(seedState, opts)
	switch {
	case err != nil:
		metrics.Inversion("failed", res.Iterations)
	case res.Converged:
		metrics.Inversion("converged", res.Iterations)
	default:
		metrics.Inversion("degraded", res.Iterations)
	}
	return res, err
}

// seed returns the osculating elements of the state, nudged away from the circular and
// equatorial singularities.
func seed(s smd.State, body smd.CelestialObject, opts Options) (search, error) {
	o := smd.ToElements(s, body)
	a, e, i, Ω, ω, _ := o.Elements()
	if !(a > 0) || e >= 1 {
		return search{}, &smd.RangeError{Quantity: "target orbit", Err: fmt.Errorf("not elliptical (a=%g, e=%g)", a, e)}
	}
	if e > opts.MaxEccentricity {
		return search{}, fmt.Errorf("%w: %g > %g", ErrEccentricity, e, opts.MaxEccentricity)
	}
	x := search{a, e, i, Ω, ω, o.MeanAnomaly()}
	if x[ecc] < circularSeed {
		x[ecc] = opts.Nudge
	}
	if x[inc] < equatorialSeed {
		x[inc] = opts.Nudge
	}
	return x, nil
}

func (inv *inverter) run(seedState smd.State, opts Options) (Result, error) {
	x, err := seed(seedState, inv.body, opts)
	if err != nil {
		return Result{}, err
	}
	level.Debug(inv.logger).Log("msg", "seeded", "a", x[sma], "e", x[ecc], "i", x[inc])

	best := Result{Residual: math.Inf(1)}
	var target []float64
	for iter := 0; ; iter++ {
		cand, err := inv.evaluate(x)
		if err != nil {
			best.Iterations = iter
			return best, err
		}
		if target == nil {
			target = inv.canonical(inv.target.In(cand.Frame))
		}
		y := inv.canonical(cand)
		residual := make([]float64, dim)
		var norm float64
		for k := range residual {
			residual[k] = target[k] - y[k]
			norm = math.Max(norm, math.Abs(residual[k]))
		}
		if norm < best.Residual {
			best = Result{Elements: inv.elements(x), Iterations: iter, Residual: norm}
		}
		if norm < opts.Tolerance {
			best.Converged = true
			level.Debug(inv.logger).Log("msg", "converged", "iterations", iter, "residual", norm)
			return best, nil
		}
		if iter == opts.MaxIterations {
			smd.Degraded(inv.logger, "invert", "iteration cap reached", "iterations", iter, "residual", best.Residual)
			best.Iterations = iter
			return best, nil
		}

		J, err := inv.jacobian(x, y)
		if err != nil {
			best.Iterations = iter
			return best, err
		}
		var δ mat.VecDense
		if err := δ.SolveVec(J, mat.NewVecDense(dim, residual)); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				best.Iterations = iter
				return best, fmt.Errorf("iteration %d: Jacobian solve: %w", iter, err)
			}
			level.Debug(inv.logger).Log("msg", "ill-conditioned Jacobian", "iteration", iter, "condition", float64(cond))
		}

		next, ok := damp(x, δ.RawVector().Data)
		if !ok {
			smd.Degraded(inv.logger, "invert", "no admissible step", "iteration", iter, "residual", best.Residual)
			best.Iterations = iter
			return best, nil
		}
		x = next
	}
}

// damp halves the applied fraction of the step until the elements are admissible.
func damp(x search, δ []float64) (search, bool) {
	f := 1.0
	for h := 0; h <= maxHalvings; h++ {
		var next search
		for k := range next {
			next[k] = x[k] + f*δ[k]
		}
		if next.admissible() {
			return next.wrapped(), true
		}
		f /= 2
	}
	return x, false
}

// jacobian returns the forward difference partials of the canonical state with respect to the
// search vector, y being the canonical state at x.
func (inv *inverter) jacobian(x search, y []float64) (*mat.Dense, error) {
	J := mat.NewDense(dim, dim, nil)
	for j := 0; j < dim; j++ {
		h := absoluteStep
		switch j {
		case sma:
			h = relativeStep * x[sma]
		case ecc:
			if x[ecc]+h >= 1 {
				h = -h
			}
		case inc:
			if x[inc]+h > math.Pi {
				h = -h
			}
		}
		xh := x
		xh[j] += h
		s, err := inv.evaluate(xh)
		if err != nil {
			return nil, err
		}
		yh := inv.canonical(s)
		for k := 0; k < dim; k++ {
			J.Set(k, j, (yh[k]-y[k])/h)
		}
	}
	return J, nil
}

// elements returns the template with the search vector as its elements, at the target epoch.
func (inv *inverter) elements(x search) smd.MeanElements {
	m := inv.template
	m.Epoch = inv.target.Epoch
	m.MeanMotion = math.Sqrt(inv.body.GM() / (x[sma] * x[sma] * x[sma]))
	m.Eccentricity = x[ecc]
	m.Inclination = x[inc]
	m.RAAN = x[raan]
	m.ArgPerigee = x[argp]
	m.MeanAnomaly = x[anom]
	return m
}

func (inv *inverter) evaluate(x search) (smd.State, error) {
	m := inv.elements(x)
	if err := inv.p.Initialize(m); err != nil {
		return smd.State{}, err
	}
	return inv.p.Update(m.Epoch)
}

// canonical returns the state with positions in body radii and velocities in radii per minute.
func (inv *inverter) canonical(s smd.State) []float64 {
	r := 1 / inv.body.Radius
	v := 60 / inv.body.Radius
	return []float64{s.R.X * r, s.R.Y * r, s.R.Z * r, s.V.X * v, s.V.Y * v, s.V.Z * v}
}
