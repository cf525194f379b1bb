// Package scenario builds propagators from TOML or YAML scenario files and runs dispersed
// ensembles of them.
package scenario

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/dynamics"
	"github.com/lanan07075/aldev-sub001/integrator"
	"github.com/lanan07075/aldev-sub001/invert"
	"github.com/lanan07075/aldev-sub001/norad"
	"github.com/lanan07075/aldev-sub001/prop"
	"github.com/spf13/viper"
	"gonum.org/v1/gonum/spatial/r3"
)

// Propagator type names.
const (
	Integrating = "integrating"
	Keplerian   = "keplerian"
	NORAD       = "norad"
)

// Span is the propagation span of the outputs.
type Span struct {
	Start, End time.Time
	Step       time.Duration
}

// Epochs returns the output epochs from start to end included.
func (s Span) Epochs() []time.Time {
	if s.Step <= 0 || s.End.Before(s.Start) {
		return []time.Time{s.Start}
	}
	var epochs []time.Time
	for dt := s.Start; !dt.After(s.End); dt = dt.Add(s.Step) {
		epochs = append(epochs, dt)
	}
	return epochs
}

// Scenario is a loaded scenario: an initialized propagator and what to do with it.
type Scenario struct {
	Name       string
	Type       string
	Body       smd.CelestialObject
	Propagator smd.Propagator
	// Initial is the initial condition given to the propagator: the configured state or
	// elements, or the elements obtained by inversion.
	Initial smd.InitialCondition
	// Inversion is set when a NORAD propagator was configured with a Cartesian state.
	Inversion        *invert.Result
	InversionOptions invert.Options
	// Template carries the non element fields of the mean elements (ephemeris type, drag)
	// used when inverting states for this propagator.
	Template   smd.MeanElements
	Output     Span
	Dispersion Dispersion
	// Stations observe the propagated states, see Measure.
	Stations []smd.Station

	logger log.Logger
}

// Load reads a scenario file. The format follows the file extension (.toml, .yaml, .yml or .json).
func Load(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, &smd.ConfigurationError{Unit: path, Err: err}
	}
	return FromViper(v, path)
}

// FromViper builds a scenario from an already read configuration.
func FromViper(v *viper.Viper, name string) (*Scenario, error) {
	sc := &Scenario{Name: name, logger: log.With(smd.Logger(), "subsys", "scenario", "scenario", name)}
	v.SetDefault("propagator.body", "earth")

	var err error
	if sc.Body, err = smd.CelestialObjectFromString(v.GetString("propagator.body")); err != nil {
		return nil, &smd.ConfigurationError{Unit: "propagator", Key: "body", Err: err}
	}
	mass := v.GetFloat64("propagator.mass")
	if mass < 0 {
		return nil, smd.NewConfigurationError("propagator", "mass", "must be positive, got %g", mass)
	}
	if sc.InversionOptions, err = inversionOptions(v); err != nil {
		return nil, err
	}
	if sc.Dispersion, err = dispersion(v); err != nil {
		return nil, err
	}
	if sc.Stations, err = stations(v); err != nil {
		return nil, err
	}

	ic, err := initialCondition(v)
	if err != nil {
		return nil, err
	}

	sc.Type = strings.ToLower(v.GetString("propagator.type"))
	switch sc.Type {
	case Integrating:
		s, ok := ic.(smd.State)
		if !ok {
			return nil, smd.NewConfigurationError("propagator", "state", "the integrating propagator requires a Cartesian state")
		}
		agg, err := aggregator(v, sc.Body)
		if err != nil {
			return nil, err
		}
		integ, err := integrator.New(integratorType(v), v.Sub("integrator"))
		if err != nil {
			return nil, err
		}
		p := prop.NewIntegrating(agg, integ, smd.FixedMass(mass))
		sc.Propagator, sc.Initial = p, s
	case Keplerian:
		s, ok := ic.(smd.State)
		if !ok {
			return nil, smd.NewConfigurationError("propagator", "state", "the Keplerian propagator requires a Cartesian state")
		}
		p := prop.NewKeplerian(sc.Body, v.GetBool("propagator.precession"))
		p.Mass = smd.FixedMass(mass)
		sc.Propagator, sc.Initial = p, s
	case NORAD:
		if err := sc.noradPropagator(v, ic, mass); err != nil {
			return nil, err
		}
	default:
		return nil, smd.NewConfigurationError("propagator", "type", "unknown propagator type %q (known: %s, %s, %s)", sc.Type, Integrating, Keplerian, NORAD)
	}

	if err := sc.Propagator.Initialize(sc.Initial); err != nil {
		return nil, err
	}
	if sc.Output, err = span(v, sc.Initial.InitialEpoch()); err != nil {
		return nil, err
	}
	level.Info(sc.logger).Log("msg", "loaded", "type", sc.Type, "epoch", sc.Initial.InitialEpoch(), "outputs", len(sc.Output.Epochs()))
	return sc, nil
}

func (sc *Scenario) noradPropagator(v *viper.Viper, ic smd.InitialCondition, mass float64) error {
	v.SetDefault("propagator.output_frame", "TEME")
	frame, err := smd.ParseFrame(v.GetString("propagator.output_frame"))
	if err != nil {
		return &smd.ConfigurationError{Unit: "propagator", Key: "output_frame", Err: err}
	}
	hint := norad.HintFromElements
	if m, ok := ic.(smd.MeanElements); ok && v.IsSet("propagator.elements.ephemeris_type") {
		hint = m.EphemerisType
	}
	if v.IsSet("propagator.variant") {
		variant, err := norad.ParseVariant(v.GetString("propagator.variant"))
		if err != nil {
			return &smd.ConfigurationError{Unit: "propagator", Key: "variant", Err: err}
		}
		hint = int(variant)
	}
	p := norad.New(hint, frame)
	p.Mass = smd.FixedMass(mass)
	sc.Propagator = p

	switch ic := ic.(type) {
	case smd.MeanElements:
		sc.Template, sc.Initial = ic, ic
		return nil
	case smd.State:
		// Without elements, the theory defaults to SGP4 (promoted to SDP4 for deep space orbits).
		sc.Template = smd.MeanElements{EphemerisType: int(norad.SGP4)}
		res, err := invert.Invert(ic, p, sc.Template, sc.InversionOptions)
		if err != nil {
			return fmt.Errorf("inverting the initial state: %w", err)
		}
		if !res.Converged {
			smd.Degraded(sc.logger, "scenario", "using unconverged mean elements", "residual", res.Residual)
		}
		sc.Inversion = &res
		sc.Initial = res.Elements
		return nil
	default:
		return smd.NewConfigurationError("propagator", "", "unsupported initial condition %T", ic)
	}
}

// initialCondition reads either propagator.state or propagator.elements.
func initialCondition(v *viper.Viper) (smd.InitialCondition, error) {
	hasState, hasElements := v.IsSet("propagator.state"), v.IsSet("propagator.elements")
	switch {
	case hasState && hasElements:
		return nil, smd.NewConfigurationError("propagator", "", "both a state and elements are set")
	case hasElements:
		text := v.GetString("propagator.elements.line1") + "\n" + v.GetString("propagator.elements.line2")
		if name := v.GetString("propagator.elements.name"); name != "" {
			text = name + "\n" + text
		}
		m, err := smd.ParseTLE(text)
		if err != nil {
			return nil, &smd.ConfigurationError{Unit: "propagator.elements", Err: err}
		}
		if v.IsSet("propagator.elements.ephemeris_type") {
			m.EphemerisType = v.GetInt("propagator.elements.ephemeris_type")
			if _, err := norad.Select(m.EphemerisType, false); err != nil {
				return nil, &smd.ConfigurationError{Unit: "propagator.elements", Key: "ephemeris_type", Err: err}
			}
		}
		return m, nil
	case hasState:
		return state(v)
	default:
		return nil, smd.NewConfigurationError("propagator", "", "neither a state nor elements are set")
	}
}

func state(v *viper.Viper) (smd.State, error) {
	const unit = "propagator.state"
	v.SetDefault(unit+".frame", "J2000")
	frame, err := smd.ParseFrame(v.GetString(unit + ".frame"))
	if err != nil {
		return smd.State{}, &smd.ConfigurationError{Unit: unit, Key: "frame", Err: err}
	}
	if !v.IsSet(unit + ".epoch") {
		return smd.State{}, smd.NewConfigurationError(unit, "epoch", "missing epoch")
	}
	epoch := v.GetTime(unit + ".epoch")
	if epoch.IsZero() {
		return smd.State{}, smd.NewConfigurationError(unit, "epoch", "invalid epoch %q", v.GetString(unit+".epoch"))
	}
	R, err := vector(v, unit, "position")
	if err != nil {
		return smd.State{}, err
	}
	V, err := vector(v, unit, "velocity")
	if err != nil {
		return smd.State{}, err
	}
	return smd.NewState(epoch.UTC(), frame, R, V), nil
}

func vector(v *viper.Viper, unit, key string) (r3.Vec, error) {
	var c []float64
	if err := v.UnmarshalKey(unit+"."+key, &c); err != nil {
		return r3.Vec{}, &smd.ConfigurationError{Unit: unit, Key: key, Err: err}
	}
	if len(c) != 3 {
		return r3.Vec{}, smd.NewConfigurationError(unit, key, "expected three components, got %d", len(c))
	}
	vec := r3.Vec{X: c[0], Y: c[1], Z: c[2]}
	if !smd.IsFinite(vec) {
		return r3.Vec{}, smd.NewConfigurationError(unit, key, "non finite component")
	}
	return vec, nil
}

func integratorType(v *viper.Viper) string {
	v.SetDefault("integrator.type", "dormand_prince")
	return v.GetString("integrator.type")
}

// aggregator builds the dynamics from dynamics.terms, defaulting to the point mass gravity of
// the body.
func aggregator(v *viper.Viper, body smd.CelestialObject) (*dynamics.Aggregator, error) {
	v.SetDefault("dynamics.frame", "J2000")
	frame, err := smd.ParseFrame(v.GetString("dynamics.frame"))
	if err != nil {
		return nil, &smd.ConfigurationError{Unit: "dynamics", Key: "frame", Err: err}
	}
	agg := dynamics.NewAggregator(body, frame)
	if !v.IsSet("dynamics.terms") {
		agg.Add(&dynamics.Monopole{})
		return agg, nil
	}
	entries, ok := v.Get("dynamics.terms").([]interface{})
	if !ok {
		return nil, smd.NewConfigurationError("dynamics", "terms", "expected a list of terms")
	}
	for i, entry := range entries {
		unit := fmt.Sprintf("dynamics.terms[%d]", i)
		opts, ok := entry.(map[string]interface{})
		if !ok {
			return nil, smd.NewConfigurationError(unit, "", "expected a table, got %T", entry)
		}
		sub := viper.New()
		if err := sub.MergeConfigMap(opts); err != nil {
			return nil, &smd.ConfigurationError{Unit: unit, Err: err}
		}
		t, err := dynamics.New(sub.GetString("type"), sub)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", unit, err)
		}
		agg.Add(t)
	}
	return agg, nil
}

func inversionOptions(v *viper.Viper) (invert.Options, error) {
	opts := invert.Options{
		Tolerance:       v.GetFloat64("inversion.tolerance"),
		MaxIterations:   v.GetInt("inversion.max_iterations"),
		MaxEccentricity: v.GetFloat64("inversion.max_eccentricity"),
		Nudge:           v.GetFloat64("inversion.nudge"),
	}
	return opts, opts.Validate()
}

// span reads output.start, output.end and output.step (seconds). The start defaults to the
// initial epoch and the end to the start.
func span(v *viper.Viper, epoch time.Time) (Span, error) {
	s := Span{Start: epoch, End: epoch}
	if v.IsSet("output.start") {
		s.Start = v.GetTime("output.start").UTC()
		s.End = s.Start
	}
	if v.IsSet("output.end") {
		s.End = v.GetTime("output.end").UTC()
	}
	if s.End.Before(s.Start) {
		return s, smd.NewConfigurationError("output", "end", "%s is before the start %s", s.End, s.Start)
	}
	step := v.GetFloat64("output.step")
	if step < 0 || math.IsNaN(step) {
		return s, smd.NewConfigurationError("output", "step", "must be positive, got %g", step)
	}
	if step == 0 && s.End.After(s.Start) {
		return s, smd.NewConfigurationError("output", "step", "a step is required for a span")
	}
	s.Step = time.Duration(step * float64(time.Second))
	return s, nil
}

// Propagate runs a clone of the scenario propagator over the output span, leaving the
// scenario propagator untouched.
func (sc *Scenario) Propagate() ([]smd.State, error) {
	p := sc.Propagator.Clone()
	epochs := sc.Output.Epochs()
	states := make([]smd.State, 0, len(epochs))
	for _, dt := range epochs {
		s, err := p.Update(dt)
		if err != nil {
			return states, err
		}
		states = append(states, s)
	}
	return states, nil
}
