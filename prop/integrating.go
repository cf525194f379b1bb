package prop

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/dynamics"
	"github.com/lanan07075/aldev-sub001/integrator"
	"github.com/lanan07075/aldev-sub001/metrics"
	"gonum.org/v1/gonum/spatial/r3"
)

// Integrating propagates a state by integrating the accelerations of a dynamics aggregator.
//
// The aggregator may be shared between propagators, but the integrator may not: its step cache
// belongs to one trajectory. Clone gives the copy its own integrator.
type Integrating struct {
	Dynamics   *dynamics.Aggregator
	Integrator integrator.Integrator
	Mass       smd.MassProvider

	id     string
	logger log.Logger

	epoch0   time.Time // reference of the integration time
	output   smd.Frame
	current  smd.State // in the working frame of the dynamics
	y        []float64
	ready    bool
	collided bool
}

// NewIntegrating returns a propagator integrating the provided dynamics.
func NewIntegrating(dyn *dynamics.Aggregator, integ integrator.Integrator, mass smd.MassProvider) *Integrating {
	p := &Integrating{Dynamics: dyn, Integrator: integ, Mass: mass, id: uuid.NewString()}
	p.logger = log.With(smd.Logger(), "subsys", "prop", "type", "integrating", "id", p.id)
	return p
}

// ID returns the identifier used in logs.
func (p *Integrating) ID() string { return p.id }

// Initialize implements the smd.Propagator interface. Only Cartesian states are accepted.
func (p *Integrating) Initialize(ic smd.InitialCondition) error {
	p.ready = false
	switch {
	case p.Dynamics == nil:
		return &smd.InitializationError{Component: "integrating", Err: errors.New("no dynamics")}
	case p.Integrator == nil:
		return &smd.InitializationError{Component: "integrating", Err: errors.New("no integrator")}
	}
	s, ok := ic.(smd.State)
	if !ok {
		return &smd.InitializationError{Component: "integrating", Err: fmt.Errorf("unsupported initial condition %T", ic)}
	}
	if !smd.IsFinite(s.R) || !smd.IsFinite(s.V) {
		return &smd.InitializationError{Component: "integrating", Err: errors.New("non finite initial state")}
	}
	if err := p.Dynamics.Initialize(); err != nil {
		return &smd.InitializationError{Component: "integrating", Err: err}
	}
	p.epoch0 = s.Epoch
	p.output = s.Frame
	p.current = s.In(p.Dynamics.Frame())
	p.y = p.current.Vector()
	p.collided = false
	p.ready = true
	level.Debug(p.logger).Log("msg", "initialized", "epoch", p.current.Epoch, "mass(kg)", p.DynamicalMass())
	return nil
}

// LogStatus logs the current epoch and osculating orbit.
func (p *Integrating) LogStatus() {
	level.Info(p.logger).Log("epoch", p.current.Epoch, "mass(kg)", p.DynamicalMass(), "orbit", smd.ToElements(p.current, p.Dynamics.CentralBody()))
}

func (p *Integrating) derivative(t float64, y, dydt []float64) error {
	epoch := p.epoch0.Add(time.Duration(t * float64(time.Second)))
	R := r3.Vec{X: y[0], Y: y[1], Z: y[2]}
	V := r3.Vec{X: y[3], Y: y[4], Z: y[5]}
	acc, err := p.Dynamics.Acceleration(p.DynamicalMass(), epoch, R, V)
	if err != nil {
		return err
	}
	dydt[0], dydt[1], dydt[2] = V.X, V.Y, V.Z
	dydt[3], dydt[4], dydt[5] = acc.X, acc.Y, acc.Z
	return nil
}

// Update implements the smd.Propagator interface. The returned state is in the frame of the
// initial condition.
func (p *Integrating) Update(epoch time.Time) (s smd.State, err error) {
	defer func(start time.Time) { metrics.PropagatorUpdate("integrating", start, err) }(time.Now())
	if !p.ready {
		return smd.State{}, ErrNotInitialized
	}
	t0 := p.current.Epoch.Sub(p.epoch0).Seconds()
	t1 := epoch.Sub(p.epoch0).Seconds()
	y := append([]float64(nil), p.y...)
	if err := p.Integrator.Integrate(p.derivative, t0, y, t1); err != nil {
		return smd.State{}, err
	}
	p.y = y
	p.current.Epoch = epoch
	p.current.SetVector(y)
	if !smd.IsFinite(p.current.R) || !smd.IsFinite(p.current.V) {
		p.ready = false
		return smd.State{}, &smd.RangeError{Quantity: "integrated state", Err: errors.New("non finite")}
	}
	p.checkCollision()
	return p.OrbitalState(), nil
}

// checkCollision logs when the trajectory enters the central body, and when it exits it again.
func (p *Integrating) checkCollision() {
	body := p.Dynamics.CentralBody()
	r := r3.Norm(p.current.R)
	if !p.collided && r < body.Radius {
		p.collided = true
		level.Error(p.logger).Log("collided", body.Name, "epoch", p.current.Epoch, "r", r, "radius", body.Radius)
	} else if p.collided && r > body.Radius*1.1 {
		p.collided = false
		level.Warn(p.logger).Log("revived", body.Name, "epoch", p.current.Epoch)
	}
}

// Collided returns whether the trajectory is inside the central body.
func (p *Integrating) Collided() bool { return p.collided }

// OrbitalState implements the smd.Propagator interface.
func (p *Integrating) OrbitalState() smd.State {
	return p.current.In(p.output)
}

// DynamicalMass implements the smd.Propagator interface.
func (p *Integrating) DynamicalMass() float64 {
	if p.Mass == nil {
		return 0
	}
	return p.Mass.Mass()
}

// Clone implements the smd.Propagator interface. The copy shares the dynamics, gets a fresh
// integrator and a snapshot of the mass.
func (p *Integrating) Clone() smd.Propagator {
	var integ integrator.Integrator
	if p.Integrator != nil {
		integ = p.Integrator.Clone()
	}
	var mass smd.MassProvider
	if p.Mass != nil {
		mass = p.Mass.Snapshot()
	}
	c := NewIntegrating(p.Dynamics, integ, mass)
	c.epoch0, c.output, c.current, c.ready, c.collided = p.epoch0, p.output, p.current, p.ready, p.collided
	c.y = append([]float64(nil), p.y...)
	return c
}
