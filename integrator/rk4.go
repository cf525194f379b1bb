package integrator

import (
	"errors"
	"math"

	"github.com/ChristopherRabotin/ode"
	"github.com/lanan07075/aldev-sub001/metrics"
)

// RK4 is the classical fixed step Runge-Kutta integrator. The span is split in equal steps no
// longer than Step.
type RK4 struct {
	Step float64 // s
}

// NewRK4 returns a fixed step integrator.
func NewRK4(step float64) (*RK4, error) {
	if !(step > 0) {
		return nil, errors.New("rk4 step must be positive")
	}
	return &RK4{Step: step}, nil
}

// Name implements the Integrator interface.
func (r *RK4) Name() string { return "rk4" }

// Clone implements the Integrator interface.
func (r *RK4) Clone() Integrator { c := *r; return &c }

// Integrate implements the Integrator interface.
func (r *RK4) Integrate(f Derivative, t0 float64, y []float64, t1 float64) error {
	span := t1 - t0
	if span == 0 {
		return nil
	}
	steps := uint64(math.Ceil(math.Abs(span) / r.Step))
	if steps == 0 {
		steps = 1
	}
	dir := 1.0
	if span < 0 {
		dir = -1
	}
	p := &rk4Problem{f: f, t0: t0, dir: dir, y: append([]float64(nil), y...), steps: steps}
	p.dydt = make([]float64, len(y))
	ode.NewRK4(0, math.Abs(span)/float64(steps), p).Solve() // Blocking.
	if p.err != nil {
		return p.err
	}
	copy(y, p.y)
	return nil
}

// rk4Problem adapts a Derivative to the ode.Integrable interface. The ode solver only steps
// forward, so a backward span runs in s = -t with the derivative negated.
type rk4Problem struct {
	f     Derivative
	t0    float64
	dir   float64
	y     []float64
	dydt  []float64
	steps uint64
	done  uint64
	err   error
}

func (p *rk4Problem) GetState() []float64 {
	return append([]float64(nil), p.y...)
}

func (p *rk4Problem) SetState(t float64, s []float64) {
	copy(p.y, s)
	p.done++
	metrics.IntegratorStep("rk4", "accepted")
}

func (p *rk4Problem) Stop(t float64) bool {
	return p.err != nil || p.done >= p.steps
}

func (p *rk4Problem) Func(t float64, s []float64) []float64 {
	out := make([]float64, len(s))
	if p.err != nil {
		return out
	}
	if err := p.f(p.t0+p.dir*t, s, p.dydt); err != nil {
		p.err = err
		return out
	}
	for i, d := range p.dydt {
		out[i] = p.dir * d
	}
	return out
}
