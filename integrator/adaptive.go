package integrator

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-kit/log"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/metrics"
)

// Derivative fills dydt with the derivative of y at t. The integrator owns both slices.
type Derivative func(t float64, y, dydt []float64) error

// Integrator advances a state vector from t0 to t1, in place.
type Integrator interface {
	Integrate(f Derivative, t0 float64, y []float64, t1 float64) error
	// Clone returns a copy of the configuration with a fresh step cache.
	Clone() Integrator
	Name() string
}

// ErrorNorm selects how the embedded error estimate is reduced to a scalar.
type ErrorNorm uint8

const (
	// NormMaxAbs is the largest absolute error of all components.
	NormMaxAbs ErrorNorm = iota
	// NormRelative2 is the two-norm of the error relative to the step displacement, computed
	// separately for the first (position) and second (velocity) halves of the state.
	NormRelative2
)

// ParseErrorNorm returns the norm from its name.
func ParseErrorNorm(name string) (ErrorNorm, error) {
	switch name {
	case "", "max", "max_abs":
		return NormMaxAbs, nil
	case "relative", "relative_2", "l2":
		return NormRelative2, nil
	default:
		return NormMaxAbs, fmt.Errorf("unknown error norm %q", name)
	}
}

// displacements smaller than this make the relative norm fall back to the absolute error
const displacementGuard = 1e-20

// Options configures the adaptive integrator.
type Options struct {
	Tolerance   float64
	MinStep     float64 // s
	MaxStep     float64 // s
	InitialStep float64 // s, first step when the cache is empty
	MaxAttempts int     // rejected attempts before a step is accepted anyway
	Norm        ErrorNorm
}

// DefaultOptions are suitable for Earth orbits in meters and seconds.
var DefaultOptions = Options{Tolerance: 1e-6, MinStep: 1e-3, MaxStep: 600, InitialStep: 10, MaxAttempts: 50, Norm: NormMaxAbs}

// Validate returns an error for inconsistent options.
func (o Options) Validate() error {
	switch {
	case !(o.Tolerance > 0):
		return fmt.Errorf("tolerance must be positive, got %g", o.Tolerance)
	case !(o.MinStep > 0):
		return fmt.Errorf("min step must be positive, got %g", o.MinStep)
	case o.MaxStep < o.MinStep:
		return fmt.Errorf("max step %g is below min step %g", o.MaxStep, o.MinStep)
	case o.InitialStep < 0:
		return fmt.Errorf("initial step must not be negative, got %g", o.InitialStep)
	case o.MaxAttempts < 1:
		return fmt.Errorf("max attempts must be at least one, got %d", o.MaxAttempts)
	}
	return nil
}

// StepCache is the mutable state an adaptive integrator keeps between calls. It only speeds
// things up: the step size to try first and the last derivative of an FSAL tableau.
type StepCache struct {
	// Step is the magnitude of the next step to try; zero when unset.
	Step float64

	fsal      []float64
	fsalT     float64
	fsalY     []float64
	fsalValid bool

	floorWarned, capWarned bool

	Accepted, Rejected, Forced uint64
}

// reusable returns whether the cached derivative was evaluated at (t, y).
func (c *StepCache) reusable(t float64, y []float64) bool {
	if !c.fsalValid || c.fsalT != t || len(c.fsalY) != len(y) {
		return false
	}
	for i := range y {
		if c.fsalY[i] != y[i] {
			return false
		}
	}
	return true
}

// Adaptive is an embedded Runge-Kutta integrator with step size control.
// It is not safe for concurrent use; use Clone for each trajectory.
type Adaptive struct {
	Tableau *Tableau
	Options
	cache  StepCache
	logger log.Logger
}

// NewAdaptive returns an adaptive integrator.
func NewAdaptive(t *Tableau, opts Options) (*Adaptive, error) {
	if t == nil {
		return nil, errors.New("nil tableau")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Adaptive{Tableau: t, Options: opts, logger: log.With(smd.Logger(), "subsys", "integrator", "tableau", t.Name)}, nil
}

// Name implements the Integrator interface.
func (a *Adaptive) Name() string { return a.Tableau.Name }

// SetLogger sets the logger of the once only diagnostics.
func (a *Adaptive) SetLogger(l log.Logger) { a.logger = log.With(l, "subsys", "integrator", "tableau", a.Tableau.Name) }

// Cache returns a copy of the step cache.
func (a *Adaptive) Cache() StepCache { return a.cache }

// Reset empties the step cache.
func (a *Adaptive) Reset() {
	a.cache = StepCache{}
}

// Clone implements the Integrator interface.
func (a *Adaptive) Clone() Integrator {
	return &Adaptive{Tableau: a.Tableau, Options: a.Options, logger: a.logger}
}

func (a *Adaptive) clamp(h float64) float64 {
	return math.Max(a.MinStep, math.Min(a.MaxStep, h))
}

// Integrate implements the Integrator interface. When t1 < t0 the integration runs backwards.
func (a *Adaptive) Integrate(f Derivative, t0 float64, y []float64, t1 float64) error {
	if t1 == t0 {
		return nil
	}
	tab := a.Tableau
	n, stages := len(y), tab.Stages()
	dir := 1.0
	if t1 < t0 {
		dir = -1
	}
	h := a.cache.Step
	if h <= 0 {
		h = a.InitialStep
		if h <= 0 {
			h = math.Abs(t1 - t0)
		}
	}
	h = a.clamp(h)

	k := make([][]float64, stages)
	for s := range k {
		k[s] = make([]float64, n)
	}
	yTmp := make([]float64, n)
	yNew := make([]float64, n)
	errV := make([]float64, n)

	t := t0
	for dir*(t1-t) > 0 {
		if a.cache.reusable(t, y) {
			copy(k[0], a.cache.fsal)
		} else if err := f(t, y, k[0]); err != nil {
			return err
		}
		for attempts := 0; ; {
			step, last := h, false
			if remaining := math.Abs(t1 - t); step >= remaining {
				step, last = remaining, true
			}
			hs := dir * step
			for s := 1; s < stages; s++ {
				for i := 0; i < n; i++ {
					sum := 0.0
					for j, aij := range tab.A[s] {
						sum += aij * k[j][i]
					}
					yTmp[i] = y[i] + hs*sum
				}
				if err := f(t+tab.C[s]*hs, yTmp, k[s]); err != nil {
					return err
				}
			}
			for i := 0; i < n; i++ {
				sol, est := 0.0, 0.0
				for s := 0; s < stages; s++ {
					sol += tab.B[s] * k[s][i]
					est += tab.E[s] * k[s][i]
				}
				yNew[i] = y[i] + hs*sol
				errV[i] = hs * est
			}
			errNorm := a.norm(errV, y, yNew)

			if !(errNorm < a.Tolerance) {
				attempts++
				switch {
				case attempts > a.MaxAttempts:
					a.forced(&a.cache.capWarned, "step accepted after too many attempts", errNorm, step)
				case step <= a.MinStep:
					a.forced(&a.cache.floorWarned, "step size floor reached", errNorm, step)
				default:
					a.cache.Rejected++
					metrics.IntegratorStep(tab.Name, "rejected")
					h = a.clamp(step * a.shrink(errNorm))
					continue
				}
			} else {
				a.cache.Accepted++
				metrics.IntegratorStep(tab.Name, "accepted")
			}

			if last {
				t = t1
			} else {
				t += hs
			}
			copy(y, yNew)
			if tab.FSAL {
				a.cache.fsal = append(a.cache.fsal[:0], k[stages-1]...)
				a.cache.fsalY = append(a.cache.fsalY[:0], y...)
				a.cache.fsalT = t
				a.cache.fsalValid = true
			}
			// A trimmed final step says nothing about the step the dynamics allow.
			if !last || step >= h {
				h = a.clamp(step * a.grow(errNorm))
			}
			break
		}
	}
	a.cache.Step = h
	return nil
}

func (a *Adaptive) forced(warned *bool, msg string, errNorm, step float64) {
	a.cache.Forced++
	metrics.IntegratorStep(a.Tableau.Name, "forced")
	if !*warned {
		*warned = true
		smd.Degraded(a.logger, "integrator", msg, "error", errNorm, "tolerance", a.Tolerance, "step", step)
	}
}

func (a *Adaptive) shrink(errNorm float64) float64 {
	if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
		return 0.1
	}
	return 0.9 * math.Pow(a.Tolerance/errNorm, 1/float64(a.Tableau.Order-1))
}

func (a *Adaptive) grow(errNorm float64) float64 {
	if errNorm == 0 {
		return math.Inf(1)
	}
	return 0.9 * math.Pow(a.Tolerance/errNorm, 1/float64(a.Tableau.Order))
}

func (a *Adaptive) norm(errV, y, yNew []float64) float64 {
	if a.Norm == NormRelative2 {
		half := len(errV) / 2
		if half == 0 {
			half = len(errV)
		}
		return math.Max(relative2(errV[:half], y[:half], yNew[:half]), relative2(errV[half:], y[half:], yNew[half:]))
	}
	max := 0.0
	for _, e := range errV {
		if math.IsNaN(e) {
			return math.NaN()
		}
		max = math.Max(max, math.Abs(e))
	}
	return max
}

func relative2(errV, y, yNew []float64) float64 {
	if len(errV) == 0 {
		return 0
	}
	var e2, d2 float64
	for i, e := range errV {
		d := yNew[i] - y[i]
		e2 += e * e
		d2 += d * d
	}
	if d2 < displacementGuard {
		return math.Sqrt(e2)
	}
	return math.Sqrt(e2 / d2)
}
