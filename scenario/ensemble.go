package scenario

import (
	"errors"
	"sync"
	"time"

	"github.com/go-kit/log/level"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/invert"
	"github.com/spf13/viper"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distmv"
)

// Dispersion describes the Gaussian dispersion of the initial state of an ensemble.
type Dispersion struct {
	Count         int
	SigmaPosition float64 // m, per axis
	SigmaVelocity float64 // m/s, per axis
	Seed          uint64
}

func dispersion(v *viper.Viper) (Dispersion, error) {
	v.SetDefault("ensemble.seed", 1)
	d := Dispersion{
		Count:         v.GetInt("ensemble.count"),
		SigmaPosition: v.GetFloat64("ensemble.sigma_position"),
		SigmaVelocity: v.GetFloat64("ensemble.sigma_velocity"),
		Seed:          v.GetUint64("ensemble.seed"),
	}
	return d, d.Validate()
}

// Validate returns a configuration error for negative values.
func (d Dispersion) Validate() error {
	switch {
	case d.Count < 0:
		return smd.NewConfigurationError("ensemble", "count", "must be positive, got %d", d.Count)
	case d.SigmaPosition < 0:
		return smd.NewConfigurationError("ensemble", "sigma_position", "must be positive, got %g", d.SigmaPosition)
	case d.SigmaVelocity < 0:
		return smd.NewConfigurationError("ensemble", "sigma_velocity", "must be positive, got %g", d.SigmaVelocity)
	}
	return nil
}

// Sample returns Count offsets (position then velocity). The draws only depend on the seed.
func (d Dispersion) Sample() ([][6]float64, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	offsets := make([][6]float64, d.Count)
	if d.SigmaPosition == 0 && d.SigmaVelocity == 0 {
		return offsets, nil
	}
	// Axes with a zero sigma are not drawn.
	var axes []int
	var variances []float64
	for k := 0; k < 6; k++ {
		σ := d.SigmaPosition
		if k >= 3 {
			σ = d.SigmaVelocity
		}
		if σ > 0 {
			axes = append(axes, k)
			variances = append(variances, σ*σ)
		}
	}
	normal, ok := distmv.NewNormal(make([]float64, len(axes)), mat.NewDiagDense(len(axes), variances), rand.NewSource(d.Seed))
	if !ok {
		return nil, errors.New("dispersion covariance is not positive definite")
	}
	draw := make([]float64, len(axes))
	for i := range offsets {
		normal.Rand(draw)
		for j, k := range axes {
			offsets[i][k] = draw[j]
		}
	}
	return offsets, nil
}

// Member is one trajectory of an ensemble.
type Member struct {
	Index   int
	Initial smd.State
	// Elements are the mean elements of the dispersed state, for NORAD propagators.
	Elements *smd.MeanElements
	States   []smd.State
	Err      error
}

// Ensemble propagates Dispersion.Count clones of the scenario propagator over the output span,
// each from the nominal initial state plus its own dispersion. Members run concurrently and are
// returned in index order; a failed member has its Err set.
func (sc *Scenario) Ensemble() ([]Member, error) {
	offsets, err := sc.Dispersion.Sample()
	if err != nil {
		return nil, err
	}
	nominal := sc.Propagator.OrbitalState()
	epochs := sc.Output.Epochs()
	members := make([]Member, len(offsets))
	var wg sync.WaitGroup
	for i, δ := range offsets {
		m := &members[i]
		m.Index = i
		m.Initial = smd.NewState(nominal.Epoch, nominal.Frame,
			r3.Add(nominal.R, r3.Vec{X: δ[0], Y: δ[1], Z: δ[2]}),
			r3.Add(nominal.V, r3.Vec{X: δ[3], Y: δ[4], Z: δ[5]}))
		p := sc.Propagator.Clone()
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Err = sc.runMember(p, m, epochs)
		}()
	}
	wg.Wait()

	failed := 0
	for _, m := range members {
		if m.Err != nil {
			failed++
			level.Warn(sc.logger).Log("msg", "ensemble member failed", "member", m.Index, "err", m.Err)
		}
	}
	level.Info(sc.logger).Log("msg", "ensemble done", "members", len(members), "failed", failed)
	return members, nil
}

func (sc *Scenario) runMember(p smd.Propagator, m *Member, epochs []time.Time) error {
	var ic smd.InitialCondition = m.Initial
	if sc.Type == NORAD {
		res, err := invert.Invert(m.Initial, p, sc.Template, sc.InversionOptions)
		if err != nil {
			return err
		}
		m.Elements = &res.Elements
		ic = res.Elements
	}
	if err := p.Initialize(ic); err != nil {
		return err
	}
	m.States = make([]smd.State, 0, len(epochs))
	for _, dt := range epochs {
		s, err := p.Update(dt)
		if err != nil {
			return err
		}
		m.States = append(m.States, s)
	}
	return nil
}
