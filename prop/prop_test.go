package prop

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/dynamics"
	"github.com/lanan07075/aldev-sub001/integrator"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	epoch     = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pointMass = smd.NewCelestialObject("point mass", 6378137, 3.986e14, 0, smd.EarthRotationRate, 0)
)

func circular(body smd.CelestialObject, r, incl float64) smd.State {
	v := math.Sqrt(body.GM() / r)
	return smd.NewState(epoch, smd.J2000, r3.Vec{X: r}, r3.Vec{Y: v * math.Cos(incl), Z: v * math.Sin(incl)})
}

func leo() smd.State {
	return smd.NewOrbitFromOE(6778e3, 0.001, smd.Deg2rad(51.6), smd.Deg2rad(30), smd.Deg2rad(45), smd.Deg2rad(10), smd.Earth, epoch, smd.J2000).ToState()
}

func relClose(t *testing.T, what string, got, exp smd.State, rel float64) {
	t.Helper()
	if r3.Norm(r3.Sub(got.R, exp.R)) > rel*r3.Norm(exp.R) || r3.Norm(r3.Sub(got.V, exp.V)) > rel*r3.Norm(exp.V) {
		t.Fatalf("%s:\ngot %s\nexp %s", what, got, exp)
	}
}

func newTwoBody(t *testing.T, body smd.CelestialObject, tol float64) *Integrating {
	opts := integrator.DefaultOptions
	opts.Tolerance = tol
	opts.MaxStep = 60
	integ, err := integrator.NewAdaptive(integrator.DormandPrince54, opts)
	if err != nil {
		t.Fatal(err)
	}
	return NewIntegrating(dynamics.NewAggregator(body, smd.J2000, &dynamics.Monopole{}), integ, smd.FixedMass(500))
}

func TestKeplerianCircularPeriod(t *testing.T) {
	// Circular orbit at 7000 km about a point mass of μ=3.986e14.
	for _, incl := range []float64{0, smd.Deg2rad(51.6), smd.Deg2rad(98)} {
		s0 := circular(pointMass, 7000e3, incl)
		k := NewKeplerian(pointMass, false)
		if err := k.Initialize(s0); err != nil {
			t.Fatal(err)
		}
		period := time.Duration(2 * math.Pi * math.Sqrt(math.Pow(7000e3, 3)/pointMass.GM()) * float64(time.Second))
		s1, err := k.Update(epoch.Add(period))
		if err != nil {
			t.Fatal(err)
		}
		if d := r3.Norm(r3.Sub(s1.R, s0.R)); d > 1 {
			t.Fatalf("i=%f: position differs by %f m after one period", incl, d)
		}
		if d := r3.Norm(r3.Sub(s1.V, s0.V)); d > 1e-3 {
			t.Fatalf("i=%f: velocity differs by %f m/s after one period", incl, d)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	s0 := leo()
	integ := newTwoBody(t, smd.Earth, 1e-6)
	for _, p := range []smd.Propagator{NewKeplerian(smd.Earth, false), NewKeplerian(smd.Earth, true), integ} {
		if err := p.Initialize(s0); err != nil {
			t.Fatal(err)
		}
		s1, err := p.Update(epoch)
		if err != nil {
			t.Fatal(err)
		}
		relClose(t, "round trip", s1, s0, 1e-6)
		if s1.Frame != s0.Frame {
			t.Fatalf("frame changed from %s to %s", s0.Frame, s1.Frame)
		}
	}
}

func TestIntegratingMatchesKeplerian(t *testing.T) {
	s0 := leo()
	k := NewKeplerian(smd.Earth, false)
	if err := k.Initialize(s0); err != nil {
		t.Fatal(err)
	}
	p := newTwoBody(t, smd.Earth, 1e-6)
	if err := p.Initialize(s0); err != nil {
		t.Fatal(err)
	}
	// Several updates, also backwards.
	for _, dt := range []time.Duration{10 * time.Minute, 50 * time.Minute, 92 * time.Minute, 30 * time.Minute} {
		exp, err := k.Update(epoch.Add(dt))
		if err != nil {
			t.Fatal(err)
		}
		got, err := p.Update(epoch.Add(dt))
		if err != nil {
			t.Fatal(err)
		}
		if ok, err := got.Equals(exp, 1, 1e-3); !ok {
			t.Fatalf("after %s: %s", dt, err)
		}
	}
}

func TestIntegratingMonotonicity(t *testing.T) {
	s0 := leo()
	k := NewKeplerian(smd.Earth, false)
	if err := k.Initialize(s0); err != nil {
		t.Fatal(err)
	}
	end := epoch.Add(45 * time.Minute)
	exp, _ := k.Update(end)
	prev := math.Inf(1)
	for _, tol := range []float64{1e-2, 1e-4, 1e-6} {
		p := newTwoBody(t, smd.Earth, tol)
		if err := p.Initialize(s0); err != nil {
			t.Fatal(err)
		}
		got, err := p.Update(end)
		if err != nil {
			t.Fatal(err)
		}
		d := r3.Norm(r3.Sub(got.R, exp.R))
		if d > prev {
			t.Fatalf("tolerance %g: error %f m is larger than %f m with a looser tolerance", tol, d, prev)
		}
		prev = d
	}
}

func TestKeplerianPrecession(t *testing.T) {
	s0 := leo()
	k := NewKeplerian(smd.Earth, true)
	if err := k.Initialize(s0); err != nil {
		t.Fatal(err)
	}
	if _, err := k.Update(epoch.Add(24 * time.Hour)); err != nil {
		t.Fatal(err)
	}
	// Signed, so that a node moving back across zero is still a regression.
	ΔΩ := math.Remainder(k.Elements().RAAN()-smd.ToElements(s0, smd.Earth).RAAN(), 2*math.Pi)
	// About five degrees per day westward for the ISS.
	if deg := ΔΩ * 180 / math.Pi; deg > -4.5 || deg < -5.5 {
		t.Fatalf("unexpected nodal regression of %f deg/day", deg)
	}
	if !scalar.EqualWithinRel(k.Elements().SMA(), 6778e3, 1e-9) {
		t.Fatalf("secular J2 must not change the semi major axis: %f", k.Elements().SMA())
	}
}

func TestKeplerianPassages(t *testing.T) {
	s0 := circular(pointMass, 7000e3, smd.Deg2rad(45))
	k := NewKeplerian(pointMass, false)
	if err := k.Initialize(s0); err != nil {
		t.Fatal(err)
	}
	period := 2 * math.Pi * math.Sqrt(math.Pow(7000e3, 3)/pointMass.GM())
	// The orbit starts at the ascending node.
	if d := k.TimeToAscendingNode(1).Seconds(); !scalar.EqualWithinAbs(d, period, 1e-3) && !scalar.EqualWithinAbs(d, 2*period, 1e-3) {
		t.Fatalf("expected about one period to the node, got %f s (period %f s)", d, period)
	}
	if _, err := k.Update(epoch.Add(time.Duration(period / 4 * float64(time.Second)))); err != nil {
		t.Fatal(err)
	}
	if d := k.TimeToAscendingNode(0).Seconds(); !scalar.EqualWithinAbs(d, 0.75*period, 1e-2) {
		t.Fatalf("expected three quarters of a period to the node, got %f s (period %f s)", d, period)
	}
}

func TestInitializationErrors(t *testing.T) {
	var initErr *smd.InitializationError
	tle := smd.MeanElements{MeanMotion: 1e-3, Epoch: epoch}
	if err := NewKeplerian(smd.Earth, false).Initialize(tle); !errors.As(err, &initErr) {
		t.Fatalf("mean elements are not a state: %v", err)
	}
	hyperbolic := smd.NewState(epoch, smd.J2000, r3.Vec{X: 7000e3}, r3.Vec{Y: 20e3})
	if err := NewKeplerian(smd.Earth, false).Initialize(hyperbolic); !errors.As(err, &initErr) {
		t.Fatalf("hyperbolic orbits are not supported: %v", err)
	}
	agg := dynamics.NewAggregator(smd.Earth, smd.J2000, &dynamics.Monopole{})
	integ, _ := integrator.New("dormand_prince", nil)
	for _, p := range []*Integrating{NewIntegrating(nil, integ, nil), NewIntegrating(agg, nil, nil)} {
		if err := p.Initialize(leo()); !errors.As(err, &initErr) {
			t.Fatalf("missing component should fail initialization: %v", err)
		}
		if _, err := p.Update(epoch); !errors.Is(err, ErrNotInitialized) {
			t.Fatalf("update of an uninitialized propagator: %v", err)
		}
	}
	if err := NewIntegrating(agg, integ, nil).Initialize(tle); !errors.As(err, &initErr) {
		t.Fatalf("mean elements are not a state: %v", err)
	}
}

func TestIntegratingClone(t *testing.T) {
	mass := 800.0
	p := newTwoBody(t, smd.Earth, 1e-6)
	p.Mass = smd.MassFunc(func() float64 { return mass })
	if err := p.Initialize(leo()); err != nil {
		t.Fatal(err)
	}
	c := p.Clone().(*Integrating)
	if c.ID() == p.ID() {
		t.Fatal("clone should have its own identifier")
	}
	if c.Integrator == p.Integrator {
		t.Fatal("clone should have its own integrator")
	}
	mass = 700
	if c.DynamicalMass() != 800 || p.DynamicalMass() != 700 {
		t.Fatalf("clone mass should be frozen: clone=%f original=%f", c.DynamicalMass(), p.DynamicalMass())
	}
	end := epoch.Add(20 * time.Minute)
	sc, err := c.Update(end)
	if err != nil {
		t.Fatal(err)
	}
	if !p.OrbitalState().Epoch.Equal(epoch) {
		t.Fatal("updating the clone moved the original")
	}
	sp, err := p.Update(end)
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := sp.Equals(sc, 1e-6, 1e-9); !ok {
		t.Fatalf("clone and original disagree: %s", err)
	}
}

func TestIntegratingOutputFrame(t *testing.T) {
	s0 := leo().In(smd.TEME)
	p := newTwoBody(t, smd.Earth, 1e-6)
	if err := p.Initialize(s0); err != nil {
		t.Fatal(err)
	}
	s1, err := p.Update(epoch.Add(time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	if s1.Frame != smd.TEME {
		t.Fatalf("expected TEME output, got %s", s1.Frame)
	}
}

func TestIntegratingInitializeQuiet(t *testing.T) {
	var buf bytes.Buffer
	prev := smd.Logger()
	smd.SetLogger(smd.NewLogger(&buf, "logfmt", "info"))
	defer smd.SetLogger(prev)

	p := newTwoBody(t, pointMass, 1e-9)
	for i := 0; i < 3; i++ {
		if err := p.Clone().Initialize(leo()); err != nil {
			t.Fatal(err)
		}
	}
	if buf.Len() != 0 {
		t.Fatalf("initialization logged at info level:\n%s", buf.String())
	}
	if err := p.Initialize(leo()); err != nil {
		t.Fatal(err)
	}
	p.LogStatus()
	if !bytes.Contains(buf.Bytes(), []byte("level=info")) {
		t.Fatalf("status not logged: %q", buf.String())
	}
}
