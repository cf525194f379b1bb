package scenario

import (
	"fmt"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

func TestSampleDeterministic(t *testing.T) {
	d := Dispersion{Count: 2000, SigmaPosition: 100, SigmaVelocity: 0.1, Seed: 42}
	a, err := d.Sample()
	if err != nil {
		t.Fatal(err)
	}
	b, err := d.Sample()
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("draw %d differs between identical seeds", i)
		}
	}
	for k, σ := range []float64{100, 100, 100, 0.1, 0.1, 0.1} {
		column := make([]float64, len(a))
		for i := range a {
			column[i] = a[i][k]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if !scalar.EqualWithinAbs(mean, 0, 0.1*σ) || !scalar.EqualWithinRel(std, σ, 0.1) {
			t.Fatalf("axis %d: mean %g std %g, expected σ=%g", k, mean, std, σ)
		}
	}
}

func TestSampleZeroSigma(t *testing.T) {
	offsets, err := Dispersion{Count: 3, SigmaPosition: 10}.Sample()
	if err != nil {
		t.Fatal(err)
	}
	for _, δ := range offsets {
		if δ[0] == 0 || δ[3] != 0 || δ[4] != 0 || δ[5] != 0 {
			t.Fatalf("unexpected offset %v", δ)
		}
	}
	offsets, err = Dispersion{Count: 3}.Sample()
	if err != nil {
		t.Fatal(err)
	}
	if len(offsets) != 3 || offsets[2] != [6]float64{} {
		t.Fatalf("unexpected offsets %v", offsets)
	}
}

func TestEnsembleKeplerian(t *testing.T) {
	extra := `
[ensemble]
count = 8
sigma_position = 100.0
sigma_velocity = 0.1
seed = 7
`
	sc := load(t, "ensemble.toml", circularTOML("keplerian", extra))
	run := func() []Member {
		members, err := sc.Ensemble()
		if err != nil {
			t.Fatal(err)
		}
		return members
	}
	first, second := run(), run()
	if len(first) != 8 {
		t.Fatalf("expected 8 members, got %d", len(first))
	}
	nominal := sc.Propagator.OrbitalState()
	for i, m := range first {
		if m.Err != nil {
			t.Fatalf("member %d: %s", i, m.Err)
		}
		if m.Index != i || len(m.States) != 7 {
			t.Fatalf("member %d: index %d with %d states", i, m.Index, len(m.States))
		}
		if d := r3.Norm(r3.Sub(m.Initial.R, nominal.R)); d == 0 || d > 1000 {
			t.Fatalf("member %d: dispersed by %f m", i, d)
		}
		last, again := m.States[6], second[i].States[6]
		if last.R != again.R || last.V != again.V {
			t.Fatalf("member %d differs between runs", i)
		}
	}
}

func TestEnsembleNORAD(t *testing.T) {
	toml := fmt.Sprintf(`
[propagator]
type = "norad"

[propagator.elements]
line1 = "%s"
line2 = "%s"

[output]
end = 2008-09-21T13:25:40Z
step = 600.0

[ensemble]
count = 3
sigma_position = 10.0
sigma_velocity = 0.01
`, issLine1, issLine2)
	sc := load(t, "norad.toml", toml)
	members, err := sc.Ensemble()
	if err != nil {
		t.Fatal(err)
	}
	nominal := sc.Propagator.OrbitalState()
	for _, m := range members {
		if m.Err != nil {
			t.Fatalf("member %d: %s", m.Index, m.Err)
		}
		if m.Elements == nil || m.Elements.SatelliteNumber != 25544 {
			t.Fatalf("member %d: elements %+v", m.Index, m.Elements)
		}
		if ok, err := m.States[0].Equals(m.Initial, 15, 0.2); !ok {
			t.Fatalf("member %d does not start from its dispersed state: %s", m.Index, err)
		}
		if d := r3.Norm(r3.Sub(m.States[0].R, nominal.R)); d > 200 {
			t.Fatalf("member %d: %f m from nominal", m.Index, d)
		}
	}
}
