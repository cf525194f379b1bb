package scenario

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/norad"
	"github.com/lanan07075/aldev-sub001/prop"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func load(t *testing.T, name, content string) *Scenario {
	t.Helper()
	sc, err := Load(write(t, name, content))
	if err != nil {
		t.Fatalf("loading %s: %s", name, err)
	}
	return sc
}

// circularTOML is a circular 7000 km equatorial orbit about the Earth, over one hour.
func circularTOML(typ, extra string) string {
	v := math.Sqrt(smd.Earth.GM() / 7000e3)
	return fmt.Sprintf(`
[propagator]
type = %q
body = "earth"
mass = 500.0

[propagator.state]
epoch = 2024-01-01T00:00:00Z
frame = "J2000"
position = [7000000.0, 0.0, 0.0]
velocity = [0.0, %.9f, 0.0]

[output]
end = 2024-01-01T01:00:00Z
step = 600.0
%s`, typ, v, extra)
}

func TestLoadKeplerian(t *testing.T) {
	sc := load(t, "kepler.toml", circularTOML("keplerian", ""))
	if sc.Type != Keplerian {
		t.Fatalf("type %q", sc.Type)
	}
	if _, ok := sc.Propagator.(*prop.Keplerian); !ok {
		t.Fatalf("unexpected propagator %T", sc.Propagator)
	}
	if sc.Propagator.DynamicalMass() != 500 {
		t.Fatalf("mass %f", sc.Propagator.DynamicalMass())
	}
	states, err := sc.Propagate()
	if err != nil {
		t.Fatal(err)
	}
	if len(states) != 7 {
		t.Fatalf("expected 7 states, got %d", len(states))
	}
	exp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !states[0].Epoch.Equal(exp) || !states[6].Epoch.Equal(exp.Add(time.Hour)) {
		t.Fatalf("span %s to %s", states[0].Epoch, states[6].Epoch)
	}
	for _, s := range states {
		if !scalar.EqualWithinRel(r3.Norm(s.R), 7000e3, 1e-9) {
			t.Fatalf("radius %f at %s", r3.Norm(s.R), s.Epoch)
		}
	}
	// The scenario propagator is not moved by Propagate.
	if !sc.Propagator.OrbitalState().Epoch.Equal(exp) {
		t.Fatal("scenario propagator was updated")
	}
}

func TestLoadIntegrating(t *testing.T) {
	extra := `
[integrator]
type = "dormand_prince"
tolerance = 1e-9
max_step = 60.0

[[dynamics.terms]]
type = "monopole"

[[dynamics.terms]]
type = "j2"
`
	sc := load(t, "integ.toml", circularTOML("integrating", extra))
	p, ok := sc.Propagator.(*prop.Integrating)
	if !ok {
		t.Fatalf("unexpected propagator %T", sc.Propagator)
	}
	if n := len(p.Dynamics.Terms()); n != 2 {
		t.Fatalf("expected two terms, got %d", n)
	}
	if p.Integrator.Name() != "dormand_prince" {
		t.Fatalf("integrator %s", p.Integrator.Name())
	}
	states, err := sc.Propagate()
	if err != nil {
		t.Fatal(err)
	}
	// J2 keeps an equatorial orbit within a few km of its radius over an hour.
	last := states[len(states)-1]
	if d := math.Abs(r3.Norm(last.R) - 7000e3); d > 20e3 {
		t.Fatalf("radius drifted by %f m", d)
	}
}

func TestLoadNORADElements(t *testing.T) {
	yaml := fmt.Sprintf(`
propagator:
  type: norad
  output_frame: J2000
  elements:
    name: ISS (ZARYA)
    line1: "%s"
    line2: "%s"
output:
  end: 2008-09-21T14:25:40Z
  step: 300
`, issLine1, issLine2)
	sc := load(t, "iss.yaml", yaml)
	p, ok := sc.Propagator.(*norad.Propagator)
	if !ok {
		t.Fatalf("unexpected propagator %T", sc.Propagator)
	}
	if p.Variant() != norad.SGP4 {
		t.Fatalf("variant %s", p.Variant())
	}
	if sc.Inversion != nil {
		t.Fatal("no inversion expected for elements")
	}
	m, ok := sc.Initial.(smd.MeanElements)
	if !ok || m.Name != "ISS (ZARYA)" || m.SatelliteNumber != 25544 {
		t.Fatalf("unexpected initial condition %+v", sc.Initial)
	}
	states, err := sc.Propagate()
	if err != nil {
		t.Fatal(err)
	}
	if len(states) < 2 {
		t.Fatalf("expected several states, got %d", len(states))
	}
	for _, s := range states {
		if s.Frame != smd.J2000 {
			t.Fatalf("frame %s", s.Frame)
		}
	}
}

func TestLoadNORADVariantOverride(t *testing.T) {
	toml := fmt.Sprintf(`
[propagator]
type = "norad"
variant = "sgp8"

[propagator.elements]
line1 = "%s"
line2 = "%s"
`, issLine1, issLine2)
	sc := load(t, "sgp8.toml", toml)
	if v := sc.Propagator.(*norad.Propagator).Variant(); v != norad.SGP8 {
		t.Fatalf("variant %s", v)
	}

	toml = fmt.Sprintf(`
[propagator]
type = "norad"

[propagator.elements]
line1 = "%s"
line2 = "%s"
ephemeris_type = 0
`, issLine1, issLine2)
	sc = load(t, "sgp.toml", toml)
	if v := sc.Propagator.(*norad.Propagator).Variant(); v != norad.SGP {
		t.Fatalf("variant %s", v)
	}
}

func TestLoadNORADState(t *testing.T) {
	iss, err := smd.ParseTLE(issLine1 + "\n" + issLine2)
	if err != nil {
		t.Fatal(err)
	}
	ref := norad.New(1, smd.TEME)
	if err := ref.Initialize(iss); err != nil {
		t.Fatal(err)
	}
	s := ref.OrbitalState()
	toml := fmt.Sprintf(`
[propagator]
type = "norad"

[propagator.state]
epoch = %s
frame = "TEME"
position = [%.6f, %.6f, %.6f]
velocity = [%.9f, %.9f, %.9f]

[inversion]
tolerance = 1e-8
`, s.Epoch.Format(time.RFC3339Nano), s.R.X, s.R.Y, s.R.Z, s.V.X, s.V.Y, s.V.Z)
	sc := load(t, "inverted.toml", toml)
	if sc.Inversion == nil || !sc.Inversion.Converged {
		t.Fatalf("inversion did not converge: %+v", sc.Inversion)
	}
	if sc.InversionOptions.Tolerance != 1e-8 {
		t.Fatalf("tolerance %g", sc.InversionOptions.Tolerance)
	}
	got := sc.Propagator.OrbitalState()
	if ok, err := got.Equals(s, 1, 0.01); !ok {
		t.Fatal(err)
	}
}

func TestConfigurationErrors(t *testing.T) {
	state := `
[propagator.state]
epoch = 2024-01-01T00:00:00Z
position = [7000000.0, 0.0, 0.0]
velocity = [0.0, 7500.0, 0.0]
`
	for _, tc := range []struct {
		name, content string
	}{
		{"unknown type", `[propagator]
type = "magic"` + state},
		{"unknown body", `[propagator]
type = "keplerian"
body = "vulcan"` + state},
		{"negative mass", `[propagator]
type = "keplerian"
mass = -1.0` + state},
		{"no initial condition", `[propagator]
type = "keplerian"`},
		{"keplerian with elements", fmt.Sprintf(`[propagator]
type = "keplerian"
[propagator.elements]
line1 = "%s"
line2 = "%s"`, issLine1, issLine2)},
		{"bad frame", `[propagator]
type = "keplerian"
[propagator.state]
epoch = 2024-01-01T00:00:00Z
frame = "ICRF2"
position = [7000000.0, 0.0, 0.0]
velocity = [0.0, 7500.0, 0.0]`},
		{"missing epoch", `[propagator]
type = "keplerian"
[propagator.state]
position = [7000000.0, 0.0, 0.0]
velocity = [0.0, 7500.0, 0.0]`},
		{"two components", `[propagator]
type = "keplerian"
[propagator.state]
epoch = 2024-01-01T00:00:00Z
position = [7000000.0, 0.0]
velocity = [0.0, 7500.0, 0.0]`},
		{"unknown term", `[propagator]
type = "integrating"
[[dynamics.terms]]
type = "warp"` + state},
		{"negative drag area", `[propagator]
type = "integrating"
[[dynamics.terms]]
type = "drag"
area = -2.0` + state},
		{"unknown integrator", `[propagator]
type = "integrating"
[integrator]
type = "euler"` + state},
		{"min step above max step", `[propagator]
type = "integrating"
[integrator]
min_step = 100.0
max_step = 10.0` + state},
		{"negative inversion tolerance", `[propagator]
type = "norad"
[inversion]
tolerance = -1.0` + state},
		{"negative sigma", `[propagator]
type = "keplerian"
[ensemble]
count = 2
sigma_position = -1.0` + state},
		{"end before start", `[propagator]
type = "keplerian"
[output]
end = 2023-01-01T00:00:00Z
step = 60.0` + state},
		{"span without step", `[propagator]
type = "keplerian"
[output]
end = 2024-01-02T00:00:00Z` + state},
	} {
		_, err := Load(write(t, "bad.toml", tc.content))
		var cerr *smd.ConfigurationError
		if !errors.As(err, &cerr) {
			t.Fatalf("%s: expected a configuration error, got %v", tc.name, err)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	var cerr *smd.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a configuration error, got %v", err)
	}
}

func TestSpanEpochs(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		span Span
		n    int
	}{
		{Span{start, start, 0}, 1},
		{Span{start, start.Add(time.Hour), 10 * time.Minute}, 7},
		{Span{start, start.Add(time.Hour + time.Minute), 10 * time.Minute}, 7},
		{Span{start, start.Add(-time.Hour), time.Minute}, 1},
	} {
		if n := len(tc.span.Epochs()); n != tc.n {
			t.Fatalf("%+v: expected %d epochs, got %d", tc.span, tc.n, n)
		}
	}
}

func TestStations(t *testing.T) {
	sc := load(t, "stations.toml", circularTOML("keplerian", `
[ensemble]
seed = 7

[[stations]]
name = "dss13"

[[stations]]
name = "everywhere"
latitude = 0.0
longitude = 0.0
min_elevation = -90.0
range_sigma = 10.0
range_rate_sigma = 0.01
`))
	if len(sc.Stations) != 2 || sc.Stations[0].Name != smd.DSS13Goldstone.Name {
		t.Fatalf("stations %v", sc.Stations)
	}
	states, err := sc.Propagate()
	if err != nil {
		t.Fatal(err)
	}
	ms := sc.Measure(states)
	var everywhere []smd.Measurement
	for _, m := range ms {
		if !m.Visible {
			t.Fatalf("invisible measurement %s", m)
		}
		if m.Station == "everywhere" {
			everywhere = append(everywhere, m)
		}
	}
	if len(everywhere) != len(states) {
		t.Fatalf("expected %d measurements, got %d", len(states), len(everywhere))
	}
	noisy := false
	for i, m := range everywhere {
		if !m.Epoch.Equal(states[i].Epoch) {
			t.Fatalf("measurement %d at %s", i, m.Epoch)
		}
		if m.Range != m.TrueRange {
			noisy = true
		}
		if math.Abs(m.Range-m.TrueRange) > 100 {
			t.Fatalf("range noise of %f m", m.Range-m.TrueRange)
		}
	}
	if !noisy {
		t.Fatal("no noise applied")
	}
	// Same seed, same noise.
	again := sc.Measure(states)
	if len(again) != len(ms) || again[len(again)-1].Range != ms[len(ms)-1].Range {
		t.Fatal("measurements are not reproducible")
	}

	for name, extra := range map[string]string{
		"unknown":  "[[stations]]\nname = \"dss99\"\n",
		"no name":  "[[stations]]\nlatitude = 1.0\n",
		"latitude": "[[stations]]\nname = \"x\"\nlatitude = 91.0\n",
		"sigma":    "[[stations]]\nname = \"x\"\nlatitude = 1.0\nrange_sigma = -1.0\n",
	} {
		_, err := Load(write(t, name+".toml", circularTOML("keplerian", extra)))
		var cerr *smd.ConfigurationError
		if !errors.As(err, &cerr) {
			t.Fatalf("%s: expected a configuration error, got %v", name, err)
		}
	}
}
