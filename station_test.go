package smd

import (
	"math"
	"testing"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

func TestStationOverhead(t *testing.T) {
	dt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	st := NewStation("equator", 0, 0, 0, 10)
	// Directly above the station, rising at 100 m/s.
	above := NewState(dt, BodyFixed, r3.Vec{X: Earth.Radius + 500e3}, r3.Vec{X: 100, Z: 7000})
	m := st.Measure(above.In(J2000), nil)
	if !m.Visible || !scalar.EqualWithinAbs(m.Elevation, math.Pi/2, 1e-6) {
		t.Fatalf("elevation %f deg", Rad2deg(m.Elevation))
	}
	if !scalar.EqualWithinAbs(m.Range, 500e3, 1e-5) || !scalar.EqualWithinAbs(m.RangeRate, 100, 1e-8) {
		t.Fatalf("range %f m, range rate %f m/s", m.Range, m.RangeRate)
	}
	if m.Range != m.TrueRange || m.RangeRate != m.TrueRangeRate || !m.Epoch.Equal(dt) || m.Station != "equator" {
		t.Fatalf("noiseless measurement %+v", m)
	}

	// Low on the northern then eastern horizons.
	for _, c := range []struct {
		name string
		R    r3.Vec
		az   float64
	}{
		{"north", r3.Vec{X: Earth.Radius + 100e3, Z: 1000e3}, 0},
		{"east", r3.Vec{X: Earth.Radius + 100e3, Y: 1000e3}, math.Pi / 2},
	} {
		m := st.Measure(NewState(dt, BodyFixed, c.R, r3.Vec{}), nil)
		if !anglesEqual(m.Azimuth, c.az) || m.Elevation < 0 || m.Elevation > Deg2rad(10) || m.Visible {
			t.Fatalf("%s: azimuth %f deg, elevation %f deg, visible %t", c.name, Rad2deg(m.Azimuth), Rad2deg(m.Elevation), m.Visible)
		}
	}

	// The other side of the Earth is not visible.
	below := st.Measure(NewState(dt, BodyFixed, r3.Vec{X: -Earth.Radius - 500e3}, r3.Vec{}), nil)
	if below.Visible || below.Elevation > -Deg2rad(80) {
		t.Fatalf("antipode elevation %f deg", Rad2deg(below.Elevation))
	}
}

func TestStationNoise(t *testing.T) {
	st := NewStation("noisy", 45, 10, 0, 0)
	if st.Noise(rand.NewSource(1)) != nil {
		t.Fatal("a station without sigmas is noiseless")
	}
	st.RangeSigma, st.RangeRateSigma = 5, 5e-3
	noise := st.Noise(rand.NewSource(1))
	if noise == nil {
		t.Fatal("no noise model")
	}
	dt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := NewState(dt, BodyFixed, r3.Scale(1.1, st.R), r3.Vec{Y: 10})
	ranges := make([]float64, 4000)
	for i := range ranges {
		m := st.Measure(s, noise)
		ranges[i] = m.Range - m.TrueRange
	}
	mean, std := stat.MeanStdDev(ranges, nil)
	if math.Abs(mean) > 0.5 || math.Abs(std-5) > 0.5 {
		t.Fatalf("range noise mean %f std %f", mean, std)
	}
}

func TestStationFromName(t *testing.T) {
	for _, name := range []string{"DSS13", "dss34", "dss65"} {
		st, err := StationFromName(name)
		if err != nil {
			t.Fatal(err)
		}
		if alt := ECEFToGeodetic(st.R, Earth).Altitude; !scalar.EqualWithinAbs(alt, st.Location.Altitude, 1e-3) {
			t.Fatalf("%s: altitude %f", st, alt)
		}
	}
	if DSS34Canberra.Location.Latitude >= 0 {
		t.Fatal("Canberra is in the southern hemisphere")
	}
	if _, err := StationFromName("dss99"); err == nil {
		t.Fatal("expected an error")
	}
}
