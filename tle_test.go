package smd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
	vgdLine1 = "1 00005U 58002B   00179.78495062  .00000023  00000-0  28098-4 0  4753"
	vgdLine2 = "2 00005  34.2682 348.7242 1859667 331.7664  19.3264 10.82419157413667"
)

func TestParseTLE(t *testing.T) {
	m, err := ParseTLE("ISS (ZARYA)\n" + issLine1 + "\r\n" + issLine2 + "\n")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "ISS (ZARYA)" || m.SatelliteNumber != 25544 || m.Classification != 'U' || m.Designator != "98067A" {
		t.Fatalf("identification fields: %+v", m)
	}
	epoch := time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(263.51782528 * 86400 * float64(time.Second)))
	if d := m.Epoch.Sub(epoch); d > time.Microsecond || d < -time.Microsecond {
		t.Fatalf("epoch %s, expected %s", m.Epoch, epoch)
	}
	for _, c := range []struct {
		name     string
		got, exp float64
	}{
		{"mean motion (rev/day)", m.MeanMotion / revPerDay, 15.72125391},
		{"mean motion dot (rev/day²)", m.MeanMotionDot * secondsPerDay / revPerDay, -0.00002182},
		{"BSTAR", m.BStar, -0.11606e-4},
		{"eccentricity", m.Eccentricity, 0.0006703},
		{"inclination", Rad2deg(m.Inclination), 51.6416},
		{"RAAN", Rad2deg(m.RAAN), 247.4627},
		{"argument of perigee", Rad2deg(m.ArgPerigee), 130.5360},
		{"mean anomaly", Rad2deg(m.MeanAnomaly), 325.0288},
	} {
		if !scalar.EqualWithinAbs(c.got, c.exp, 1e-12) {
			t.Fatalf("%s = %g, expected %g", c.name, c.got, c.exp)
		}
	}
	if m.MeanMotionDDot != 0 || m.EphemerisType != 0 || m.ElementNumber != 292 || m.RevolutionNumber != 56353 {
		t.Fatalf("integer fields: %+v", m)
	}
	if !m.InitialEpoch().Equal(m.Epoch) {
		t.Fatal("initial epoch")
	}
}

func TestFormatTLE(t *testing.T) {
	for _, lines := range [][2]string{{issLine1, issLine2}, {vgdLine1, vgdLine2}} {
		m, err := ParseTLE(lines[0] + "\n" + lines[1])
		if err != nil {
			t.Fatal(err)
		}
		l1, l2 := m.TLE()
		if l1 != lines[0] || l2 != lines[1] {
			t.Fatalf("formatted\n%s\n%s\nexpected\n%s\n%s", l1, l2, lines[0], lines[1])
		}
	}
}

func TestParseTLEErrors(t *testing.T) {
	corrupt := issLine1[:68] + "0"
	swapped := strings.Replace(issLine2, "25544", "25545", 1)
	for name, text := range map[string]string{
		"one line":       issLine1,
		"four lines":     "a\nb\n" + issLine1 + "\n" + issLine2,
		"short line":     issLine1[:60] + "\n" + issLine2,
		"lines swapped":  issLine2 + "\n" + issLine1,
		"checksum":       corrupt + "\n" + issLine2,
		"other number":   issLine1 + "\n" + swapped[:68] + "8",
		"bad mean anom.": issLine1 + "\n" + strings.Replace(issLine2, "325.0288", "325.0x88", 1),
	} {
		if _, err := ParseTLE(text); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
	if _, err := ParseTLE(corrupt + "\n" + issLine2); !errors.Is(err, ErrChecksum) {
		t.Fatalf("expected a checksum error, got %v", err)
	}
}

func TestExpNotation(t *testing.T) {
	for _, c := range []struct {
		field string
		v     float64
	}{
		{" 12345-3", 0.12345e-3}, {"-11606-4", -0.11606e-4}, {" 00000-0", 0}, {"        ", 0}, {"+50000+1", 5},
	} {
		got, err := parseExp(c.field, "test")
		if err != nil {
			t.Fatal(err)
		}
		if !scalar.EqualWithinRel(got, c.v, 1e-12) && got != c.v {
			t.Fatalf("%q parsed as %g, expected %g", c.field, got, c.v)
		}
		if c.v != 0 && formatExp(c.v) != strings.Replace(c.field, "+5", " 5", 1) {
			t.Fatalf("%g formatted as %q", c.v, formatExp(c.v))
		}
	}
	if _, err := parseExp(" 1x", "test"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestMeanElementsValidate(t *testing.T) {
	valid := MeanElements{MeanMotion: 15 * revPerDay, Eccentricity: 0.1, Inclination: 1}
	if err := valid.Validate(); err != nil {
		t.Fatal(err)
	}
	for name, mod := range map[string]func(*MeanElements){
		"mean motion":  func(m *MeanElements) { m.MeanMotion = 0 },
		"eccentricity": func(m *MeanElements) { m.Eccentricity = 1 },
		"negative e":   func(m *MeanElements) { m.Eccentricity = -0.1 },
		"inclination":  func(m *MeanElements) { m.Inclination = 4 },
	} {
		m := valid
		mod(&m)
		if m.Validate() == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}
