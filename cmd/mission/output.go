package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/invert"
	"github.com/lanan07075/aldev-sub001/norad"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))
)

type stateRecord struct {
	Epoch    time.Time  `yaml:"epoch"`
	Position [3]float64 `yaml:"position_m,flow"`
	Velocity [3]float64 `yaml:"velocity_m_s,flow"`
}

func newStateRecord(s smd.State) stateRecord {
	return stateRecord{Epoch: s.Epoch, Position: [3]float64{s.R.X, s.R.Y, s.R.Z}, Velocity: [3]float64{s.V.X, s.V.Y, s.V.Z}}
}

type measurementRecord struct {
	Station   string    `yaml:"station"`
	Epoch     time.Time `yaml:"epoch"`
	Range     float64   `yaml:"range_m"`
	RangeRate float64   `yaml:"range_rate_m_s"`
	Elevation float64   `yaml:"elevation_deg"`
	Azimuth   float64   `yaml:"azimuth_deg"`
}

func newMeasurementRecord(m smd.Measurement) measurementRecord {
	return measurementRecord{
		Station:   m.Station,
		Epoch:     m.Epoch,
		Range:     m.Range,
		RangeRate: m.RangeRate,
		Elevation: m.Elevation * 180 / math.Pi,
		Azimuth:   smd.Rad2deg(m.Azimuth),
	}
}

// elementsRecord is a mean element set in the usual TLE units.
type elementsRecord struct {
	Name            string    `yaml:"name,omitempty"`
	SatelliteNumber int       `yaml:"satellite_number"`
	Epoch           time.Time `yaml:"epoch"`
	MeanMotion      float64   `yaml:"mean_motion_rev_day"`
	Eccentricity    float64   `yaml:"eccentricity"`
	Inclination     float64   `yaml:"inclination_deg"`
	RAAN            float64   `yaml:"raan_deg"`
	ArgPerigee      float64   `yaml:"arg_perigee_deg"`
	MeanAnomaly     float64   `yaml:"mean_anomaly_deg"`
	BStar           float64   `yaml:"bstar"`
	EphemerisType   int       `yaml:"ephemeris_type"`
	Line1           string    `yaml:"line1"`
	Line2           string    `yaml:"line2"`
}

func newElementsRecord(m smd.MeanElements) elementsRecord {
	l1, l2 := m.TLE()
	return elementsRecord{
		Name:            m.Name,
		SatelliteNumber: m.SatelliteNumber,
		Epoch:           m.Epoch,
		MeanMotion:      m.MeanMotion * 86400 / (2 * math.Pi),
		Eccentricity:    m.Eccentricity,
		Inclination:     smd.Rad2deg(m.Inclination),
		RAAN:            smd.Rad2deg(m.RAAN),
		ArgPerigee:      smd.Rad2deg(m.ArgPerigee),
		MeanAnomaly:     smd.Rad2deg(m.MeanAnomaly),
		BStar:           m.BStar,
		EphemerisType:   m.EphemerisType,
		Line1:           l1,
		Line2:           l2,
	}
}

type inversionRecord struct {
	Converged  bool           `yaml:"converged"`
	Iterations int            `yaml:"iterations"`
	Residual   float64        `yaml:"residual"`
	Elements   elementsRecord `yaml:"elements"`
}

func newInversionRecord(r invert.Result) *inversionRecord {
	return &inversionRecord{Converged: r.Converged, Iterations: r.Iterations, Residual: r.Residual, Elements: newElementsRecord(r.Elements)}
}

// writeYAML writes the document to the path, or to stdout for "" and "-".
func writeYAML(path string, doc interface{}) error {
	var w io.Writer = os.Stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// summary renders a titled box of label/value rows.
func summary(title string, rows [][2]string) string {
	width := 0
	for _, r := range rows {
		if len(r[0]) > width {
			width = len(r[0])
		}
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	for _, r := range rows {
		b.WriteString("\n" + labelStyle.Render(fmt.Sprintf("%-*s", width, r[0])) + "  " + r[1])
	}
	return boxStyle.Render(b.String())
}

func elementsRows(m smd.MeanElements, hint int) [][2]string {
	deep := norad.IsDeepSpace(m)
	v, _ := norad.Resolve(m, hint)
	return [][2]string{
		{"satellite", fmt.Sprintf("%05d %s", m.SatelliteNumber, m.Name)},
		{"epoch", m.Epoch.Format(time.RFC3339Nano)},
		{"mean motion", fmt.Sprintf("%.8f rev/day", m.MeanMotion*86400/(2*math.Pi))},
		{"eccentricity", fmt.Sprintf("%.7f", m.Eccentricity)},
		{"inclination", fmt.Sprintf("%.4f deg", smd.Rad2deg(m.Inclination))},
		{"deep space", fmt.Sprintf("%t", deep)},
		{"variant", v.String()},
	}
}

// altitudePlot plots the altitude above the body radius, in km.
func altitudePlot(states []smd.State, body smd.CelestialObject) string {
	if len(states) < 2 {
		return ""
	}
	alt := make([]float64, len(states))
	for i, s := range states {
		alt[i] = (r3.Norm(s.R) - body.Radius) / 1e3
	}
	return asciigraph.Plot(alt, asciigraph.Height(12), asciigraph.Width(72), asciigraph.Caption("altitude (km) from "+states[0].Epoch.Format(time.RFC3339)))
}
