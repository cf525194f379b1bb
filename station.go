package smd

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat/distmv"
)

// Deep space network antennas, on the WGS-84 Earth.
var (
	DSS13Goldstone = NewStation("DSS13Goldstone", 35.247164, 243.205, 1071.14904, 6)
	DSS34Canberra  = NewStation("DSS34Canberra", -35.398333, 148.981944, 691.75, 6)
	DSS65Madrid    = NewStation("DSS65Madrid", 40.427222, 4.250556, 834.939, 6)
)

// Station defines a ground station fixed on the Earth.
type Station struct {
	Name         string
	Location     Geodetic
	MinElevation float64 // rad
	// Standard deviations of the measurement noise. A zero deviation means noiseless.
	RangeSigma, RangeRateSigma float64 // m, m/s

	R r3.Vec // body fixed
}

// NewStation returns a new station on the Earth. Angles in degrees, altitude in meters.
func NewStation(name string, latΦ, longθ, altitude, minElevation float64) Station {
	loc := Geodetic{Latitude: latΦ * deg2rad, Longitude: Deg2rad(longθ), Altitude: altitude}
	return Station{Name: name, Location: loc, MinElevation: minElevation * deg2rad, R: GeodeticToECEF(loc, Earth)}
}

// StationFromName returns one of the built-in stations.
func StationFromName(name string) (Station, error) {
	switch strings.ToLower(name) {
	case "dss13":
		return DSS13Goldstone, nil
	case "dss34":
		return DSS34Canberra, nil
	case "dss65":
		return DSS65Madrid, nil
	default:
		return Station{}, fmt.Errorf("unknown station %q", name)
	}
}

// Measurement stores a measurement of a station.
type Measurement struct {
	Station string
	Epoch   time.Time
	// Visible is whether the object is above the minimum elevation. The other fields are set
	// either way.
	Visible                  bool
	Range, RangeRate         float64 // noisy, m and m/s
	TrueRange, TrueRangeRate float64
	Elevation, Azimuth       float64 // rad, azimuth from north through east
}

func (m Measurement) String() string {
	return fmt.Sprintf("%s@%s ρ=%.3f km ρDot=%.6f km/s el=%.2f deg", m.Station, m.Epoch.Format(time.RFC3339), m.Range/1e3, m.RangeRate/1e3, m.Elevation/deg2rad)
}

// Noise returns the measurement noise distribution of the station, or nil when it is noiseless.
func (s Station) Noise(src rand.Source) *distmv.Normal {
	if s.RangeSigma <= 0 || s.RangeRateSigma <= 0 {
		return nil
	}
	cov := mat.NewDiagDense(2, []float64{s.RangeSigma * s.RangeSigma, s.RangeRateSigma * s.RangeRateSigma})
	noise, ok := distmv.NewNormal([]float64{0, 0}, cov, src)
	if !ok {
		return nil
	}
	return noise
}

// Measure returns the range, range rate and look angles of the state from the station.
// The noise may be nil.
func (s Station) Measure(state State, noise *distmv.Normal) Measurement {
	bf := state.In(BodyFixed)
	ρVec := r3.Sub(bf.R, s.R)
	ρ := r3.Norm(ρVec)
	// The station is at rest in the body fixed frame.
	ρDot := r3.Dot(ρVec, bf.V) / ρ
	sez := MxV33(R2(math.Pi/2-s.Location.Latitude), MxV33(R3(s.Location.Longitude), ρVec))
	el := math.Asin(clampUnit(sez.Z / ρ))
	m := Measurement{
		Station:       s.Name,
		Epoch:         state.Epoch,
		Visible:       el >= s.MinElevation,
		Range:         ρ,
		RangeRate:     ρDot,
		TrueRange:     ρ,
		TrueRangeRate: ρDot,
		Elevation:     el,
		Azimuth:       WrapAngle(math.Atan2(sez.Y, -sez.X)),
	}
	if noise != nil {
		n := noise.Rand(nil)
		m.Range += n[0]
		m.RangeRate += n[1]
	}
	return m
}

func (s Station) String() string {
	return fmt.Sprintf("%s (%f,%f); alt = %f m; el = %f deg", s.Name, s.Location.Latitude/deg2rad, Rad2deg(s.Location.Longitude), s.Location.Altitude, Rad2deg(s.MinElevation))
}
