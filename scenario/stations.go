package scenario

import (
	"fmt"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/spf13/viper"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"
)

// stations reads the optional stations list. An entry with only a name is a built-in station.
func stations(v *viper.Viper) ([]smd.Station, error) {
	if !v.IsSet("stations") {
		return nil, nil
	}
	entries, ok := v.Get("stations").([]interface{})
	if !ok {
		return nil, smd.NewConfigurationError("stations", "", "expected a list of stations")
	}
	var out []smd.Station
	for i, entry := range entries {
		unit := fmt.Sprintf("stations[%d]", i)
		opts, ok := entry.(map[string]interface{})
		if !ok {
			return nil, smd.NewConfigurationError(unit, "", "expected a table, got %T", entry)
		}
		sub := viper.New()
		if err := sub.MergeConfigMap(opts); err != nil {
			return nil, &smd.ConfigurationError{Unit: unit, Err: err}
		}
		st, err := station(sub, unit)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func station(v *viper.Viper, unit string) (smd.Station, error) {
	name := v.GetString("name")
	if name == "" {
		return smd.Station{}, smd.NewConfigurationError(unit, "name", "missing station name")
	}
	var st smd.Station
	if v.IsSet("latitude") || v.IsSet("longitude") {
		lat := v.GetFloat64("latitude")
		if lat < -90 || lat > 90 {
			return st, smd.NewConfigurationError(unit, "latitude", "must be within [-90, 90], got %g", lat)
		}
		st = smd.NewStation(name, lat, v.GetFloat64("longitude"), v.GetFloat64("altitude"), v.GetFloat64("min_elevation"))
	} else {
		var err error
		if st, err = smd.StationFromName(name); err != nil {
			return st, &smd.ConfigurationError{Unit: unit, Key: "name", Err: err}
		}
	}
	st.RangeSigma, st.RangeRateSigma = v.GetFloat64("range_sigma"), v.GetFloat64("range_rate_sigma")
	if st.RangeSigma < 0 || st.RangeRateSigma < 0 {
		return st, smd.NewConfigurationError(unit, "range_sigma", "noise deviations must be positive")
	}
	return st, nil
}

// Measure returns the measurements of every station of the states, in station order, keeping
// only the visible ones. The noise is seeded from the dispersion seed.
func (sc *Scenario) Measure(states []smd.State) []smd.Measurement {
	var out []smd.Measurement
	for i, st := range sc.Stations {
		var noise *distmv.Normal
		if st.RangeSigma > 0 && st.RangeRateSigma > 0 {
			noise = st.Noise(rand.NewSource(sc.Dispersion.Seed + uint64(i)))
		}
		for _, s := range states {
			if m := st.Measure(s, noise); m.Visible {
				out = append(out, m)
			}
		}
	}
	return out
}
