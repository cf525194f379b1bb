package integrator

import (
	"sort"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/spf13/viper"
)

var tableaus = map[string]*Tableau{
	DormandPrince54.Name:   DormandPrince54,
	Fehlberg45.Name:        Fehlberg45,
	CashKarp45.Name:        CashKarp45,
	BogackiShampine32.Name: BogackiShampine32,
}

// Types returns the names accepted by New, sorted.
func Types() []string {
	names := []string{"rk4"}
	for n := range tableaus {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds an integrator from its type name and options. The adaptive integrators read
// tolerance, min_step, max_step, initial_step, max_attempts and error_norm; rk4 reads step.
func New(typ string, opts *viper.Viper) (Integrator, error) {
	if opts == nil {
		opts = viper.New()
	}
	if typ == "rk4" {
		opts.SetDefault("step", 10)
		r, err := NewRK4(opts.GetFloat64("step"))
		if err != nil {
			return nil, &smd.ConfigurationError{Unit: "integrator.rk4", Key: "step", Err: err}
		}
		return r, nil
	}
	tab, ok := tableaus[typ]
	if !ok {
		return nil, smd.NewConfigurationError("integrator", "type", "unknown integrator %q (known: %v)", typ, Types())
	}
	opts.SetDefault("tolerance", DefaultOptions.Tolerance)
	opts.SetDefault("min_step", DefaultOptions.MinStep)
	opts.SetDefault("max_step", DefaultOptions.MaxStep)
	opts.SetDefault("initial_step", DefaultOptions.InitialStep)
	opts.SetDefault("max_attempts", DefaultOptions.MaxAttempts)
	norm, err := ParseErrorNorm(opts.GetString("error_norm"))
	if err != nil {
		return nil, &smd.ConfigurationError{Unit: "integrator." + typ, Key: "error_norm", Err: err}
	}
	o := Options{
		Tolerance:   opts.GetFloat64("tolerance"),
		MinStep:     opts.GetFloat64("min_step"),
		MaxStep:     opts.GetFloat64("max_step"),
		InitialStep: opts.GetFloat64("initial_step"),
		MaxAttempts: opts.GetInt("max_attempts"),
		Norm:        norm,
	}
	a, err := NewAdaptive(tab, o)
	if err != nil {
		return nil, &smd.ConfigurationError{Unit: "integrator." + typ, Err: err}
	}
	return a, nil
}
