package dynamics

import (
	"sort"
	"sync"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/ephem"
	"github.com/spf13/viper"
)

// Factory builds a term from its options.
type Factory func(opts *viper.Viper) (Term, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"monopole":   newMonopole,
		"j2":         func(*viper.Viper) (Term, error) { return &Oblateness{}, nil },
		"drag":       newDrag,
		"third_body": newThirdBody,
		"scripted":   newScripted,
	}
)

// Register makes a term type available under the provided name.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Types returns the registered term type names, sorted.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New builds the term registered under the provided type name. Unknown types and invalid
// options are ConfigurationErrors.
func New(typ string, opts *viper.Viper) (Term, error) {
	registryMu.RLock()
	f, ok := registry[typ]
	registryMu.RUnlock()
	if !ok {
		return nil, smd.NewConfigurationError("dynamics", "type", "unknown term type %q (known: %v)", typ, Types())
	}
	if opts == nil {
		opts = viper.New()
	}
	return f(opts)
}

func newMonopole(opts *viper.Viper) (Term, error) {
	mu := opts.GetFloat64("mu")
	if mu < 0 {
		return nil, smd.NewConfigurationError("dynamics.monopole", "mu", "must be positive, got %g", mu)
	}
	return &Monopole{Mu: mu}, nil
}

func newDrag(opts *viper.Viper) (Term, error) {
	opts.SetDefault("model", "exponential")
	opts.SetDefault("cd", 2.2)
	d := &Drag{Cd: opts.GetFloat64("cd"), Area: opts.GetFloat64("area"), Model: opts.GetString("model")}
	if d.Cd <= 0 {
		return nil, smd.NewConfigurationError("dynamics.drag", "cd", "must be positive, got %g", d.Cd)
	}
	if d.Area <= 0 {
		return nil, smd.NewConfigurationError("dynamics.drag", "area", "must be positive, got %g", d.Area)
	}
	return d, nil
}

func newThirdBody(opts *viper.Viper) (Term, error) {
	b, err := ephem.ParseBody(opts.GetString("body"))
	if err != nil {
		return nil, &smd.ConfigurationError{Unit: "dynamics.third_body", Key: "body", Err: err}
	}
	t := &ThirdBody{Body: b}
	switch src := opts.GetString("ephemeris"); src {
	case "", "low_fidelity":
		t.Ephemeris = ephem.NewLowFidelity(b)
	case "jpl":
		path := opts.GetString("file")
		if path == "" {
			path = smd.LibraryConfig().JPLFile
		}
		if path == "" {
			return nil, smd.NewConfigurationError("dynamics.third_body", "file", "jpl ephemeris selected without a file")
		}
		p, err := ephem.NewJPL(path, b)
		if err != nil {
			return nil, &smd.ConfigurationError{Unit: "dynamics.third_body", Key: "file", Err: err}
		}
		t.Ephemeris = p
	default:
		return nil, smd.NewConfigurationError("dynamics.third_body", "ephemeris", "unknown ephemeris %q", src)
	}
	return t, nil
}

func newScripted(opts *viper.Viper) (Term, error) {
	name := opts.GetString("function")
	if name == "" {
		return nil, smd.NewConfigurationError("dynamics.scripted", "function", "missing function name")
	}
	return &Scripted{Function: name}, nil
}
