package dynamics

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log/level"
	"gonum.org/v1/gonum/spatial/r3"
)

// ScriptFunc is the signature expected from scripted accelerations. It must return exactly three
// finite components, in m/s^2 in the working frame.
type ScriptFunc func(owner any, mass float64, epoch time.Time, R, V r3.Vec) []float64

var scriptType = reflect.TypeOf(ScriptFunc(nil))

var (
	scriptsMu sync.RWMutex
	scripts   = map[string]any{}
)

// RegisterScript makes a callback available to configurations under the provided name. The
// callback is only validated when a term using it is initialized.
func RegisterScript(name string, callback any) {
	scriptsMu.Lock()
	defer scriptsMu.Unlock()
	scripts[name] = callback
}

// Scripts returns the registered script names, sorted.
func Scripts() []string {
	scriptsMu.RLock()
	defer scriptsMu.RUnlock()
	names := make([]string, 0, len(scripts))
	for n := range scripts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookupScript(name string) (any, bool) {
	scriptsMu.RLock()
	defer scriptsMu.RUnlock()
	cb, ok := scripts[name]
	return cb, ok
}

// Scripted delegates the acceleration to an external callback.
//
// The callback is validated once at Initialize; on mismatch the term is disabled for good.
// If the callback later breaks its contract (wrong length, non finite value or panic), the term
// disables itself. Both cases log a single warning, and a disabled term contributes zero.
type Scripted struct {
	Function string // name, for diagnostics
	Owner    any    // handed back to the callback
	Callback any

	fn       ScriptFunc
	ctx      Context
	disabled atomic.Bool
}

// Name implements the Term interface.
func (s *Scripted) Name() string { return "scripted:" + s.Function }

// Disabled returns whether the term stopped contributing.
func (s *Scripted) Disabled() bool { return s.disabled.Load() }

// Initialize implements the Term interface.
func (s *Scripted) Initialize(ctx Context) error {
	s.ctx = ctx
	if s.Callback == nil {
		if cb, ok := lookupScript(s.Function); ok {
			s.Callback = cb
		}
	}
	switch f := s.Callback.(type) {
	case ScriptFunc:
		s.fn = f
	case func(any, float64, time.Time, r3.Vec, r3.Vec) []float64:
		s.fn = f
	default:
		got := "nil"
		if s.Callback != nil {
			got = reflect.TypeOf(s.Callback).String()
		}
		s.disable(fmt.Sprintf("callback has signature %s, expected %s", got, scriptType))
	}
	return nil
}

func (s *Scripted) disable(reason string) {
	if s.disabled.CompareAndSwap(false, true) && s.ctx != nil {
		level.Warn(s.ctx.Logger()).Log("term", s.Name(), "msg", "scripted term disabled", "reason", reason)
	}
}

// Acceleration implements the Term interface.
func (s *Scripted) Acceleration(mass float64, epoch time.Time, R, V r3.Vec) (acc r3.Vec, err error) {
	if s.disabled.Load() || s.fn == nil {
		return r3.Vec{}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			s.disable(fmt.Sprintf("callback panicked: %v", r))
			acc = r3.Vec{}
		}
	}()
	out := s.fn(s.Owner, mass, epoch, R, V)
	if len(out) != 3 {
		s.disable(fmt.Sprintf("callback returned %d components", len(out)))
		return r3.Vec{}, nil
	}
	for _, c := range out {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			s.disable("callback returned a non finite value")
			return r3.Vec{}, nil
		}
	}
	return r3.Vec{X: out[0], Y: out[1], Z: out[2]}, nil
}
