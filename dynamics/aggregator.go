package dynamics

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	smd "github.com/lanan07075/aldev-sub001"
	"gonum.org/v1/gonum/spatial/r3"
)

// Aggregator sums an ordered list of terms. Once initialized it is read only and may be shared
// by many propagators.
type Aggregator struct {
	body   smd.CelestialObject
	frame  smd.Frame
	terms  []Term
	logger log.Logger

	initOnce sync.Once
	initErr  error
}

// NewAggregator returns an aggregator about the provided body, working in the provided inertial frame.
func NewAggregator(body smd.CelestialObject, frame smd.Frame, terms ...Term) *Aggregator {
	return &Aggregator{body: body, frame: frame, terms: terms, logger: log.With(smd.Logger(), "subsys", "dynamics")}
}

// SetLogger sets the logger given to the terms.
func (a *Aggregator) SetLogger(l log.Logger) {
	a.logger = l
}

// Add appends a term. Terms must be added before Initialize.
func (a *Aggregator) Add(t Term) {
	a.terms = append(a.terms, t)
}

// Terms returns the terms, in order.
func (a *Aggregator) Terms() []Term {
	return a.terms
}

// Initialize initializes every term, in order. Only the first call does anything: the
// propagators sharing this aggregator all call it.
func (a *Aggregator) Initialize() error {
	a.initOnce.Do(func() {
		for i, t := range a.terms {
			if err := t.Initialize(a); err != nil {
				a.initErr = fmt.Errorf("term #%d (%s): %w", i, t.Name(), err)
				return
			}
		}
	})
	return a.initErr
}

// Acceleration returns the sum of the accelerations of all terms; zero when there are none.
func (a *Aggregator) Acceleration(mass float64, epoch time.Time, R, V r3.Vec) (r3.Vec, error) {
	var sum r3.Vec
	for _, t := range a.terms {
		acc, err := t.Acceleration(mass, epoch, R, V)
		if err != nil {
			return r3.Vec{}, fmt.Errorf("%s: %w", t.Name(), err)
		}
		sum = r3.Add(sum, acc)
	}
	return sum, nil
}

// CentralBody implements the Context interface.
func (a *Aggregator) CentralBody() smd.CelestialObject { return a.body }

// Frame implements the Context interface.
func (a *Aggregator) Frame() smd.Frame { return a.frame }

// Logger implements the Context interface.
func (a *Aggregator) Logger() log.Logger { return a.logger }

// ToBodyFixed implements the Context interface.
func (a *Aggregator) ToBodyFixed(epoch time.Time, v r3.Vec) r3.Vec {
	return smd.Convert(smd.State{Epoch: epoch, Frame: a.frame, R: v}, smd.BodyFixed).R
}

// FromBodyFixed implements the Context interface.
func (a *Aggregator) FromBodyFixed(epoch time.Time, v r3.Vec) r3.Vec {
	return smd.Convert(smd.State{Epoch: epoch, Frame: smd.BodyFixed, R: v}, a.frame).R
}
