// Package dynamics defines the acceleration terms summed by the integrating propagator.
package dynamics

import (
	"time"

	"github.com/go-kit/log"
	smd "github.com/lanan07075/aldev-sub001"
	"gonum.org/v1/gonum/spatial/r3"
)

// Term is one contribution to the total acceleration.
type Term interface {
	// Initialize is called once by the aggregator which owns the term. The context is an
	// observer handle: the term may query it but does not own it.
	Initialize(ctx Context) error
	// Acceleration returns the contribution in m/s^2 in the working frame. It has no side
	// effect visible to the caller.
	Acceleration(mass float64, epoch time.Time, R, V r3.Vec) (r3.Vec, error)
	Name() string
}

// Context are the read only services given to terms.
type Context interface {
	CentralBody() smd.CelestialObject
	// Frame is the working inertial frame of the positions and velocities.
	Frame() smd.Frame
	// ToBodyFixed rotates a working frame vector to the body fixed axes.
	ToBodyFixed(epoch time.Time, v r3.Vec) r3.Vec
	// FromBodyFixed rotates a body fixed vector back to the working frame. This is a pure
	// rotation: no transport acceleration is added.
	FromBodyFixed(epoch time.Time, v r3.Vec) r3.Vec
	Logger() log.Logger
}
