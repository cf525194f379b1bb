package smd

import "time"

// InitialCondition is what a propagator is initialized from: either a State or MeanElements.
type InitialCondition interface {
	InitialEpoch() time.Time
}

// Propagator computes the state of an object at any epoch.
//
// A propagator owns exactly one current state. It is not safe for concurrent use: independent
// trajectories must each use their own Clone.
type Propagator interface {
	// Initialize sets the initial condition and precomputes whatever the propagator needs.
	Initialize(ic InitialCondition) error
	// Update propagates to the provided epoch and returns the state there.
	Update(epoch time.Time) (State, error)
	// OrbitalState returns the current state.
	OrbitalState() State
	// DynamicalMass returns the mass used by the dynamics, in kg.
	DynamicalMass() float64
	// Clone returns an independent copy of the configuration with fresh caches. The mass
	// provider of the copy is a snapshot.
	Clone() Propagator
}

// MeanElementPropagator is a propagator driven by mean elements, such as the NORAD theories.
type MeanElementPropagator interface {
	Propagator
	// CentralBody returns the body the mean elements are defined about.
	CentralBody() CelestialObject
	// NativeFrame is the frame in which the theory computes states.
	NativeFrame() Frame
}
