package smd

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// State is an instantaneous position (m) and velocity (m/s) at an epoch, in a frame.
type State struct {
	Epoch time.Time
	Frame Frame
	R, V  r3.Vec
}

// NewState returns a new state.
func NewState(epoch time.Time, frame Frame, R, V r3.Vec) State {
	return State{Epoch: epoch, Frame: frame, R: R, V: V}
}

// InitialEpoch implements the InitialCondition interface.
func (s State) InitialEpoch() time.Time {
	return s.Epoch
}

// In returns this state expressed in the provided frame.
func (s State) In(f Frame) State {
	if s.Frame == f {
		return s
	}
	return Convert(s, f)
}

// Equals returns whether both states describe the same instant and motion within the position
// and velocity tolerances. The other state is first expressed in the frame of this one.
func (s State) Equals(o State, posTol, velTol float64) (bool, error) {
	if !s.Epoch.Equal(o.Epoch) {
		return false, fmt.Errorf("epochs differ: %s != %s", s.Epoch, o.Epoch)
	}
	o = o.In(s.Frame)
	if d := r3.Norm(r3.Sub(s.R, o.R)); d > posTol {
		return false, fmt.Errorf("position differs by %f m", d)
	}
	if d := r3.Norm(r3.Sub(s.V, o.V)); d > velTol {
		return false, fmt.Errorf("velocity differs by %f m/s", d)
	}
	return true, nil
}

// Vector returns the state as a 6 element slice.
func (s State) Vector() []float64 {
	return []float64{s.R.X, s.R.Y, s.R.Z, s.V.X, s.V.Y, s.V.Z}
}

// SetVector sets the position and velocity from a 6 element slice.
func (s *State) SetVector(y []float64) {
	s.R = r3.Vec{X: y[0], Y: y[1], Z: y[2]}
	s.V = r3.Vec{X: y[3], Y: y[4], Z: y[5]}
}

func (s State) String() string {
	return fmt.Sprintf("%s [%s] R=(%.3f, %.3f, %.3f) V=(%.6f, %.6f, %.6f)", s.Epoch.Format(time.RFC3339Nano), s.Frame,
		s.R.X, s.R.Y, s.R.Z, s.V.X, s.V.Y, s.V.Z)
}
