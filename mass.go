package smd

// MassProvider returns the mass of the propagated object, in kg.
type MassProvider interface {
	Mass() float64
	// Snapshot returns a provider frozen at the current mass, for propagators cloned away
	// from the live object owning the mass.
	Snapshot() MassProvider
}

// FixedMass is a constant mass.
type FixedMass float64

// Mass implements the MassProvider interface.
func (m FixedMass) Mass() float64 { return float64(m) }

// Snapshot implements the MassProvider interface.
func (m FixedMass) Snapshot() MassProvider { return m }

// MassFunc adapts a function returning a live mass into a MassProvider.
type MassFunc func() float64

// Mass implements the MassProvider interface.
func (f MassFunc) Mass() float64 { return f() }

// Snapshot implements the MassProvider interface.
func (f MassFunc) Snapshot() MassProvider { return FixedMass(f()) }
