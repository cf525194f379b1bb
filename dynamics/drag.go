package dynamics

import (
	"errors"
	"fmt"
	"time"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/lanan07075/aldev-sub001/atmosphere"
	"gonum.org/v1/gonum/spatial/r3"
)

// Drag is the atmospheric drag: a = -0.5 Cd A ρ |v_rel| v_rel / m, where v_rel is the velocity
// relative to the atmosphere rotating with the body.
type Drag struct {
	Cd    float64
	Area  float64 // m^2
	Model string  // atmosphere model name, resolved at Initialize unless Atmosphere is set
	// Atmosphere is the density provider. It is read only.
	Atmosphere atmosphere.Provider

	ctx  Context
	body smd.CelestialObject
}

// Name implements the Term interface.
func (d *Drag) Name() string { return "drag" }

// Initialize implements the Term interface.
func (d *Drag) Initialize(ctx Context) error {
	if d.Cd <= 0 || d.Area <= 0 {
		return fmt.Errorf("drag needs positive Cd and area, got %g and %g", d.Cd, d.Area)
	}
	if d.Atmosphere == nil {
		p, err := atmosphere.New(d.Model)
		if err != nil {
			return err
		}
		d.Atmosphere = p
	}
	d.ctx = ctx
	d.body = ctx.CentralBody()
	return nil
}

// Acceleration implements the Term interface.
func (d *Drag) Acceleration(mass float64, epoch time.Time, R, V r3.Vec) (r3.Vec, error) {
	if d.ctx == nil {
		return r3.Vec{}, errNoContext
	}
	if mass <= 0 {
		return r3.Vec{}, &smd.RangeError{Quantity: "mass", Err: errors.New("drag needs a positive mass")}
	}
	ω := r3.Vec{Z: d.body.RotationRate}
	vRel := r3.Sub(V, r3.Cross(ω, R))
	geo := smd.ECEFToGeodetic(d.ctx.ToBodyFixed(epoch, R), d.body)
	ρ, err := d.Atmosphere.Density(epoch, geo)
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Scale(-0.5*d.Cd*d.Area*ρ*r3.Norm(vRel)/mass, vRel), nil
}
