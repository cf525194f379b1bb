package dynamics

import (
	"time"

	"github.com/lanan07075/aldev-sub001/ephem"
	"gonum.org/v1/gonum/spatial/r3"
)

// ThirdBody is the point mass perturbation of a third body. The acceleration is the difference
// between the direct pull of the body on the spacecraft and its pull on the central body, which
// accelerates the whole working frame.
type ThirdBody struct {
	Body      ephem.Body
	Ephemeris ephem.Provider

	ctx Context
	μ   float64
}

// Name implements the Term interface.
func (t *ThirdBody) Name() string { return "third_body:" + t.Body.String() }

// Initialize implements the Term interface.
func (t *ThirdBody) Initialize(ctx Context) error {
	if t.Ephemeris == nil {
		t.Ephemeris = ephem.NewLowFidelity(t.Body)
	}
	t.ctx = ctx
	t.μ = t.Body.Object().GM()
	return nil
}

// Acceleration implements the Term interface.
func (t *ThirdBody) Acceleration(_ float64, epoch time.Time, R, _ r3.Vec) (r3.Vec, error) {
	if t.ctx == nil {
		return r3.Vec{}, errNoContext
	}
	st, err := t.Ephemeris.BodyState(epoch)
	if err != nil {
		return r3.Vec{}, err
	}
	s := st.In(t.ctx.Frame()).R
	return r3.Sub(pull(t.μ, r3.Sub(s, R)), pull(t.μ, s)), nil
}
