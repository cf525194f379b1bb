package ephem

import (
	"errors"
	"fmt"
	"sync"
	"time"

	smd "github.com/lanan07075/aldev-sub001"
	"github.com/mshafiee/jpleph"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	openMu sync.Mutex
	opened = map[string]*jplFile{}
)

// jplFile is a shared binary ephemeris; the reader is not safe for concurrent use.
type jplFile struct {
	sync.Mutex
	eph  *jpleph.Ephemeris
	auKm float64
}

func openJPL(path string) (*jplFile, error) {
	openMu.Lock()
	defer openMu.Unlock()
	if f, ok := opened[path]; ok {
		return f, nil
	}
	eph, err := jpleph.NewEphemeris(path, true)
	if err != nil {
		return nil, fmt.Errorf("opening JPL ephemeris %s: %w", path, err)
	}
	f := &jplFile{eph: eph, auKm: eph.GetEphemerisDouble(jpleph.AUinKM)}
	if f.auKm == 0 {
		f.auKm = smd.AU / 1e3
	}
	opened[path] = f
	return f, nil
}

// JPL reads a body's state from a JPL binary ephemeris (DE405, DE430, ...). States are in J2000.
type JPL struct {
	Body Body
	file *jplFile
}

// NewJPL returns a provider for the body from the ephemeris file at path. Files are opened once
// and shared between providers.
func NewJPL(path string, b Body) (*JPL, error) {
	f, err := openJPL(path)
	if err != nil {
		return nil, err
	}
	return &JPL{Body: b, file: f}, nil
}

func (j *JPL) target() jpleph.Planet {
	switch j.Body {
	case Moon:
		return jpleph.Moon
	case Sun:
		return jpleph.Sun
	default:
		return jpleph.Jupiter
	}
}

// BodyState implements the Provider interface.
func (j *JPL) BodyState(epoch time.Time) (smd.State, error) {
	j.file.Lock()
	pos, vel, err := j.file.eph.CalculatePV(smd.JulianDate(epoch), j.target(), jpleph.CenterEarth, true)
	j.file.Unlock()
	if err != nil {
		if errors.Is(err, jpleph.ErrOutsideRange) {
			return smd.State{}, &smd.RangeError{Quantity: "ephemeris epoch " + epoch.String(), Err: err}
		}
		return smd.State{}, err
	}
	m := j.file.auKm * 1e3
	R := r3.Vec{X: pos.X * m, Y: pos.Y * m, Z: pos.Z * m}
	V := r3.Scale(m/86400, r3.Vec{X: vel.DX, Y: vel.DY, Z: vel.DZ})
	return smd.NewState(epoch, smd.J2000, R, V), nil
}
