package norad

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// sgpConsts are the initialization constants of the simplified theory.
type sgpConsts struct {
	cosio, sinio  float64
	ao, qo, xlo   float64
	d1o, d2o, d3o float64
	d4o           float64
	omgdt, xnodot float64
	c5, c6        float64
}

// sgp is the original simplified general perturbations theory: secular gravity, a mean
// motion polynomial for drag and first order short periodics.
type sgp struct {
	el elements
	k  sgpConsts
}

func newSGP(el elements) *sgp {
	c1 := 1.5 * ck2
	c2 := ck2 / 4
	c3 := ck2 / 2
	c4 := xj3 * ae * ae * ae / (4 * ck2)
	var k sgpConsts
	k.sinio, k.cosio = math.Sincos(el.xincl)
	a1 := math.Pow(xke/el.xno, twoThirds)
	d1 := c1 / a1 / a1 * (3*k.cosio*k.cosio - 1) / math.Pow(1-el.eo*el.eo, 1.5)
	k.ao = a1 * (1 - d1/3 - d1*d1 - 134.0/81*d1*d1*d1)
	po := k.ao * (1 - el.eo*el.eo)
	k.qo = k.ao * (1 - el.eo)
	k.xlo = el.xmo + el.omegao + el.xnodeo
	k.d1o = c3 * k.sinio * k.sinio
	k.d2o = c2 * (7*k.cosio*k.cosio - 1)
	k.d3o = c1 * k.cosio
	k.d4o = k.d3o * k.sinio
	po2no := el.xno / (po * po)
	k.omgdt = c1 * po2no * (5*k.cosio*k.cosio - 1)
	k.xnodot = -2 * k.d3o * po2no
	k.c5 = 0.5 * c4 * k.sinio * (3 + 5*k.cosio) / nonZero(1+k.cosio)
	k.c6 = c4 * k.sinio
	return &sgp{el: el, k: k}
}

func (m *sgp) propagate(tsince float64) (pos, vel r3.Vec, converged bool, err error) {
	el, k := &m.el, &m.k

	// Secular gravity and drag
	a := el.xno + (2*el.xndt2o+3*el.xndd6o*tsince)*tsince
	if !(a > 0) {
		return pos, vel, false, decayed("mean motion %g rad/min", a)
	}
	a = k.ao * math.Pow(el.xno/a, twoThirds)
	e := e6a
	if a > k.qo {
		e = 1 - k.qo/a
	}
	if a*(1-e) < ae {
		return pos, vel, false, decayed("perigee %g km below the surface", (ae-a*(1-e))*xkmper)
	}
	p := a * (1 - e*e)
	xnodes := el.xnodeo + k.xnodot*tsince
	omgas := el.omegao + k.omgdt*tsince
	xls := fmod2p(k.xlo + (el.xno+k.omgdt+k.xnodot+(el.xndt2o+el.xndd6o*tsince)*tsince)*tsince)

	// Long period periodics
	axnsl := e * math.Cos(omgas)
	aynsl := e*math.Sin(omgas) - k.c6/p
	xl := fmod2p(xls - k.c5/p*axnsl)

	// Kepler's equation
	u := fmod2p(xl - xnodes)
	eo1, tem5 := u, 1.0
	var sineo1, coseo1 float64
	for i := 0; i < 10; i++ {
		sineo1, coseo1 = math.Sincos(eo1)
		if math.Abs(tem5) < e6a {
			converged = true
			break
		}
		tem5 = (u - aynsl*coseo1 + axnsl*sineo1 - eo1) / (1 - coseo1*axnsl - sineo1*aynsl)
		if math.Abs(tem5) > 1 {
			tem5 = math.Copysign(1, tem5)
		}
		eo1 += tem5
	}

	// Short period preliminary quantities
	ecose := axnsl*coseo1 + aynsl*sineo1
	esine := axnsl*sineo1 - aynsl*coseo1
	el2 := axnsl*axnsl + aynsl*aynsl
	if el2 >= 1 {
		return pos, vel, false, decayed("eccentricity %g", math.Sqrt(el2))
	}
	pl := a * (1 - el2)
	pl2 := pl * pl
	rr := a * (1 - ecose)
	rdot := xke * math.Sqrt(a) / rr * esine
	rvdot := xke * math.Sqrt(pl) / rr
	temp := esine / (math.Sqrt(1-el2) + 1)
	sinu := a / rr * (sineo1 - aynsl - axnsl*temp)
	cosu := a / rr * (coseo1 - axnsl + aynsl*temp)
	su := math.Atan2(sinu, cosu)

	// Short periodics
	sin2u := 2 * cosu * sinu
	cos2u := 1 - 2*sinu*sinu
	rk := rr + k.d1o/pl*cos2u
	uk := su - k.d2o/pl2*sin2u
	xnodek := xnodes + k.d3o*sin2u/pl2
	xinck := el.xincl + k.d4o/pl2*cos2u

	// Orientation vectors
	sinuk, cosuk := math.Sincos(uk)
	sinnok, cosnok := math.Sincos(xnodek)
	sinik, cosik := math.Sincos(xinck)
	xmx := -sinnok * cosik
	xmy := cosnok * cosik
	U := r3.Vec{X: xmx*sinuk + cosnok*cosuk, Y: xmy*sinuk + sinnok*cosuk, Z: sinik * sinuk}
	V := r3.Vec{X: xmx*cosuk - cosnok*sinuk, Y: xmy*cosuk - sinnok*sinuk, Z: sinik * cosuk}

	pos = r3.Scale(rk*xkmper, U)
	vel = r3.Add(r3.Scale(rdot*xkmper, U), r3.Scale(rvdot*xkmper, V))
	return pos, vel, converged, nil
}
