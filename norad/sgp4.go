package norad

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// sgp4Consts are the SGP4 drag constants on top of the common ones.
type sgp4Consts struct {
	// simple is set for perigees below 220 km: the drag equations are truncated to a linear
	// variation in sqrt(a) and a quadratic variation in mean anomaly.
	simple bool

	c5                  float64
	d2, d3, d4          float64
	delmo, sinmo        float64
	omgcof, xmcof       float64
	t3cof, t4cof, t5cof float64
}

type sgp4 struct {
	el elements
	c  commonConsts
	k  sgp4Consts
}

func newSGP4(el elements) *sgp4 {
	c := newCommonConsts(el)
	var k sgp4Consts
	eeta := el.eo * c.eta
	if c.aodp*(1-el.eo)/ae < 220/xkmper+ae {
		k.simple = true
	} else {
		c1sq := c.c1 * c.c1
		k.delmo = math.Pow(1+c.eta*math.Cos(el.xmo), 3)
		k.d2 = 4 * c.aodp * c.tsi * c1sq
		temp := k.d2 * c.tsi * c.c1 / 3
		k.d3 = (17*c.aodp + c.s4) * temp
		k.d4 = 0.5 * temp * c.aodp * c.tsi * (221*c.aodp + 31*c.s4) * c.c1
		k.t3cof = k.d2 + 2*c1sq
		k.t4cof = 0.25 * (3*k.d3 + c.c1*(12*k.d2+10*c1sq))
		k.t5cof = 0.2 * (3*k.d4 + 12*c.c1*k.d3 + 6*k.d2*k.d2 + 15*c1sq*(2*k.d2+c1sq))
		k.sinmo = math.Sin(el.xmo)
		c3 := c.coef * c.tsi * c.a3ovk2 * c.xnodp * ae * c.sinio
		if el.eo < minimalE {
			eeta = minimalE * minimalE * c.aodp * c.tsi
			c3 /= minimalE
		} else {
			c3 /= el.eo
		}
		k.xmcof = -twoThirds * c.coef * el.bstar * ae / eeta
		k.omgcof = el.bstar * c3 * math.Cos(el.omegao)
	}
	etasq := c.eta * c.eta
	k.c5 = 2 * c.coef1 * c.aodp * c.betao2 * (1 + 2.75*(etasq+eeta) + eeta*etasq)
	return &sgp4{el: el, c: c, k: k}
}

func (m *sgp4) propagate(tsince float64) (pos, vel r3.Vec, converged bool, err error) {
	el, c, k := &m.el, &m.c, &m.k

	// Secular gravity and drag
	xmdf := el.xmo + c.xmdot*tsince
	omgadf := el.omegao + c.omgdot*tsince
	xnoddf := el.xnodeo + c.xnodot*tsince
	omega := omgadf
	xmp := xmdf
	tsq := tsince * tsince
	xnode := xnoddf + c.xnodcf*tsq
	tempa := 1 - c.c1*tsince
	tempe := el.bstar * c.c4 * tsince
	templ := c.t2cof * tsq
	if !k.simple {
		delomg := k.omgcof * tsince
		delm := math.Pow(1+c.eta*math.Cos(xmdf), 3)
		delm = k.xmcof * (delm - k.delmo)
		temp := delomg + delm
		xmp = xmdf + temp
		omega = omgadf - temp
		tcube := tsq * tsince
		tfour := tsince * tcube
		tempa -= k.d2*tsq + k.d3*tcube + k.d4*tfour
		tempe += el.bstar * k.c5 * (math.Sin(xmp) - k.sinmo)
		templ += k.t3cof*tcube + tfour*(k.t4cof+tsince*k.t5cof)
	}
	if !(tempa > 0) {
		return pos, vel, false, decayed("drag polynomial vanishes %g min after epoch", tsince)
	}
	a := c.aodp * tempa * tempa
	e := el.eo - tempe
	xl := xmp + omega + xnode + c.xnodp*templ
	return c.posVel(xnode, a, e, el.xincl, omega, xl)
}

// sdp4 is SGP4 with the lunar, solar and resonance terms of the deep space theory.
type sdp4 struct {
	el   elements
	c    commonConsts
	deep *deepSpace
}

func newSDP4(el elements) *sdp4 {
	c := newCommonConsts(el)
	return &sdp4{el: el, c: c, deep: newDeepSpace(el, c.orbitTerms)}
}

func (m *sdp4) propagate(tsince float64) (pos, vel r3.Vec, converged bool, err error) {
	el, c := &m.el, &m.c

	// Secular gravity and drag
	xmdf := el.xmo + c.xmdot*tsince
	tsq := tsince * tsince
	st := deepState{
		t:      tsince,
		xll:    xmdf,
		omgadf: el.omegao + c.omgdot*tsince,
		xnode:  el.xnodeo + c.xnodot*tsince + c.xnodcf*tsq,
		xn:     c.xnodp,
	}
	tempa := 1 - c.c1*tsince
	tempe := el.bstar * c.c4 * tsince
	templ := c.t2cof * tsq

	if !(tempa > 0) {
		return pos, vel, false, decayed("drag polynomial vanishes %g min after epoch", tsince)
	}

	// Deep space secular effects
	m.deep.secular(&st)
	if !(st.xn > 0) {
		return pos, vel, false, decayed("mean motion %g rad/min", st.xn)
	}
	a := math.Pow(xke/st.xn, twoThirds) * tempa * tempa
	st.em -= tempe
	st.xll += c.xnodp * templ

	// Deep space periodic effects
	m.deep.periodics(&st)
	xl := st.xll + st.omgadf + st.xnode
	return c.posVel(st.xnode, a, st.em, st.xinc, st.omgadf, xl)
}
