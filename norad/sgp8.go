package norad

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// sgp8Geometry are the inclination terms of the SGP8 short period periodics.
type sgp8Geometry struct {
	cosi, sini, theta2     float64
	sinio2, cosio2         float64
	tthmun, unm5th, unmth2 float64
}

func newSGP8Geometry(xincl float64) sgp8Geometry {
	var g sgp8Geometry
	g.sini, g.cosi = math.Sincos(xincl)
	g.sinio2, g.cosio2 = math.Sincos(xincl / 2)
	g.theta2 = g.cosi * g.cosi
	g.tthmun = 3*g.theta2 - 1
	g.unm5th = 1 - 5*g.theta2
	g.unmth2 = 1 - g.theta2
	return g
}

// sgp8Drag are the secular gravity rates and the drag coefficients of SGP8 and SDP8.
type sgp8Drag struct {
	xnodp, aodp         float64
	betao, betao2       float64
	xmdt1, xgdt1, xhdt1 float64
	xlldot, omgdt       float64
	xnodot              float64
	xndt, xndtn         float64
	c0                  float64
	tsi, eta, eta2      float64
	psim2, alpha2       float64
	d1, d2, d3, d4, d5  float64
	b1, b2, b3          float64
	c4, c5              float64
	sing, cosg, cos2g   float64
}

func newSGP8Drag(el elements, g sgp8Geometry) sgp8Drag {
	var k sgp8Drag
	a1 := math.Pow(xke/el.xno, twoThirds)
	eosq := el.eo * el.eo
	k.betao2 = 1 - eosq
	k.betao = math.Sqrt(k.betao2)
	b := 2 * el.bstar / rho
	k.sing, k.cosg = math.Sincos(el.omegao)
	k.cos2g = 2*k.cosg*k.cosg - 1
	del1 := 1.5 * ck2 * g.tthmun / (a1 * a1 * k.betao * k.betao2)
	ao := a1 * (1 - del1*(0.5*twoThirds+del1*(1+134.0/81*del1)))
	delo := 1.5 * ck2 * g.tthmun / (ao * ao * k.betao * k.betao2)
	k.aodp = ao / (1 - delo)
	k.xnodp = el.xno / (1 + delo)

	po := k.aodp * k.betao2
	pom2 := 1 / (po * po)
	theta4 := g.theta2 * g.theta2
	pardt1 := 3 * ck2 * pom2 * k.xnodp
	pardt2 := pardt1 * ck2 * pom2
	pardt4 := 1.25 * ck4 * pom2 * pom2 * k.xnodp
	k.xmdt1 = 0.5 * pardt1 * k.betao * g.tthmun
	k.xgdt1 = -0.5 * pardt1 * g.unm5th
	k.xhdt1 = -pardt1 * g.cosi
	k.xlldot = k.xnodp + k.xmdt1 + 0.0625*pardt2*k.betao*(13-78*g.theta2+137*theta4)
	k.omgdt = k.xgdt1 + 0.0625*pardt2*(7-114*g.theta2+395*theta4) + pardt4*(3-36*g.theta2+49*theta4)
	k.xnodot = k.xhdt1 + (0.5*pardt2*(4-19*g.theta2)+2*pardt4*(3-7*g.theta2))*g.cosi
	k.tsi = 1 / (po - s)
	k.eta = el.eo * s * k.tsi
	k.eta2 = k.eta * k.eta
	k.psim2 = math.Abs(1 / (1 - k.eta2))
	k.alpha2 = 1 + eosq
	eeta := el.eo * k.eta
	k.d5 = k.tsi * k.psim2
	k.d1 = k.d5 / po
	k.d2 = 12 + k.eta2*(36+4.5*k.eta2)
	k.d3 = k.eta2 * (15 + 2.5*k.eta2)
	k.d4 = k.eta * (5 + 3.75*k.eta2)
	k.b1 = ck2 * g.tthmun
	k.b2 = -ck2 * g.unmth2
	k.b3 = a3cof * g.sini
	tsi2 := k.tsi * k.tsi
	k.c0 = 0.5 * b * rho * qoms2t * k.xnodp * k.aodp * tsi2 * tsi2 * math.Pow(k.psim2, 3.5) / math.Sqrt(k.alpha2)
	c1 := 1.5 * k.xnodp * k.alpha2 * k.alpha2 * k.c0
	k.c4 = k.d1 * k.d3 * k.b2
	k.c5 = k.d5 * k.d4 * k.b3
	k.xndt = c1 * (2 + k.eta2*(3+34*eosq) + 5*eeta*(4+k.eta2) + 8.5*eosq +
		k.d1*k.d2*k.b1 + k.c4*k.cos2g + k.c5*k.sing)
	k.xndtn = k.xndt / k.xnodp
	return k
}

// sgp8Consts are the second order drag terms of SGP8.
type sgp8Consts struct {
	// simple is set when drag is very small: the mean motion varies linearly and the mean
	// anomaly quadratically.
	simple bool

	edot, ed   float64
	gamma      float64
	pp, qq     float64
	ovgpp, xnd float64
}

type sgp8 struct {
	el elements
	g  sgp8Geometry
	d  sgp8Drag
	k  sgp8Consts
}

func newSGP8(el elements) *sgp8 {
	g := newSGP8Geometry(el.xincl)
	d := newSGP8Drag(el, g)
	m := &sgp8{el: el, g: g, d: d}
	k := &m.k
	if math.Abs(d.xndtn*xmnpda) <= 2.16e-3 {
		k.simple = true
		k.edot = -twoThirds * d.xndtn * (1 - el.eo)
		return m
	}

	eo, eosq := el.eo, el.eo*el.eo
	eta, eta2 := d.eta, d.eta2
	eeta := eo * eta
	d6 := eta * (30 + 22.5*eta2)
	d7 := eta * (5 + 12.5*eta2)
	d8 := 1 + eta2*(6.75+eta2)
	d9 := eta*(6+68*eosq) + eo*(20+15*eta2)
	d10 := 5*eta*(4+eta2) + eo*(17+68*eta2)
	d11 := eta * (72 + 18*eta2)
	d12 := eta * (30 + 10*eta2)
	d13 := 5 + 11.25*eta2
	d20 := 0.5 * twoThirds * d.xndtn
	c8 := d.d1 * d7 * d.b2
	c9 := d.d5 * d8 * d.b3
	sin2g := 2 * d.sing * d.cosg
	c1 := 1.5 * d.xnodp * d.alpha2 * d.alpha2 * d.c0

	// The eccentricity rate enters the time derivative of tsi, so it comes first.
	k.edot = -d.c0 * (eta*(4+eta2+eosq*(15.5+7*eta2)) + eo*(5+15*eta2) + d.d1*d6*d.b1 +
		c8*d.cos2g + c9*d.sing)
	tsdtts := 2 * d.aodp * d.tsi * (d20*d.betao2 + eo*k.edot)
	aldtal := eo * k.edot / d.alpha2
	etdt := (k.edot + eo*tsdtts) * d.tsi * s
	psdtps := -eta * etdt * d.psim2
	c0dtc0 := d20 + 4*tsdtts - aldtal - 7*psdtps
	c1dtc1 := d.xndtn + 4*aldtal + c0dtc0
	d14 := tsdtts - 2*psdtps
	d15 := 2 * (d20 + eo*k.edot/d.betao2)
	d1dt := d.d1 * (d14 + d15)
	d2dt := etdt * d11
	d3dt := etdt * d12
	d4dt := etdt * d13
	d5dt := d.d5 * d14
	c4dt := d.b2 * (d1dt*d.d3 + d.d1*d3dt)
	c5dt := d.b3 * (d5dt*d.d4 + d.d5*d4dt)
	d16 := d9*etdt + d10*k.edot + d.b1*(d1dt*d.d2+d.d1*d2dt) + c4dt*d.cos2g + c5dt*d.sing +
		d.xgdt1*(d.c5*d.cosg-2*d.c4*sin2g)
	xnddt := c1dtc1*d.xndt + c1*d16
	eddot := c0dtc0*k.edot - d.c0*((4+3*eta2+30*eeta+eosq*(15.5+21*eta2))*etdt+
		(5+15*eta2+eeta*(31+14*eta2))*k.edot+
		d.b1*(d1dt*d6+d.d1*etdt*(30+67.5*eta2))+
		d.b2*(d1dt*d7+d.d1*etdt*(5+37.5*eta2))*d.cos2g+
		d.b3*(d5dt*d8+d.d5*etdt*eta*(13.5+4*eta2))*d.sing+
		d.xgdt1*(c9*d.cosg-2*c8*sin2g))
	d25 := k.edot * k.edot
	d17 := xnddt/d.xnodp - d.xndtn*d.xndtn
	tsddts := 2*tsdtts*(tsdtts-d20) +
		d.aodp*d.tsi*(twoThirds*d.betao2*d17-4*d20*eo*k.edot+2*(d25+eo*eddot))
	etddt := (eddot+2*k.edot*tsdtts)*d.tsi*s + tsddts*eta
	d18 := tsddts - tsdtts*tsdtts
	// psdtps²/eta² written without the division, which is 0/0 for circular orbits
	d19 := -etdt*etdt*d.psim2*d.psim2 - eta*etddt*d.psim2 - psdtps*psdtps
	d23 := etdt * etdt
	d1ddt := d1dt*(d14+d15) +
		d.d1*(d18-2*d19+twoThirds*d17+2*(d.alpha2*d25/d.betao2+eo*eddot)/d.betao2)
	xntrdt := d.xndt*(2*twoThirds*d17+3*(d25+eo*eddot)/d.alpha2-6*aldtal*aldtal+4*d18-7*d19) +
		c1dtc1*xnddt +
		c1*(c1dtc1*d16+d9*etddt+d10*eddot+d23*(6+30*eeta+68*eosq)+
			etdt*k.edot*(40+30*eta2+272*eeta)+d25*(17+68*eta2)+
			d.b1*(d1ddt*d.d2+2*d1dt*d2dt+d.d1*(etddt*d11+d23*(72+54*eta2)))+
			d.b2*(d1ddt*d.d3+2*d1dt*d3dt+d.d1*(etddt*d12+d23*(30+30*eta2)))*d.cos2g+
			d.b3*((d5dt*d14+d.d5*(d18-2*d19))*d.d4+2*d4dt*d5dt+d.d5*(etddt*d13+22.5*eta*d23))*d.sing+
			d.xgdt1*((7*d20+4*eo*k.edot/d.betao2)*(d.c5*d.cosg-2*d.c4*sin2g)+
				(2*c5dt*d.cosg-4*c4dt*sin2g-d.xgdt1*(d.c5*d.sing+4*d.c4*d.cos2g))))
	tmnddt := xnddt * 1e9
	temp := tmnddt*tmnddt - d.xndt*1e18*xntrdt
	k.pp = (temp + tmnddt*tmnddt) / temp
	k.gamma = -xntrdt / (xnddt * (k.pp - 2))
	k.xnd = d.xndt / (k.pp * k.gamma)
	k.qq = 1 - eddot/(k.edot*k.gamma)
	k.ed = k.edot / (k.qq * k.gamma)
	k.ovgpp = 1 / (k.gamma * (k.pp + 1))
	return m
}

func (m *sgp8) propagate(tsince float64) (pos, vel r3.Vec, converged bool, err error) {
	el, d, k := &m.el, &m.d, &m.k

	// Secular gravity and drag
	xmam := fmod2p(el.xmo + d.xlldot*tsince)
	omgasm := el.omegao + d.omgdt*tsince
	xnodes := el.xnodeo + d.xnodot*tsince
	var xn, em, z1 float64
	if !k.simple {
		temp := 1 - k.gamma*tsince
		if !(temp > 0) {
			return pos, vel, false, decayed("drag model breaks down %g min after epoch", tsince)
		}
		temp1 := math.Pow(temp, k.pp)
		xn = d.xnodp + k.xnd*(1-temp1)
		em = el.eo + k.ed*(1-math.Pow(temp, k.qq))
		z1 = k.xnd * (tsince + k.ovgpp*(temp*temp1-1))
	} else {
		xn = d.xnodp + d.xndt*tsince
		em = el.eo + k.edot*tsince
		z1 = 0.5 * d.xndt * tsince * tsince
	}
	z7 := 3.5 * twoThirds * z1 / d.xnodp
	xmam = fmod2p(xmam + z1 + z7*d.xmdt1)
	omgasm += z7 * d.xgdt1
	xnodes += z7 * d.xhdt1
	return m.g.posVel(xmam, omgasm, xnodes, em, xn, m.g.sinio2)
}

// posVel solves Kepler's equation, adds the short period periodics and returns the position
// in km and the velocity in km/min. sini2 is the sine of half the current inclination.
func (g *sgp8Geometry) posVel(xmam, omgasm, xnodes, em, xn, sini2 float64) (pos, vel r3.Vec, converged bool, err error) {
	if !(xn > 0) {
		return pos, vel, false, decayed("mean motion %g rad/min", xn)
	}
	if math.Abs(em) >= 1 {
		return pos, vel, false, decayed("eccentricity %g", em)
	}
	am := math.Pow(xke/xn, twoThirds)
	if am*(1-math.Abs(em)) < ae {
		return pos, vel, false, decayed("perigee %g km below the surface", (ae-am*(1-math.Abs(em)))*xkmper)
	}

	// Kepler's equation
	zc2 := xmam + em*math.Sin(xmam)*(1+em*math.Cos(xmam))
	var sine, cose, zc5 float64
	for i := 0; i < 10; i++ {
		sine, cose = math.Sincos(zc2)
		zc5 = 1 / (1 - em*cose)
		cape := (xmam+em*sine-zc2)*zc5 + zc2
		if math.Abs(cape-zc2) <= e6a {
			converged = true
			break
		}
		zc2 = cape
	}

	// Short period preliminary quantities
	beta2m := 1 - em*em
	sinos, cosos := math.Sincos(omgasm)
	axnm := em * cosos
	aynm := em * sinos
	pm := am * beta2m
	g1 := 1 / pm
	g2 := 0.5 * ck2 * g1
	g3 := g2 * g1
	beta := math.Sqrt(beta2m)
	g4 := 0.25 * a3cof * g.sini
	g5 := 0.25 * a3cof * g1
	snf := beta * sine * zc5
	csf := (cose - em) * zc5
	fm := math.Atan2(snf, csf)
	if fm < 0 {
		fm += twoπ
	}
	snfg := snf*cosos + csf*sinos
	csfg := csf*cosos - snf*sinos
	sn2f2g := 2 * snfg * csfg
	cs2f2g := 2*csfg*csfg - 1
	ecosf := em * csf
	g10 := fm - xmam + em*snf
	rm := pm / (1 + ecosf)
	aovr := am / rm
	g13 := xn * aovr
	g14 := -g13 * aovr
	dr := g2*(g.unmth2*cs2f2g-3*g.tthmun) - g4*snfg
	diwc := 3*g3*g.sini*cs2f2g - g5*aynm
	di := diwc * g.cosi

	// Short period periodics
	sni2du := g.sinio2*(g3*(0.5*(1-7*g.theta2)*sn2f2g-3*g.unm5th*g10)-g5*g.sini*csfg*(2+ecosf)) -
		0.5*g5*g.theta2*axnm/g.cosio2
	xlamb := fm + omgasm + xnodes + g3*(0.5*(1+6*g.cosi-7*g.theta2)*sn2f2g-3*(g.unm5th+2*g.cosi)*g10) +
		g5*g.sini*(g.cosi*axnm/nonZero(1+g.cosi)-(2+ecosf)*csfg)
	y4 := sini2*snfg + csfg*sni2du + 0.5*snfg*g.cosio2*di
	y5 := sini2*csfg - snfg*sni2du + 0.5*csfg*g.cosio2*di
	rr := rm + dr
	rdot := xn*am*em*snf/beta + g14*(2*g2*g.unmth2*sn2f2g+g4*csfg)
	rvdot := xn*am*am*beta/rm + g14*dr + am*g13*g.sini*diwc

	// Orientation vectors
	snlamb, cslamb := math.Sincos(xlamb)
	temp := 2 * (y5*snlamb - y4*cslamb)
	U := r3.Vec{X: y4*temp + cslamb}
	V := r3.Vec{X: y5*temp - snlamb}
	temp = 2 * (y5*cslamb + y4*snlamb)
	U.Y = -y4*temp + snlamb
	V.Y = -y5*temp + cslamb
	temp = 2 * math.Sqrt(1-y4*y4-y5*y5)
	U.Z = y4 * temp
	V.Z = y5 * temp

	pos = r3.Scale(rr*xkmper, U)
	vel = r3.Add(r3.Scale(rdot*xkmper, U), r3.Scale(rvdot*xkmper, V))
	return pos, vel, converged, nil
}

// sdp8 is SGP8 with the lunar, solar and resonance terms of the deep space theory. Its drag
// terms are always the simple ones.
type sdp8 struct {
	el   elements
	g    sgp8Geometry
	d    sgp8Drag
	edot float64
	deep *deepSpace
}

func newSDP8(el elements) *sdp8 {
	g := newSGP8Geometry(el.xincl)
	d := newSGP8Drag(el, g)
	o := orbitTerms{
		cosio:  g.cosi,
		sinio:  g.sini,
		theta2: g.theta2,
		eosq:   el.eo * el.eo,
		betao2: d.betao2,
		betao:  d.betao,
		sing:   d.sing,
		cosg:   d.cosg,
		xnodp:  d.xnodp,
		aodp:   d.aodp,
		xmdot:  d.xlldot,
		omgdot: d.omgdt,
		xnodot: d.xnodot,
	}
	return &sdp8{
		el:   el,
		g:    g,
		d:    d,
		edot: -twoThirds * d.xndtn * (1 - el.eo),
		deep: newDeepSpace(el, o),
	}
}

func (m *sdp8) propagate(tsince float64) (pos, vel r3.Vec, converged bool, err error) {
	el, d := &m.el, &m.d

	// Secular gravity and drag
	z1 := 0.5 * d.xndt * tsince * tsince
	z7 := 3.5 * twoThirds * z1 / d.xnodp
	st := deepState{
		t:      tsince,
		xll:    el.xmo + d.xlldot*tsince,
		omgadf: el.omegao + d.omgdt*tsince + z7*d.xgdt1,
		xnode:  el.xnodeo + d.xnodot*tsince + z7*d.xhdt1,
		xn:     d.xnodp,
	}

	// Deep space secular effects
	m.deep.secular(&st)
	st.xn += d.xndt * tsince
	st.em += m.edot * tsince
	st.xll += z1 + z7*d.xmdt1

	// Deep space periodic effects
	m.deep.periodics(&st)
	xmam := fmod2p(st.xll)
	return m.g.posVel(xmam, st.omgadf, st.xnode, st.em, st.xn, math.Sin(st.xinc/2))
}
