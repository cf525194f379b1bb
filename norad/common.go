package norad

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDecayed is wrapped in the RangeError returned when the propagated orbit is no longer
// physical: a non-positive semi-major axis, an eccentricity of one or more, or a perigee
// below the surface.
var ErrDecayed = errors.New("orbit decayed")

func decayed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrDecayed}, args...)...)
}

// orbitTerms are the recovered orbit quantities, shared with the deep space terms.
type orbitTerms struct {
	cosio, sinio, theta2 float64
	eosq, betao2, betao  float64
	sing, cosg           float64
	xnodp, aodp          float64
	xmdot, omgdot        float64
	xnodot               float64
}

// commonConsts are the initialization constants of SGP4 and SDP4.
type commonConsts struct {
	orbitTerms
	x3thm1, x1mth2, x7thm1 float64
	c1, c4                 float64
	xnodcf, t2cof          float64
	xlcof, aycof           float64

	coef, coef1 float64
	tsi, s4     float64
	eta         float64
	a3ovk2      float64
}

func newCommonConsts(el elements) commonConsts {
	var c commonConsts
	a1 := math.Pow(xke/el.xno, twoThirds)
	c.cosio = math.Cos(el.xincl)
	c.sinio = math.Sin(el.xincl)
	c.sing, c.cosg = math.Sincos(el.omegao)
	c.theta2 = c.cosio * c.cosio
	c.x3thm1 = 3*c.theta2 - 1
	c.eosq = el.eo * el.eo
	c.betao2 = 1 - c.eosq
	c.betao = math.Sqrt(c.betao2)
	del1 := 1.5 * ck2 * c.x3thm1 / (a1 * a1 * c.betao * c.betao2)
	ao := a1 * (1 - del1*(0.5*twoThirds+del1*(1+134.0/81*del1)))
	delo := 1.5 * ck2 * c.x3thm1 / (ao * ao * c.betao * c.betao2)
	c.xnodp = el.xno / (1 + delo)
	c.aodp = ao / (1 - delo)

	// For perigees below 156 km the values of s and qoms2t are altered.
	c.s4 = s
	qoms24 := qoms2t
	if perigee := (c.aodp*(1-el.eo) - ae) * xkmper; perigee < 156 {
		c.s4 = perigee - 78
		if perigee <= 98 {
			c.s4 = 20
		}
		t := (120 - c.s4) * ae / xkmper
		qoms24 = t * t * t * t
		c.s4 = c.s4/xkmper + ae
	}

	pinvsq := 1 / (c.aodp * c.aodp * c.betao2 * c.betao2)
	c.tsi = 1 / (c.aodp - c.s4)
	c.eta = c.aodp * el.eo * c.tsi
	etasq := c.eta * c.eta
	eeta := el.eo * c.eta
	psisq := math.Abs(1 - etasq)
	tsi2 := c.tsi * c.tsi
	c.coef = qoms24 * tsi2 * tsi2
	c.coef1 = c.coef / math.Pow(psisq, 3.5)
	c2 := c.coef1 * c.xnodp * (c.aodp*(1+1.5*etasq+eeta*(4+etasq)) +
		0.75*ck2*c.tsi/psisq*c.x3thm1*(8+3*etasq*(8+etasq)))
	c.c1 = el.bstar * c2
	c.a3ovk2 = a3cof
	c.x1mth2 = 1 - c.theta2
	c.c4 = 2 * c.xnodp * c.coef1 * c.aodp * c.betao2 *
		(c.eta*(2+0.5*etasq) + el.eo*(0.5+2*etasq) -
			2*ck2*c.tsi/(c.aodp*psisq)*
				(-3*c.x3thm1*(1-2*eeta+etasq*(1.5-0.5*eeta))+
					0.75*c.x1mth2*(2*etasq-eeta*(1+etasq))*math.Cos(2*el.omegao)))
	theta4 := c.theta2 * c.theta2
	temp1 := 3 * ck2 * pinvsq * c.xnodp
	temp2 := temp1 * ck2 * pinvsq
	temp3 := 1.25 * ck4 * pinvsq * pinvsq * c.xnodp
	c.xmdot = c.xnodp + 0.5*temp1*c.betao*c.x3thm1 +
		0.0625*temp2*c.betao*(13-78*c.theta2+137*theta4)
	x1m5th := 1 - 5*c.theta2
	c.omgdot = -0.5*temp1*x1m5th + 0.0625*temp2*(7-114*c.theta2+395*theta4) +
		temp3*(3-36*c.theta2+49*theta4)
	xhdot1 := -temp1 * c.cosio
	c.xnodot = xhdot1 + (0.5*temp2*(4-19*c.theta2)+2*temp3*(3-7*c.theta2))*c.cosio
	c.xnodcf = 3.5 * c.betao2 * xhdot1 * c.c1
	c.t2cof = 1.5 * c.c1
	c.xlcof = 0.125 * c.a3ovk2 * c.sinio * (3 + 5*c.cosio) / nonZero(1+c.cosio)
	c.aycof = 0.25 * c.a3ovk2 * c.sinio
	c.x7thm1 = 7*c.theta2 - 1
	return c
}

// nonZero keeps retrograde equatorial orbits away from a division by zero.
func nonZero(x float64) float64 {
	if math.Abs(x) < 1.5e-12 {
		return 1.5e-12
	}
	return x
}

// posVel adds the long and short period periodics to the secular elements and returns the
// position in km and the velocity in km/min. converged is false when Kepler's equation did
// not converge within the iteration cap.
func (c *commonConsts) posVel(xnode, a, e, xincl, omega, xl float64) (pos, vel r3.Vec, converged bool, err error) {
	if !(a > 0) {
		return pos, vel, false, decayed("semi-major axis %g earth radii", a)
	}
	beta2 := 1 - e*e
	if !(beta2 > 0) {
		return pos, vel, false, decayed("eccentricity %g", e)
	}

	// Long period periodics
	axn := e * math.Cos(omega)
	temp := 1 / (a * beta2)
	xll := temp * c.xlcof * axn
	aynl := temp * c.aycof
	xlt := xl + xll
	ayn := e*math.Sin(omega) + aynl
	elsq := axn*axn + ayn*ayn
	if elsq >= 1 {
		return pos, vel, false, decayed("eccentricity %g", math.Sqrt(elsq))
	}
	if a*(1-math.Sqrt(elsq)) < ae {
		return pos, vel, false, decayed("perigee %g km below the surface", (ae-a*(1-math.Sqrt(elsq)))*xkmper)
	}
	capu := fmod2p(xlt - xnode)

	// Kepler's equation
	var sinepw, cosepw, temp3, temp4, temp5, temp6 float64
	temp2 := capu
	for i := 0; i < 10; i++ {
		sinepw, cosepw = math.Sincos(temp2)
		temp3 = axn * sinepw
		temp4 = ayn * cosepw
		temp5 = axn * cosepw
		temp6 = ayn * sinepw
		epw := (capu-temp4+temp3-temp2)/(1-temp5-temp6) + temp2
		if math.Abs(epw-temp2) <= e6a {
			converged = true
			break
		}
		temp2 = epw
	}

	// Short period preliminary quantities
	ecose := temp5 + temp6
	esine := temp3 - temp4
	temp = 1 - elsq
	pl := a * temp
	r := a * (1 - ecose)
	temp1 := 1 / r
	temp2 = a * temp1
	betal := math.Sqrt(temp)
	temp3 = 1 / (1 + betal)
	cosu := temp2 * (cosepw - axn + ayn*esine*temp3)
	sinu := temp2 * (sinepw - ayn - axn*esine*temp3)
	u := math.Atan2(sinu, cosu)
	sin2u := 2 * sinu * cosu
	cos2u := 2*cosu*cosu - 1
	temp = 1 / pl
	temp1 = ck2 * temp
	temp2 = temp1 * temp

	// Short periodics
	rk := r*(1-1.5*temp2*betal*c.x3thm1) + 0.5*temp1*c.x1mth2*cos2u
	uk := u - 0.25*temp2*c.x7thm1*sin2u
	xnodek := xnode + 1.5*temp2*c.cosio*sin2u
	xinck := xincl + 1.5*temp2*c.cosio*c.sinio*cos2u

	// Orientation vectors
	sinuk, cosuk := math.Sincos(uk)
	sinik, cosik := math.Sincos(xinck)
	sinnok, cosnok := math.Sincos(xnodek)
	xmx := -sinnok * cosik
	xmy := cosnok * cosik
	U := r3.Vec{X: xmx*sinuk + cosnok*cosuk, Y: xmy*sinuk + sinnok*cosuk, Z: sinik * sinuk}
	V := r3.Vec{X: xmx*cosuk - cosnok*sinuk, Y: xmy*cosuk - sinnok*sinuk, Z: sinik * cosuk}

	rdot := xke * math.Sqrt(a) * esine / r
	rfdot := xke * math.Sqrt(pl) / r
	xn := xke / (a * math.Sqrt(a))
	rdotk := rdot - xn*temp1*c.x1mth2*sin2u
	rfdotk := rfdot + xn*temp1*(c.x1mth2*cos2u+1.5*c.x3thm1)

	pos = r3.Scale(rk*xkmper, U)
	vel = r3.Add(r3.Scale(rdotk*xkmper, U), r3.Scale(rfdotk*xkmper, V))
	return pos, vel, converged, nil
}
