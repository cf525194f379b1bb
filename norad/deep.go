package norad

import (
	"math"

	smd "github.com/lanan07075/aldev-sub001"
)

// Lunar and solar constants of the deep space theory.
const (
	zns  = 1.19459e-5
	zes  = 0.01675
	znl  = 1.5835218e-4
	zel  = 0.05490
	thdt = 4.3752691e-3 // Earth rotation, rad/min

	// resonanceStep is the largest step of the resonance integrator, in minutes.
	resonanceStep = 720.0
)

// deepConsts are the lunar and solar coefficients computed once from the elements.
type deepConsts struct {
	thgr, xnq, xqncl, omegaq float64

	zmol, zmos float64

	// solar secular and periodic terms
	sse, ssi, ssl, ssg, ssh  float64
	se2, si2, sl2, sgh2, sh2 float64
	se3, si3, sl3, sgh3, sh3 float64
	sl4, sgh4                float64

	// lunar periodic terms
	ee2, xi2, xl2, xgh2, xh2 float64
	e3, xi3, xl3, xgh3, xh3  float64
	xl4, xgh4                float64

	// resonance terms
	resonant, synchronous bool
	del1, del2, del3      float64
	d2201, d2211          float64
	d3210, d3222          float64
	d4410, d4422          float64
	d5220, d5232          float64
	d5421, d5433          float64
	xlamo, xfact          float64
}

// deepSpace holds the lunar, solar and Earth resonance perturbations shared by SDP4 and SDP8.
//
// The resonance integrator keeps its last point (atime, xli, xni) as a cache: propagating
// further away from the epoch continues from there instead of integrating from the epoch
// again. Stored points lie on a fixed 720 minute grid from the epoch, and the integrator
// restarts when the requested time is closer to the epoch or on the other side of it, so
// results do not depend on the call history.
type deepSpace struct {
	el elements
	o  orbitTerms
	k  deepConsts

	atime, xli, xni float64
}

// deepState are the elements modified by the deep space terms during one evaluation.
type deepState struct {
	t      float64 // minutes since epoch
	xll    float64
	omgadf float64
	xnode  float64
	em     float64
	xinc   float64
	xn     float64
}

func newDeepSpace(el elements, o orbitTerms) *deepSpace {
	d := &deepSpace{el: el, o: o}
	d.init()
	return d
}

func (d *deepSpace) init() {
	el, o, k := &d.el, &d.o, &d.k
	sinq, cosq := math.Sincos(el.xnodeo)
	aqnv := 1 / o.aodp
	day := smd.JulianDate(el.epoch) - 2415020 // days since 1900 January 0.5

	k.thgr = thetaG(*el)
	k.xnq = o.xnodp
	k.xqncl = el.xincl
	k.omegaq = el.omegao

	xnodce := 4.5236020 - 9.2422029e-4*day
	stem, ctem := math.Sincos(xnodce)
	zcosil := 0.91375164 - 0.03568096*ctem
	zsinil := math.Sqrt(1 - zcosil*zcosil)
	zsinhl := 0.089683511 * stem / zsinil
	zcoshl := math.Sqrt(1 - zsinhl*zsinhl)
	k.zmol = fmod2p(0.228027132*day - 1.1151842)
	zx := 0.39785416 * stem / zsinil
	zy := zcoshl*ctem + 0.91744867*zsinhl*stem
	zx = math.Atan2(zx, zy) + 5.8351514 + 0.0019443680*day - xnodce
	zsingl, zcosgl := math.Sincos(zx)
	k.zmos = fmod2p(6.2565837 + 0.017201977*day)

	// The solar terms are computed first, then the lunar ones.
	zcosg, zsing := 0.1945905, -0.98088458
	zcosi, zsini := 0.91744867, 0.39785416
	zcosh, zsinh := cosq, sinq
	cc, zn, ze := 2.9864797e-6, zns, zes
	var se, si, sl, sgh, sh float64
	for pass := 0; pass < 2; pass++ {
		a1 := zcosg*zcosh + zsing*zcosi*zsinh
		a3 := -zsing*zcosh + zcosg*zcosi*zsinh
		a7 := -zcosg*zsinh + zsing*zcosi*zcosh
		a8 := zsing * zsini
		a9 := zsing*zsinh + zcosg*zcosi*zcosh
		a10 := zcosg * zsini
		a2 := o.cosio*a7 + o.sinio*a8
		a4 := o.cosio*a9 + o.sinio*a10
		a5 := -o.sinio*a7 + o.cosio*a8
		a6 := -o.sinio*a9 + o.cosio*a10
		x1 := a1*o.cosg + a2*o.sing
		x2 := a3*o.cosg + a4*o.sing
		x3 := -a1*o.sing + a2*o.cosg
		x4 := -a3*o.sing + a4*o.cosg
		x5 := a5 * o.sing
		x6 := a6 * o.sing
		x7 := a5 * o.cosg
		x8 := a6 * o.cosg
		z31 := 12*x1*x1 - 3*x3*x3
		z32 := 24*x1*x2 - 6*x3*x4
		z33 := 12*x2*x2 - 3*x4*x4
		z11 := -6*a1*a5 + o.eosq*(-24*x1*x7-6*x3*x5)
		z12 := -6*(a1*a6+a3*a5) + o.eosq*(-24*(x2*x7+x1*x8)-6*(x3*x6+x4*x5))
		z13 := -6*a3*a6 + o.eosq*(-24*x2*x8-6*x4*x6)
		z21 := 6*a2*a5 + o.eosq*(24*x1*x5-6*x3*x7)
		z22 := 6*(a4*a5+a2*a6) + o.eosq*(24*(x2*x5+x1*x6)-6*(x4*x7+x3*x8))
		z23 := 6*a4*a6 + o.eosq*(24*x2*x6-6*x4*x8)
		s3 := cc / k.xnq
		s2 := -0.5 * s3 / o.betao
		s4 := s3 * o.betao
		s1 := -15 * el.eo * s4
		s5 := x1*x3 + x2*x4
		s6 := x2*x3 + x1*x4
		s7 := x2*x4 - x1*x3
		z1 := 3*(a1*a1+a2*a2) + z31*o.eosq
		z2 := 6*(a1*a3+a2*a4) + z32*o.eosq
		z3 := 3*(a3*a3+a4*a4) + z33*o.eosq
		z1 = z1 + z1 + o.betao2*z31
		z2 = z2 + z2 + o.betao2*z32
		z3 = z3 + z3 + o.betao2*z33
		se = s1 * zn * s5
		si = s2 * zn * (z11 + z13)
		sl = -zn * s3 * (z1 + z3 - 14 - 6*o.eosq)
		sgh = s4 * zn * (z31 + z33 - 6)
		sh = 0
		if k.xqncl >= 5.2359877e-2 {
			sh = -zn * s2 * (z21 + z23)
		}
		k.ee2 = 2 * s1 * s6
		k.e3 = 2 * s1 * s7
		k.xi2 = 2 * s2 * z12
		k.xi3 = 2 * s2 * (z13 - z11)
		k.xl2 = -2 * s3 * z2
		k.xl3 = -2 * s3 * (z3 - z1)
		k.xl4 = -2 * s3 * (-21 - 9*o.eosq) * ze
		k.xgh2 = 2 * s4 * z32
		k.xgh3 = 2 * s4 * (z33 - z31)
		k.xgh4 = -18 * s4 * ze
		k.xh2 = -2 * s2 * z22
		k.xh3 = -2 * s2 * (z23 - z21)
		if pass > 0 {
			break
		}

		// Keep the solar terms and switch to the Moon.
		k.sse, k.ssi, k.ssl = se, si, sl
		if o.sinio != 0 {
			k.ssh = sh / o.sinio
		}
		k.ssg = sgh - o.cosio*k.ssh
		k.se2, k.si2, k.sl2, k.sgh2, k.sh2 = k.ee2, k.xi2, k.xl2, k.xgh2, k.xh2
		k.se3, k.si3, k.sl3, k.sgh3, k.sh3 = k.e3, k.xi3, k.xl3, k.xgh3, k.xh3
		k.sl4, k.sgh4 = k.xl4, k.xgh4
		zcosg, zsing = zcosgl, zsingl
		zcosi, zsini = zcosil, zsinil
		zcosh = zcoshl*cosq + zsinhl*sinq
		zsinh = sinq*zcoshl - cosq*zsinhl
		zn, cc, ze = znl, 4.7968065e-7, zel
	}
	k.sse += se
	k.ssi += si
	k.ssl += sl
	if o.sinio != 0 {
		k.ssg += sgh - o.cosio/o.sinio*sh
		k.ssh += sh / o.sinio
	} else {
		k.ssg += sgh
	}

	var bfact float64
	switch {
	case k.xnq >= 0.00826 && k.xnq <= 0.00924 && el.eo >= 0.5:
		// 12 hour orbits with e > 0.5
		k.resonant, k.synchronous = true, false
		d.initHalfDayResonance(aqnv)
		k.xlamo = el.xmo + 2*el.xnodeo - 2*k.thgr
		bfact = o.xmdot + 2*o.xnodot - 2*thdt + k.ssl + 2*k.ssh
	case k.xnq < 0.0052359877 && k.xnq > 0.0034906585:
		// geosynchronous orbits
		k.resonant, k.synchronous = true, true
		q22, q31, q33 := 1.7891679e-6, 2.1460748e-6, 2.2123015e-7
		cosio1 := 1 + o.cosio
		g200 := 1 + o.eosq*(-2.5+0.8125*o.eosq)
		g300 := 1 + o.eosq*(-6+6.60937*o.eosq)
		f311 := 0.9375*o.sinio*o.sinio*(1+3*o.cosio) - 0.75*cosio1
		g310 := 1 + 2*o.eosq
		f220 := 0.75 * cosio1 * cosio1
		f330 := 2.5 * f220 * cosio1
		del1 := 3 * k.xnq * k.xnq * aqnv * aqnv
		k.del2 = 2 * del1 * f220 * g200 * q22
		k.del3 = 3 * del1 * f330 * g300 * q33 * aqnv
		k.del1 = del1 * f311 * g310 * q31 * aqnv
		k.xlamo = el.xmo + el.xnodeo + el.omegao - k.thgr
		bfact = o.xmdot + o.omgdot + o.xnodot - thdt + k.ssl + k.ssg + k.ssh
	}
	if k.resonant {
		k.xfact = bfact - k.xnq
	}
	d.restart()
}

// initHalfDayResonance computes the geopotential resonance coefficients of 12 hour orbits.
func (d *deepSpace) initHalfDayResonance(aqnv float64) {
	eo, o, k := d.el.eo, &d.o, &d.k
	const (
		root22 = 1.7891679e-6
		root32 = 3.7393792e-7
		root44 = 7.3636953e-9
		root52 = 1.1428639e-7
		root54 = 2.1765803e-9
	)
	eosq := o.eosq
	eoc := eo * eosq
	sini2 := o.sinio * o.sinio
	g201 := -0.306 - (eo-0.64)*0.440
	f220 := 0.75 * (1 + 2*o.cosio + o.theta2)
	f221 := 1.5 * sini2
	f321 := 1.875 * o.sinio * (1 - 2*o.cosio - 3*o.theta2)
	f322 := -1.875 * o.sinio * (1 + 2*o.cosio - 3*o.theta2)
	f441 := 35 * sini2 * f220
	f442 := 39.3750 * sini2 * sini2
	f522 := 9.84375 * o.sinio * (sini2*(1-2*o.cosio-5*o.theta2) + 0.33333333*(-2+4*o.cosio+6*o.theta2))
	f523 := o.sinio * (4.92187512*sini2*(-2-4*o.cosio+10*o.theta2) + 6.56250012*(1+2*o.cosio-3*o.theta2))
	f542 := 29.53125 * o.sinio * (2 - 8*o.cosio + o.theta2*(-12+8*o.cosio+10*o.theta2))
	f543 := 29.53125 * o.sinio * (-2 - 8*o.cosio + o.theta2*(12+8*o.cosio-10*o.theta2))

	var g211, g310, g322, g410, g422, g520, g521, g532, g533 float64
	if eo <= 0.65 {
		g211 = 3.616 - 13.247*eo + 16.290*eosq
		g310 = -19.302 + 117.390*eo - 228.419*eosq + 156.591*eoc
		g322 = -18.9068 + 109.7927*eo - 214.6334*eosq + 146.5816*eoc
		g410 = -41.122 + 242.694*eo - 471.094*eosq + 313.953*eoc
		g422 = -146.407 + 841.880*eo - 1629.014*eosq + 1083.435*eoc
		g520 = -532.114 + 3017.977*eo - 5740*eosq + 3708.276*eoc
	} else {
		g211 = -72.099 + 331.819*eo - 508.738*eosq + 266.724*eoc
		g310 = -346.844 + 1582.851*eo - 2415.925*eosq + 1246.113*eoc
		g322 = -342.585 + 1554.908*eo - 2366.899*eosq + 1215.972*eoc
		g410 = -1052.797 + 4758.686*eo - 7193.992*eosq + 3651.957*eoc
		g422 = -3581.69 + 16178.11*eo - 24462.77*eosq + 12422.52*eoc
		if eo <= 0.715 {
			g520 = 1464.74 - 4664.75*eo + 3763.64*eosq
		} else {
			g520 = -5149.66 + 29936.92*eo - 54087.36*eosq + 31324.56*eoc
		}
	}
	if eo < 0.7 {
		g533 = -919.2277 + 4988.61*eo - 9064.77*eosq + 5542.21*eoc
		g521 = -822.71072 + 4568.6173*eo - 8491.4146*eosq + 5337.524*eoc
		g532 = -853.666 + 4690.25*eo - 8624.77*eosq + 5341.4*eoc
	} else {
		g533 = -37995.78 + 161616.52*eo - 229838.2*eosq + 109377.94*eoc
		g521 = -51752.104 + 218913.95*eo - 309468.16*eosq + 146349.42*eoc
		g532 = -40023.88 + 170470.89*eo - 242699.48*eosq + 115605.82*eoc
	}

	temp1 := 3 * k.xnq * k.xnq * aqnv * aqnv
	temp := temp1 * root22
	k.d2201 = temp * f220 * g201
	k.d2211 = temp * f221 * g211
	temp1 *= aqnv
	temp = temp1 * root32
	k.d3210 = temp * f321 * g310
	k.d3222 = temp * f322 * g322
	temp1 *= aqnv
	temp = 2 * temp1 * root44
	k.d4410 = temp * f441 * g410
	k.d4422 = temp * f442 * g422
	temp1 *= aqnv
	temp = temp1 * root52
	k.d5220 = temp * f522 * g520
	k.d5232 = temp * f523 * g532
	temp = 2 * temp1 * root54
	k.d5421 = temp * f542 * g521
	k.d5433 = temp * f543 * g533
}

// restart resets the resonance integrator to the epoch.
func (d *deepSpace) restart() {
	d.atime = 0
	d.xni = d.k.xnq
	d.xli = d.k.xlamo
}

// secular adds the lunar, solar and resonance secular effects.
func (d *deepSpace) secular(st *deepState) {
	el, k := &d.el, &d.k
	st.xll += k.ssl * st.t
	st.omgadf += k.ssg * st.t
	st.xnode += k.ssh * st.t
	st.em = el.eo + k.sse*st.t
	st.xinc = el.xincl + k.ssi*st.t
	if st.xinc < 0 {
		st.xinc = -st.xinc
		st.xnode += math.Pi
		st.omgadf -= math.Pi
	}
	if !k.resonant {
		return
	}

	if st.t*d.atime < 0 || math.Abs(st.t) < math.Abs(d.atime) {
		d.restart()
	}
	delt := resonanceStep
	if st.t < 0 {
		delt = -resonanceStep
	}
	for math.Abs(st.t-d.atime) >= resonanceStep {
		xndot, xnddt := d.resonanceRates()
		xldot := d.xni + k.xfact
		xnddt *= xldot
		d.xli += delt * (xldot + xndot*delt/2)
		d.xni += delt * (xndot + xnddt*delt/2)
		d.atime += delt
	}

	// The remainder is not stored.
	ft := st.t - d.atime
	xndot, xnddt := d.resonanceRates()
	xldot := d.xni + k.xfact
	xnddt *= xldot
	st.xn = d.xni + ft*(xndot+xnddt*ft/2)
	xl := d.xli + ft*(xldot+xndot*ft/2)
	temp := -st.xnode + k.thgr + st.t*thdt
	if k.synchronous {
		st.xll = xl + temp - st.omgadf
	} else {
		st.xll = xl + temp + temp
	}
}

// resonanceRates returns the derivatives of the mean motion at the current integrator point.
func (d *deepSpace) resonanceRates() (xndot, xnddt float64) {
	k := &d.k
	sinli, cosli := math.Sincos(d.xli)
	sin2li := 2 * sinli * cosli
	cos2li := 2*cosli*cosli - 1
	if k.synchronous {
		const (
			cfasx2  = 0.99139134268488593
			sfasx2  = 0.13093206501640101
			c2fasx4 = 0.87051638752972937
			s2fasx4 = -0.49213943048915526
			c3fasx6 = 0.43258117585763334
			s3fasx6 = 0.90159499016666422
		)
		sin3li := sin2li*cosli + cos2li*sinli
		cos3li := cos2li*cosli - sin2li*sinli
		xndot = k.del1*(sinli*cfasx2-cosli*sfasx2) +
			k.del2*(sin2li*c2fasx4-cos2li*s2fasx4) +
			k.del3*(sin3li*c3fasx6-cos3li*s3fasx6)
		xnddt = k.del1*(cosli*cfasx2+sinli*sfasx2) +
			2*k.del2*(cos2li*c2fasx4+sin2li*s2fasx4) +
			3*k.del3*(cos3li*c3fasx6+sin3li*s3fasx6)
		return
	}

	const (
		cg22 = 0.87051638752972937
		sg22 = -0.49213943048915526
		cg32 = 0.57972190187001149
		sg32 = 0.81481440616389245
		cg44 = -0.22866241528815548
		sg44 = 0.97350577801807991
		cg52 = 0.49684831179884198
		sg52 = 0.86783740128127729
		cg54 = -0.29695209575316894
		sg54 = -0.95489237761529999
	)
	xomi := k.omegaq + d.o.omgdot*d.atime
	sinomi, cosomi := math.Sincos(xomi)
	sinLiMOmi := sinli*cosomi - sinomi*cosli
	sinLiPOmi := sinli*cosomi + sinomi*cosli
	cosLiMOmi := cosli*cosomi + sinomi*sinli
	cosLiPOmi := cosli*cosomi - sinomi*sinli
	sin2omi := 2 * sinomi * cosomi
	cos2omi := 2*cosomi*cosomi - 1
	sin2LiMOmi := sin2li*cosomi - sinomi*cos2li
	sin2LiPOmi := sin2li*cosomi + sinomi*cos2li
	cos2LiMOmi := cos2li*cosomi + sinomi*sin2li
	cos2LiPOmi := cos2li*cosomi - sinomi*sin2li
	sin2LiP2Omi := sin2li*cos2omi + sin2omi*cos2li
	cos2LiP2Omi := cos2li*cos2omi - sin2omi*sin2li
	sin2OmiPLi := sinli*cos2omi + sin2omi*cosli
	cos2OmiPLi := cosli*cos2omi - sin2omi*sinli

	xndot = k.d2201*(sin2OmiPLi*cg22-cos2OmiPLi*sg22) +
		k.d2211*(sinli*cg22-cosli*sg22) +
		k.d3210*(sinLiPOmi*cg32-cosLiPOmi*sg32) +
		k.d3222*(sinLiMOmi*cg32-cosLiMOmi*sg32) +
		k.d4410*(sin2LiP2Omi*cg44-cos2LiP2Omi*sg44) +
		k.d4422*(sin2li*cg44-cos2li*sg44) +
		k.d5220*(sinLiPOmi*cg52-cosLiPOmi*sg52) +
		k.d5232*(sinLiMOmi*cg52-cosLiMOmi*sg52) +
		k.d5421*(sin2LiPOmi*cg54-cos2LiPOmi*sg54) +
		k.d5433*(sin2LiMOmi*cg54-cos2LiMOmi*sg54)
	xnddt = k.d2201*(cos2OmiPLi*cg22+sin2OmiPLi*sg22) +
		k.d2211*(cosli*cg22+sinli*sg22) +
		k.d3210*(cosLiPOmi*cg32+sinLiPOmi*sg32) +
		k.d3222*(cosLiMOmi*cg32+sinLiMOmi*sg32) +
		k.d5220*(cosLiPOmi*cg52+sinLiPOmi*sg52) +
		k.d5232*(cosLiMOmi*cg52+sinLiMOmi*sg52) +
		2*(k.d4410*(cos2LiP2Omi*cg44+sin2LiP2Omi*sg44)+
			k.d4422*(cos2li*cg44+sin2li*sg44)+
			k.d5421*(cos2LiPOmi*cg54+sin2LiPOmi*sg54)+
			k.d5433*(cos2LiMOmi*cg54+sin2LiMOmi*sg54))
	return
}

// periodics adds the lunar and solar periodic effects. They are evaluated at every call.
func (d *deepSpace) periodics(st *deepState) {
	o, k := &d.o, &d.k

	// Sun
	zm := k.zmos + zns*st.t
	zf := zm + 2*zes*math.Sin(zm)
	sinzf := math.Sin(zf)
	f2 := 0.5*sinzf*sinzf - 0.25
	f3 := -0.5 * sinzf * math.Cos(zf)
	ses := k.se2*f2 + k.se3*f3
	sis := k.si2*f2 + k.si3*f3
	sls := k.sl2*f2 + k.sl3*f3 + k.sl4*sinzf
	sghs := k.sgh2*f2 + k.sgh3*f3 + k.sgh4*sinzf
	shs := k.sh2*f2 + k.sh3*f3

	// Moon
	zm = k.zmol + znl*st.t
	zf = zm + 2*zel*math.Sin(zm)
	sinzf = math.Sin(zf)
	f2 = 0.5*sinzf*sinzf - 0.25
	f3 = -0.5 * sinzf * math.Cos(zf)
	sel := k.ee2*f2 + k.e3*f3
	sil := k.xi2*f2 + k.xi3*f3
	sll := k.xl2*f2 + k.xl3*f3 + k.xl4*sinzf
	sghl := k.xgh2*f2 + k.xgh3*f3 + k.xgh4*sinzf
	shl := k.xh2*f2 + k.xh3*f3

	pe := ses + sel
	pinc := sis + sil
	pl := sls + sll
	pgh := sghs + sghl
	ph := shs + shl

	sinis, cosis := math.Sincos(st.xinc)
	st.xinc += pinc
	st.em += pe

	if k.xqncl >= 0.2 {
		temp := ph / o.sinio
		st.omgadf += pgh - o.cosio*temp
		st.xnode += temp
		st.xll += pl
		return
	}

	// Lyddane modification for low inclinations
	sinok, cosok := math.Sincos(st.xnode)
	alfdp := ph*cosok + (pinc*cosis+sinis)*sinok
	betdp := -ph*sinok + (pinc*cosis+sinis)*cosok
	st.xnode = fmod2p(st.xnode)
	xls := st.xll + st.omgadf + cosis*st.xnode
	xls += pl + pgh - pinc*st.xnode*sinis
	xnoh := st.xnode
	st.xnode = math.Atan2(alfdp, betdp)
	// keep the node within half a turn of its secular value
	if st.xnode < xnoh-math.Pi {
		st.xnode += twoπ
	} else if st.xnode > xnoh+math.Pi {
		st.xnode -= twoπ
	}
	st.xll += pl
	st.omgadf = xls - st.xll - math.Cos(st.xinc)*st.xnode
}

// thetaG returns the Greenwich sidereal angle at the epoch of the elements.
func thetaG(el elements) float64 {
	return smd.GMST(el.epoch)
}
