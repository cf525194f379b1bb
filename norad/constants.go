package norad

import (
	"math"
	"time"

	smd "github.com/lanan07075/aldev-sub001"
)

// WGS-72 constants of the theories. Distances are in earth radii and times in minutes.
const (
	xkmper    = 6378.135 // km per earth radius
	ae        = 1.0
	xj2       = 1.082616e-3
	xj3       = -2.53881e-6
	xj4       = -1.65597e-6
	ck2       = 0.5 * xj2 * ae * ae
	ck4       = -0.375 * xj4 * ae * ae * ae * ae
	e6a       = 1e-6
	rho       = 0.15696615 // drag proportionality of SGP8 and SDP8
	xmnpda    = 1440.0     // minutes per day
	twoThirds = 2.0 / 3.0
	twoπ      = 2 * math.Pi
	minimalE  = 1e-9
	a3cof     = -xj3 / ck2 * ae * ae * ae
)

var (
	xke    = 60 / math.Sqrt(xkmper*xkmper*xkmper/398600.8) // sqrt(GM) in earth radii^1.5 per minute
	qoms2t = math.Pow((120-78)/xkmper, 4)
	s      = ae * (1 + 78/xkmper)
)

// elements are the mean elements in the units of the theories: radians, minutes and earth radii.
type elements struct {
	epoch  time.Time
	xno    float64 // rad/min
	xndt2o float64 // rad/min²
	xndd6o float64 // rad/min³
	bstar  float64
	eo     float64
	xincl  float64
	xnodeo float64
	omegao float64
	xmo    float64
}

func newElements(m smd.MeanElements) elements {
	return elements{
		epoch:  m.Epoch,
		xno:    m.MeanMotion * 60,
		xndt2o: m.MeanMotionDot * 3600,
		xndd6o: m.MeanMotionDDot * 216000,
		bstar:  m.BStar,
		eo:     m.Eccentricity,
		xincl:  m.Inclination,
		xnodeo: m.RAAN,
		omegao: m.ArgPerigee,
		xmo:    m.MeanAnomaly,
	}
}

// fmod2p returns the angle in [0, 2π).
func fmod2p(x float64) float64 {
	r := math.Mod(x, twoπ)
	if r < 0 {
		r += twoπ
	}
	return r
}

// recoverMeanMotion returns the original mean motion and semi-major axis, undoing the Kozai
// convention of the distributed mean motion.
func recoverMeanMotion(el elements) (xnodp, aodp float64) {
	a1 := math.Pow(xke/el.xno, twoThirds)
	cosio := math.Cos(el.xincl)
	betao2 := 1 - el.eo*el.eo
	temp := 1.5 * ck2 * (3*cosio*cosio - 1) / math.Pow(betao2, 1.5)
	del1 := temp / (a1 * a1)
	ao := a1 * (1 - del1*(1.0/3+del1*(1+134.0/81*del1)))
	delo := temp / (ao * ao)
	return el.xno / (1 + delo), ao / (1 - delo)
}
