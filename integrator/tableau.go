// Package integrator provides the Runge-Kutta integrators used by the integrating propagator.
package integrator

// Tableau is the Butcher tableau of an embedded Runge-Kutta pair.
type Tableau struct {
	Name string
	// Order of the propagated solution, which drives the step size control.
	Order int
	C     []float64
	A     [][]float64 // row s holds the s coefficients of stage s
	B     []float64   // weights of the propagated solution
	E     []float64   // weights of the error estimate (propagated minus embedded)
	// FSAL is set when the last stage is evaluated at the propagated solution, so that it is the
	// first stage of the next step.
	FSAL bool
}

// Stages returns the number of stages.
func (t *Tableau) Stages() int {
	return len(t.C)
}

func difference(b, bHat []float64) []float64 {
	e := make([]float64, len(b))
	for i := range b {
		e[i] = b[i] - bHat[i]
	}
	return e
}

// DormandPrince54 is the Dormand-Prince 5(4) pair.
var DormandPrince54 = &Tableau{
	Name:  "dormand_prince",
	Order: 5,
	C:     []float64{0, 1. / 5, 3. / 10, 4. / 5, 8. / 9, 1, 1},
	A: [][]float64{
		{},
		{1. / 5},
		{3. / 40, 9. / 40},
		{44. / 45, -56. / 15, 32. / 9},
		{19372. / 6561, -25360. / 2187, 64448. / 6561, -212. / 729},
		{9017. / 3168, -355. / 33, 46732. / 5247, 49. / 176, -5103. / 18656},
		{35. / 384, 0, 500. / 1113, 125. / 192, -2187. / 6784, 11. / 84},
	},
	B: []float64{35. / 384, 0, 500. / 1113, 125. / 192, -2187. / 6784, 11. / 84, 0},
	E: difference(
		[]float64{35. / 384, 0, 500. / 1113, 125. / 192, -2187. / 6784, 11. / 84, 0},
		[]float64{5179. / 57600, 0, 7571. / 16695, 393. / 640, -92097. / 339200, 187. / 2100, 1. / 40},
	),
	FSAL: true,
}

// Fehlberg45 is the Runge-Kutta-Fehlberg 4(5) pair, propagating the fifth order solution.
var Fehlberg45 = &Tableau{
	Name:  "fehlberg",
	Order: 5,
	C:     []float64{0, 1. / 4, 3. / 8, 12. / 13, 1, 1. / 2},
	A: [][]float64{
		{},
		{1. / 4},
		{3. / 32, 9. / 32},
		{1932. / 2197, -7200. / 2197, 7296. / 2197},
		{439. / 216, -8, 3680. / 513, -845. / 4104},
		{-8. / 27, 2, -3544. / 2565, 1859. / 4104, -11. / 40},
	},
	B: []float64{16. / 135, 0, 6656. / 12825, 28561. / 56430, -9. / 50, 2. / 55},
	E: difference(
		[]float64{16. / 135, 0, 6656. / 12825, 28561. / 56430, -9. / 50, 2. / 55},
		[]float64{25. / 216, 0, 1408. / 2565, 2197. / 4104, -1. / 5, 0},
	),
}

// CashKarp45 is the Cash-Karp 4(5) pair, propagating the fifth order solution.
var CashKarp45 = &Tableau{
	Name:  "cash_karp",
	Order: 5,
	C:     []float64{0, 1. / 5, 3. / 10, 3. / 5, 1, 7. / 8},
	A: [][]float64{
		{},
		{1. / 5},
		{3. / 40, 9. / 40},
		{3. / 10, -9. / 10, 6. / 5},
		{-11. / 54, 5. / 2, -70. / 27, 35. / 27},
		{1631. / 55296, 175. / 512, 575. / 13824, 44275. / 110592, 253. / 4096},
	},
	B: []float64{37. / 378, 0, 250. / 621, 125. / 594, 0, 512. / 1771},
	E: difference(
		[]float64{37. / 378, 0, 250. / 621, 125. / 594, 0, 512. / 1771},
		[]float64{2825. / 27648, 0, 18575. / 48384, 13525. / 55296, 277. / 14336, 1. / 4},
	),
}

// BogackiShampine32 is the Bogacki-Shampine 3(2) pair.
var BogackiShampine32 = &Tableau{
	Name:  "bogacki_shampine",
	Order: 3,
	C:     []float64{0, 1. / 2, 3. / 4, 1},
	A: [][]float64{
		{},
		{1. / 2},
		{0, 3. / 4},
		{2. / 9, 1. / 3, 4. / 9},
	},
	B: []float64{2. / 9, 1. / 3, 4. / 9, 0},
	E: difference(
		[]float64{2. / 9, 1. / 3, 4. / 9, 0},
		[]float64{7. / 24, 1. / 4, 1. / 3, 1. / 8},
	),
	FSAL: true,
}
