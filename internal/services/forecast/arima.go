package forecast

import (
	"fmt"
	"math"
	"math/cmplx"

	"FinBot/internal/domain/models"
	domsvc "FinBot/internal/domain/service"
	"FinBot/internal/services/features"

	"gonum.org/v1/gonum/mat"
)

const (
	arimaMaxOrder   = 3
	arimaMaxDiff    = 2
	arimaMinSeries  = 8
	seasonThreshold = 0.64
)

// AutoARIMA selects (p,d,q) by a KPSS differencing test and a stepwise AICc
// search over ARMA orders fitted by conditional sum of squares.
type AutoARIMA struct {
	season int
	y      []float64
	fit    *arimaFit
}

type arimaFit struct {
	p, d, q, D int
	phi        []float64
	theta      []float64
	mu         float64
	hasMean    bool
	sigma2     float64
	aicc       float64
	resid      []float64
}

func NewAutoARIMA(season int) *AutoARIMA {
	return &AutoARIMA{season: season}
}

func (a *AutoARIMA) Name() string { return ModelARIMA }

// Order returns the selected (p, d, q) and seasonal differencing order.
func (a *AutoARIMA) Order() (p, d, q, D int) {
	if a.fit == nil {
		return 0, 0, 0, 0
	}
	return a.fit.p, a.fit.d, a.fit.q, a.fit.D
}

func (a *AutoARIMA) Fit(y []float64) error {
	if err := checkSeries(y, arimaMinSeries); err != nil {
		return err
	}
	a.y = append([]float64(nil), y...)

	w := y
	D := 0
	if a.season > 1 && len(y) >= 2*a.season && seasonalStrength(y, a.season) > seasonThreshold {
		D = 1
		w = features.Diff(w, a.season)
	}
	d := ndiffs(w, arimaMaxDiff)
	for i := 0; i < d; i++ {
		w = features.Diff(w, 1)
	}
	if len(w) < arimaMinSeries/2 {
		return fmt.Errorf("%w: too short after differencing", ErrSeriesTooShort)
	}
	hasMean := d+D <= 1

	tried := map[[2]int]bool{}
	var best *arimaFit
	try := func(p, q int) {
		if p < 0 || q < 0 || p > arimaMaxOrder || q > arimaMaxOrder || tried[[2]int{p, q}] {
			return
		}
		tried[[2]int{p, q}] = true
		f := fitARMA(w, p, q, hasMean)
		if f == nil {
			return
		}
		if best == nil || f.aicc < best.aicc {
			best = f
		}
	}

	for _, pq := range [][2]int{{2, 2}, {0, 0}, {1, 0}, {0, 1}} {
		try(pq[0], pq[1])
	}
	for best != nil {
		cur := best
		for _, step := range [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {-1, -1}, {1, -1}, {-1, 1}} {
			try(cur.p+step[0], cur.q+step[1])
		}
		if best == cur {
			break
		}
	}
	if best == nil {
		return fmt.Errorf("arima: no candidate model could be fitted")
	}
	best.d = d
	best.D = D
	a.fit = best
	return nil
}

// fitARMA estimates an ARMA(p,q) with optional mean on w by CSS.
func fitARMA(w []float64, p, q int, hasMean bool) *arimaFit {
	n := len(w)
	if n-p <= p+q+2 {
		return nil
	}
	mu0 := 0.0
	if hasMean {
		mu0 = mean(w)
	}
	k := p + q
	if hasMean {
		k++
	}

	unpack := func(x []float64) ([]float64, []float64, float64) {
		phi := x[:p]
		theta := x[p : p+q]
		mu := 0.0
		if hasMean {
			mu = x[p+q]
		}
		return phi, theta, mu
	}
	obj := func(x []float64) float64 {
		phi, theta, mu := unpack(x)
		if !stableRoots(phi) || !stableRoots(negate(theta)) {
			return penalty
		}
		_, sse := cssResiduals(w, phi, theta, mu)
		return sse
	}

	x0 := make([]float64, k)
	if hasMean {
		x0[k-1] = mu0
	}
	var x []float64
	if k == 0 {
		x = x0
	} else {
		x, _ = minimize(obj, x0)
	}
	phi, theta, mu := unpack(x)
	if !stableRoots(phi) || !stableRoots(negate(theta)) {
		return nil
	}
	resid, sse := cssResiduals(w, phi, theta, mu)
	nEff := n - p
	return &arimaFit{
		p:       p,
		q:       q,
		phi:     append([]float64(nil), phi...),
		theta:   append([]float64(nil), theta...),
		mu:      mu,
		hasMean: hasMean,
		sigma2:  sse / float64(nEff),
		aicc:    aicc(sse, nEff, k+1),
		resid:   resid,
	}
}

func cssResiduals(w, phi, theta []float64, mu float64) ([]float64, float64) {
	n := len(w)
	p := len(phi)
	e := make([]float64, n)
	var sse float64
	for t := p; t < n; t++ {
		v := w[t] - mu
		for i, c := range phi {
			v -= c * (w[t-1-i] - mu)
		}
		for j, c := range theta {
			if t-1-j >= 0 {
				v -= c * e[t-1-j]
			}
		}
		e[t] = v
		sse += v * v
	}
	return e, sse
}

func negate(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = -x
	}
	return out
}

// stableRoots reports whether 1 - c1 z - ... - cp z^p has all roots outside
// the unit circle, checked via the eigenvalues of the companion matrix.
func stableRoots(c []float64) bool {
	p := len(c)
	for p > 0 && c[p-1] == 0 {
		p--
	}
	switch p {
	case 0:
		return true
	case 1:
		return math.Abs(c[0]) < 1
	}
	m := mat.NewDense(p, p, nil)
	for j := 0; j < p; j++ {
		m.Set(0, j, c[j])
	}
	for i := 1; i < p; i++ {
		m.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenNone) {
		return false
	}
	for _, v := range eig.Values(nil) {
		if cmplx.Abs(v) >= 1 {
			return false
		}
	}
	return true
}

// polyMul multiplies polynomials in the backshift operator given as
// coefficient slices starting at B^0.
func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// fullAR expands phi(B)(1-B)^d(1-B^m)^D into coefficients of y_{t-i}.
func (f *arimaFit) fullAR(m int) []float64 {
	poly := []float64{1}
	for _, c := range f.phi {
		poly = append(poly, -c)
	}
	for i := 0; i < f.d; i++ {
		poly = polyMul(poly, []float64{1, -1})
	}
	if f.D > 0 {
		seas := make([]float64, m+1)
		seas[0], seas[m] = 1, -1
		for i := 0; i < f.D; i++ {
			poly = polyMul(poly, seas)
		}
	}
	out := make([]float64, len(poly)-1)
	for i := 1; i < len(poly); i++ {
		out[i-1] = -poly[i]
	}
	return out
}

func (a *AutoARIMA) Predict(h int, level float64) (models.Prediction, error) {
	if a.fit == nil {
		return models.Prediction{}, ErrNotFitted
	}
	if h < 1 {
		return models.Prediction{}, fmt.Errorf("horizon must be positive, got %d", h)
	}
	f := a.fit
	n := len(a.y)
	ar := f.fullAR(a.season)

	var c float64
	if f.hasMean {
		s := 1.0
		for _, v := range f.phi {
			s -= v
		}
		c = f.mu * s
	}

	offset := n - len(f.resid)
	e := make([]float64, n)
	for t, v := range f.resid {
		e[t+offset] = v
	}

	ext := append(make([]float64, 0, n+h), a.y...)
	fc := make([]float64, h)
	for step := 0; step < h; step++ {
		t := n + step
		v := c
		for i, coef := range ar {
			if t-1-i >= 0 {
				v += coef * ext[t-1-i]
			}
		}
		for j, coef := range f.theta {
			if idx := t - 1 - j; idx < n {
				v += coef * e[idx]
			}
		}
		ext = append(ext, v)
		fc[step] = v
	}

	psi := make([]float64, h)
	psi[0] = 1
	for j := 1; j < h; j++ {
		var v float64
		if j <= len(f.theta) {
			v = f.theta[j-1]
		}
		for i := 1; i <= j && i <= len(ar); i++ {
			v += ar[i-1] * psi[j-i]
		}
		psi[j] = v
	}

	z := zScore(level)
	out := models.Prediction{
		Mean:  fc,
		Lo:    make([]float64, h),
		Hi:    make([]float64, h),
		Level: level,
	}
	var acc float64
	for i := 0; i < h; i++ {
		acc += psi[i] * psi[i]
		w := z * math.Sqrt(f.sigma2*acc)
		out.Lo[i] = fc[i] - w
		out.Hi[i] = fc[i] + w
	}
	return out, nil
}

var _ domsvc.Forecaster = (*AutoARIMA)(nil)
