package forecast

import (
	"fmt"
	"math"

	"FinBot/internal/domain/models"
	domsvc "FinBot/internal/domain/service"
)

const (
	thetaMinSeries    = 4
	thetaSeasonalTest = 90.0
)

// AutoTheta chooses between the standard theta method (theta = 2) and an
// optimised theta, on a seasonally adjusted series when the ACF at the
// season lag is significant.
type AutoTheta struct {
	season  int
	indices []float64
	n       int
	alpha   float64
	theta   float64
	level   float64
	slope   float64
	sigma   float64
	method  string
	fitted  bool
}

func NewAutoTheta(season int) *AutoTheta {
	return &AutoTheta{season: season}
}

func (t *AutoTheta) Name() string { return ModelTheta }

// Method returns "STM" for standard or "OTM" for optimised theta.
func (t *AutoTheta) Method() string { return t.method }

// Theta returns the selected theta coefficient.
func (t *AutoTheta) Theta() float64 { return t.theta }

func (t *AutoTheta) Fit(y []float64) error {
	if err := checkSeries(y, thetaMinSeries); err != nil {
		return err
	}
	t.indices = nil
	work := y
	if t.season > 1 && positive(y) && seasonalityTest(y, t.season, thetaSeasonalTest) {
		if idx := seasonalIndices(y, t.season, true); idx != nil {
			t.indices = idx
			work = make([]float64, len(y))
			for i, v := range y {
				work[i] = v / idx[i%t.season]
			}
		}
	}

	slope := olsSlope(work)
	type cand struct {
		method       string
		alpha, theta float64
		mse          float64
	}
	fitOne := func(method string, optimiseTheta bool) cand {
		x0 := []float64{logit(0.5)}
		if optimiseTheta {
			x0 = append(x0, math.Log(1))
		}
		decode := func(x []float64) (float64, float64) {
			a := 1e-4 + (1-2e-4)*sigmoid(x[0])
			th := 2.0
			if optimiseTheta {
				th = 1 + math.Exp(x[1])
			}
			return a, th
		}
		x, _ := minimize(func(x []float64) float64 {
			a, th := decode(x)
			_, mse := thetaRun(work, a, th, slope)
			return mse
		}, x0)
		a, th := decode(x)
		_, mse := thetaRun(work, a, th, slope)
		return cand{method: method, alpha: a, theta: th, mse: mse}
	}

	best := fitOne("STM", false)
	if opt := fitOne("OTM", true); opt.mse < best.mse {
		best = opt
	}
	if math.IsNaN(best.mse) || math.IsInf(best.mse, 0) {
		return fmt.Errorf("theta: fit produced non-finite error")
	}

	t.method, t.alpha, t.theta = best.method, best.alpha, best.theta
	t.level, _ = thetaRun(work, t.alpha, t.theta, slope)
	t.slope = slope
	t.sigma = math.Sqrt(best.mse)
	t.n = len(y)
	t.fitted = true
	return nil
}

// thetaRun filters work with simple exponential smoothing and scores the
// one-step theta forecasts. It returns the final SES level and the MSE.
func thetaRun(y []float64, alpha, theta, slope float64) (float64, float64) {
	l := y[0]
	var sse float64
	for i := 1; i < len(y); i++ {
		drift := (1 - 1/theta) * slope * (1 - math.Pow(1-alpha, float64(i))) / alpha
		err := y[i] - (l + drift)
		sse += err * err
		l += alpha * (y[i] - l)
	}
	return l, sse / float64(len(y)-1)
}

// olsSlope is the least squares slope of y on t = 0..n-1.
func olsSlope(y []float64) float64 {
	n := float64(len(y))
	tm := (n - 1) / 2
	ym := mean(y)
	var num, den float64
	for i, v := range y {
		dt := float64(i) - tm
		num += dt * (v - ym)
		den += dt * dt
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func positive(y []float64) bool {
	for _, v := range y {
		if v <= 0 {
			return false
		}
	}
	return true
}

func (t *AutoTheta) Predict(h int, level float64) (models.Prediction, error) {
	if !t.fitted {
		return models.Prediction{}, ErrNotFitted
	}
	if h < 1 {
		return models.Prediction{}, fmt.Errorf("horizon must be positive, got %d", h)
	}
	a := t.alpha
	decay := math.Pow(1-a, float64(t.n))
	fc := make([]float64, h)
	for i := 1; i <= h; i++ {
		v := t.level + (1-1/t.theta)*t.slope*(float64(i-1)+1/a-decay/a)
		if t.indices != nil {
			v *= t.indices[(t.n+i-1)%t.season]
		}
		fc[i-1] = v
	}
	return sqrtHorizon(fc, t.sigma, level), nil
}

var _ domsvc.Forecaster = (*AutoTheta)(nil)
