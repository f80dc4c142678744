// Package forecast implements automatic univariate forecasting models used by
// the arima, ets, ces and theta commands.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"FinBot/internal/domain/models"
	domsvc "FinBot/internal/domain/service"
	"FinBot/internal/services/features"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrSeriesTooShort = errors.New("series too short to fit")
	ErrNonFinite      = errors.New("series contains non-finite values")
	ErrNotFitted      = errors.New("model is not fitted")
	ErrUnknownModel   = errors.New("unknown forecast model")
)

// Model names accepted by the factory.
const (
	ModelARIMA = "arima"
	ModelETS   = "ets"
	ModelCES   = "ces"
	ModelTheta = "theta"
)

// Models lists the supported model names.
var Models = []string{ModelARIMA, ModelETS, ModelCES, ModelTheta}

var labels = map[string]string{
	ModelARIMA: "AutoARIMA",
	ModelETS:   "AutoETS",
	ModelCES:   "CES",
	ModelTheta: "AutoTheta",
}

var titles = map[string]string{
	ModelARIMA: "ARIMA",
	ModelETS:   "ETS",
	ModelCES:   "CES",
	ModelTheta: "Theta",
}

// Label is the forecast column name used in tables.
func Label(model string) string { return labels[strings.ToLower(model)] }

// Title is the chart title prefix.
func Title(model string) string { return titles[strings.ToLower(model)] }

// Factory builds forecasters for a fixed season length.
type Factory struct {
	season int
}

func NewFactory(season int) *Factory {
	if season < 1 {
		season = 1
	}
	return &Factory{season: season}
}

func (f *Factory) New(model string) (domsvc.Forecaster, error) {
	switch strings.ToLower(model) {
	case ModelARIMA:
		return NewAutoARIMA(f.season), nil
	case ModelETS:
		return NewAutoETS(f.season), nil
	case ModelCES:
		return NewAutoCES(), nil
	case ModelTheta:
		return NewAutoTheta(f.season), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
}

var _ domsvc.ForecasterFactory = (*Factory)(nil)

const penalty = 1e100

// minSSE floors the residual sum of squares in aicc.
const minSSE = 1e-10

func checkSeries(y []float64, min int) error {
	if len(y) < min {
		return fmt.Errorf("%w: have %d, need %d", ErrSeriesTooShort, len(y), min)
	}
	if !features.Finite(y) {
		return ErrNonFinite
	}
	return nil
}

// minimize runs Nelder-Mead from x0. Non-finite objective values are mapped to
// a large penalty so the simplex moves away from them.
func minimize(f func(x []float64) float64, x0 []float64) ([]float64, float64) {
	p := optimize.Problem{
		Func: func(x []float64) float64 {
			v := f(x)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return penalty
			}
			return v
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 1000,
		FuncEvaluations: 4000,
	}
	res, err := optimize.Minimize(p, x0, settings, &optimize.NelderMead{})
	if res == nil || (err != nil && res.F >= penalty) {
		return x0, p.Func(x0)
	}
	return res.X, res.F
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

// zScore returns the two-sided normal quantile for a level in percent.
func zScore(level float64) float64 {
	if level <= 0 || level >= 100 {
		level = 90
	}
	return distuv.UnitNormal.Quantile(0.5 + level/200)
}

// aicc computes the corrected AIC from a gaussian likelihood of n residuals.
func aicc(sse float64, n, k int) float64 {
	if n <= 0 || sse < 0 || math.IsNaN(sse) {
		return math.Inf(1)
	}
	// a perfect fit (constant series) still needs a finite score
	sigma2 := math.Max(sse, minSSE) / float64(n)
	ll := -0.5 * float64(n) * (math.Log(2*math.Pi*sigma2) + 1)
	aic := -2*ll + 2*float64(k)
	den := float64(n - k - 1)
	if den <= 0 {
		return math.Inf(1)
	}
	return aic + 2*float64(k)*float64(k+1)/den
}

// sqrtHorizon builds a prediction whose interval widens with sqrt(h).
func sqrtHorizon(mean []float64, sigma, level float64) models.Prediction {
	z := zScore(level)
	out := models.Prediction{
		Mean:  mean,
		Lo:    make([]float64, len(mean)),
		Hi:    make([]float64, len(mean)),
		Level: level,
	}
	for i, m := range mean {
		w := z * sigma * math.Sqrt(float64(i+1))
		out.Lo[i] = m - w
		out.Hi[i] = m + w
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
