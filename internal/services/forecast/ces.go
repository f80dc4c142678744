package forecast

import (
	"fmt"
	"math"
	"math/cmplx"

	"FinBot/internal/domain/models"
	domsvc "FinBot/internal/domain/service"
)

const cesMinSeries = 4

// AutoCES is nonseasonal complex exponential smoothing. The smoothing
// parameter is a0 + i*a1 and the state holds a level and its complex
// counterpart.
type AutoCES struct {
	a0, a1 float64
	level  float64
	imag   float64
	sigma  float64
	fitted bool
}

func NewAutoCES() *AutoCES { return &AutoCES{} }

func (c *AutoCES) Name() string { return ModelCES }

// Params returns the fitted complex smoothing parameter.
func (c *AutoCES) Params() complex128 { return complex(c.a0, c.a1) }

func cesDecode(x []float64) (float64, float64) {
	return 2 * sigmoid(x[0]), 2 * sigmoid(x[1])
}

// cesStable checks the discount matrix eigenvalues lie inside the unit circle.
func cesStable(a0, a1 float64) bool {
	// D = [[1-(a0-a1), -(1-a1)], [1-(a0+a1), 1-a0]]
	d11, d12 := 1-(a0-a1), -(1 - a1)
	d21, d22 := 1-(a0+a1), 1-a0
	tr := d11 + d22
	det := d11*d22 - d12*d21
	disc := cmplx.Sqrt(complex(tr*tr-4*det, 0))
	l1 := (complex(tr, 0) + disc) / 2
	l2 := (complex(tr, 0) - disc) / 2
	return cmplx.Abs(l1) < 1 && cmplx.Abs(l2) < 1
}

func cesRun(y []float64, a0, a1 float64) (float64, float64, float64) {
	l, c := y[0], y[0]
	var sse float64
	for _, v := range y {
		err := v - l
		sse += err * err
		l, c = l-(1-a1)*c+(a0-a1)*err, l+(1-a0)*c+(a0+a1)*err
	}
	return l, c, sse
}

func (c *AutoCES) Fit(y []float64) error {
	if err := checkSeries(y, cesMinSeries); err != nil {
		return err
	}
	obj := func(x []float64) float64 {
		a0, a1 := cesDecode(x)
		if !cesStable(a0, a1) {
			return penalty
		}
		_, _, sse := cesRun(y, a0, a1)
		return sse
	}
	x0 := []float64{logit(1.3 / 2), logit(1.0 / 2)}
	x, f := minimize(obj, x0)
	if f >= penalty {
		return fmt.Errorf("ces: optimisation did not find a stable model")
	}
	c.a0, c.a1 = cesDecode(x)
	var sse float64
	c.level, c.imag, sse = cesRun(y, c.a0, c.a1)
	c.sigma = math.Sqrt(sse / float64(len(y)))
	c.fitted = true
	return nil
}

func (c *AutoCES) Predict(h int, level float64) (models.Prediction, error) {
	if !c.fitted {
		return models.Prediction{}, ErrNotFitted
	}
	if h < 1 {
		return models.Prediction{}, fmt.Errorf("horizon must be positive, got %d", h)
	}
	fc := make([]float64, h)
	l, im := c.level, c.imag
	for i := 0; i < h; i++ {
		fc[i] = l
		l, im = l-(1-c.a1)*im, l+(1-c.a0)*im
	}
	return sqrtHorizon(fc, c.sigma, level), nil
}

var _ domsvc.Forecaster = (*AutoCES)(nil)
