package forecast

import (
	"fmt"
	"math"

	"FinBot/internal/domain/models"
	domsvc "FinBot/internal/domain/service"
)

const etsMinSeries = 4

// etsSpec is one additive-error exponential smoothing candidate.
type etsSpec struct {
	name     string
	trend    bool
	damped   bool
	seasonal bool
}

var etsSpecs = []etsSpec{
	{name: "ANN"},
	{name: "AAN", trend: true},
	{name: "AAdN", trend: true, damped: true},
	{name: "ANA", seasonal: true},
	{name: "AAA", trend: true, seasonal: true},
}

type etsParams struct {
	alpha, beta, gamma, phi float64
}

// etsState holds level, trend and the seasonal ring indexed by t mod m.
type etsState struct {
	level float64
	trend float64
	seas  []float64
}

// AutoETS fits every admissible candidate and keeps the lowest AICc.
type AutoETS struct {
	season int
	spec   etsSpec
	params etsParams
	state  etsState
	n      int
	sigma  float64
	fitted bool
}

func NewAutoETS(season int) *AutoETS {
	return &AutoETS{season: season}
}

func (e *AutoETS) Name() string { return ModelETS }

// Method returns the selected candidate, e.g. "AAdN".
func (e *AutoETS) Method() string { return e.spec.name }

func (e *AutoETS) Fit(y []float64) error {
	if err := checkSeries(y, etsMinSeries); err != nil {
		return err
	}
	m := e.season
	best := math.Inf(1)
	for _, spec := range etsSpecs {
		if spec.seasonal && (m < 2 || len(y) < 2*m) {
			continue
		}
		p, st, sse, k := fitETS(y, spec, m)
		score := aicc(sse, len(y), k)
		if score < best {
			best = score
			e.spec, e.params, e.state = spec, p, st
			e.sigma = math.Sqrt(sse / float64(len(y)))
		}
	}
	if math.IsInf(best, 1) {
		return fmt.Errorf("ets: no candidate model could be fitted")
	}
	e.n = len(y)
	e.fitted = true
	return nil
}

func etsInit(y []float64, spec etsSpec, m int) etsState {
	st := etsState{}
	if !spec.seasonal {
		m = 1
	}
	st.seas = make([]float64, m)
	if spec.seasonal {
		first := mean(y[:m])
		st.level = first
		if spec.trend {
			st.trend = (mean(y[m:2*m]) - first) / float64(m)
		}
		for i := 0; i < m; i++ {
			st.seas[i] = y[i] - first
		}
		return st
	}
	st.level = y[0]
	if spec.trend {
		st.trend = y[1] - y[0]
	}
	return st
}

func etsDecode(x []float64, spec etsSpec) etsParams {
	p := etsParams{phi: 1}
	p.alpha = 1e-4 + (1-2e-4)*sigmoid(x[0])
	i := 1
	if spec.trend {
		p.beta = p.alpha * sigmoid(x[i])
		i++
	}
	if spec.seasonal {
		p.gamma = (1 - p.alpha) * sigmoid(x[i])
		i++
	}
	if spec.damped {
		p.phi = 0.8 + 0.18*sigmoid(x[i])
	}
	return p
}

// etsRun filters y through the model and returns the final state and SSE.
func etsRun(y []float64, spec etsSpec, p etsParams, init etsState) (etsState, float64) {
	st := etsState{level: init.level, trend: init.trend, seas: append([]float64(nil), init.seas...)}
	m := len(st.seas)
	var sse float64
	for t, v := range y {
		s := st.seas[t%m]
		damped := p.phi * st.trend
		fc := st.level + damped + s
		err := v - fc
		sse += err * err
		st.level = st.level + damped + p.alpha*err
		if spec.trend {
			st.trend = damped + p.beta*err
		}
		if spec.seasonal {
			st.seas[t%m] = s + p.gamma*err
		}
	}
	return st, sse
}

func fitETS(y []float64, spec etsSpec, m int) (etsParams, etsState, float64, int) {
	init := etsInit(y, spec, m)
	x0 := []float64{logit(0.3)}
	if spec.trend {
		x0 = append(x0, logit(0.1))
	}
	if spec.seasonal {
		x0 = append(x0, logit(0.1))
	}
	if spec.damped {
		x0 = append(x0, 0)
	}
	x, _ := minimize(func(x []float64) float64 {
		_, sse := etsRun(y, spec, etsDecode(x, spec), init)
		return sse
	}, x0)
	p := etsDecode(x, spec)
	st, sse := etsRun(y, spec, p, init)

	k := len(x0) + 1
	if spec.trend {
		k++
	}
	if spec.seasonal {
		k += m
	}
	return p, st, sse, k
}

func (e *AutoETS) Predict(h int, level float64) (models.Prediction, error) {
	if !e.fitted {
		return models.Prediction{}, ErrNotFitted
	}
	if h < 1 {
		return models.Prediction{}, fmt.Errorf("horizon must be positive, got %d", h)
	}
	m := len(e.state.seas)
	fc := make([]float64, h)
	var damp, phik float64 = 0, 1
	for i := 1; i <= h; i++ {
		phik *= e.params.phi
		damp += phik
		v := e.state.level
		if e.spec.trend {
			v += damp * e.state.trend
		}
		v += e.state.seas[(e.n+i-1)%m]
		fc[i-1] = v
	}
	return sqrtHorizon(fc, e.sigma, level), nil
}

var _ domsvc.Forecaster = (*AutoETS)(nil)
