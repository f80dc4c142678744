package montecarlo

import (
	"errors"
	"math/rand/v2"
	"sync"

	"FinBot/internal/domain/models"
	domsvc "FinBot/internal/domain/service"
	"FinBot/internal/services/features"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNotEnoughHistory is returned when fewer than two prices are observed.
var ErrNotEnoughHistory = errors.New("not enough history to simulate")

// Simulator runs geometric random walks whose daily returns are drawn from a
// normal distribution fitted to observed percent changes.
type Simulator struct {
	sims int
	mu   sync.Mutex
	rng  *rand.Rand
}

// Option configures Simulator.
type Option func(*Simulator)

// WithSimulations sets the number of paths.
func WithSimulations(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.sims = n
		}
	}
}

// WithSeed makes runs reproducible.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) { s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

func New(opts ...Option) *Simulator {
	s := &Simulator{
		sims: 200,
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Simulate returns summary statistics and every simulated path. Each path
// starts at the last observed price and has days+1 points.
func (s *Simulator) Simulate(prices []float64, days int) (models.Simulation, error) {
	return s.run(prices, days, true)
}

// Summary is Simulate without path retention.
func (s *Simulator) Summary(prices []float64, days int) (models.Simulation, error) {
	return s.run(prices, days, false)
}

func (s *Simulator) run(prices []float64, days int, keepPaths bool) (models.Simulation, error) {
	if len(prices) < 2 {
		return models.Simulation{}, ErrNotEnoughHistory
	}
	if days < 1 {
		days = 1
	}

	changes := features.PctChange(prices)
	mean, std := stat.PopMeanStdDev(changes, nil)
	dist := distuv.Normal{Mu: mean, Sigma: std}

	start := prices[len(prices)-1]
	out := models.Simulation{Start: start}
	if keepPaths {
		out.Paths = make([][]float64, 0, s.sims)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	above := 0
	for i := 0; i < s.sims; i++ {
		price := start
		var path []float64
		if keepPaths {
			path = make([]float64, 0, days+1)
			path = append(path, price)
		}
		for j := 0; j < days; j++ {
			price *= 1 + s.draw(dist)
			if keepPaths {
				path = append(path, price)
			}
		}
		if price > start {
			above++
		}
		total += price
		if keepPaths {
			out.Paths = append(out.Paths, path)
		}
	}

	out.AvgPrice = total / float64(s.sims)
	if start != 0 {
		out.PctChange = (out.AvgPrice - start) / start
	}
	out.IncreaseChance = float64(above) / float64(s.sims)
	return out, nil
}

// draw samples through the inverse CDF. A zero sigma collapses to the mean.
func (s *Simulator) draw(dist distuv.Normal) float64 {
	if dist.Sigma == 0 {
		return dist.Mu
	}
	u := s.rng.Float64()
	for u == 0 {
		u = s.rng.Float64()
	}
	return dist.Quantile(u)
}

// Relevancy scores a simulation for ranking: %change * %increase / 100.
func Relevancy(sim models.Simulation) float64 {
	return (sim.PctChange * 100) * (sim.IncreaseChance * 100) / 100
}

var _ domsvc.Simulator = (*Simulator)(nil)
