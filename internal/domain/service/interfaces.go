package service

import (
	"context"
	"time"

	"FinBot/internal/domain/models"
)

// Forecaster is a univariate model with automatic order selection.
type Forecaster interface {
	Name() string
	Fit(y []float64) error
	Predict(h int, level float64) (models.Prediction, error)
}

// ForecasterFactory builds a fresh forecaster for a command model name.
type ForecasterFactory interface {
	New(model string) (Forecaster, error)
}

// Simulator runs Monte-Carlo price paths from observed prices.
type Simulator interface {
	Simulate(prices []float64, days int) (models.Simulation, error)
	Summary(prices []float64, days int) (models.Simulation, error)
}

// SentimentAnalyzer scores headline text.
type SentimentAnalyzer interface {
	PolarityScores(text string) models.SentimentScores
	MeanCompound(texts []string) (float64, error)
}

// ChartRenderer draws PNG charts.
type ChartRenderer interface {
	History(title string, bars []models.Bar) ([]byte, error)
	Forecast(res *models.ForecastResult) ([]byte, error)
	MonteCarlo(ticker string, col models.Column, from time.Time, observed []float64, sim models.Simulation, frameDays int) ([]byte, error)
	Bars(title, ylabel string, labels []string, values []float64) ([]byte, error)
	Series(title, ylabel string, dates []time.Time, values []float64) ([]byte, error)
	Lines(title string, dates []time.Time, series map[string][]float64) ([]byte, error)
}

// Replier delivers command results to the requesting user.
type Replier interface {
	Reply(ctx context.Context, cmd models.Command, res *models.Result) error
	ReplyError(ctx context.Context, cmd models.Command, msg string) error
}

// CommandRunner executes a parsed command and produces its result.
type CommandRunner interface {
	Run(ctx context.Context, cmd models.Command) (*models.Result, error)
}
