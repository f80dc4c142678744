package models

import "time"

// Prediction is a model's h-step forecast with a symmetric interval.
type Prediction struct {
	Mean  []float64
	Lo    []float64
	Hi    []float64
	Level float64
}

// ForecastPoint is one dated forecast row.
type ForecastPoint struct {
	Date time.Time
	Mean float64
	Lo   float64
	Hi   float64
}

// ForecastResult is a dated forecast with the history it was plotted against.
type ForecastResult struct {
	Model    string
	Label    string // model column name, e.g. AutoARIMA
	Ticker   string
	Column   Column
	Level    float64
	Recent   []Bar
	Points   []ForecastPoint
	Computed time.Time
}

// Simulation is the outcome of a Monte-Carlo run.
type Simulation struct {
	Start          float64
	AvgPrice       float64
	PctChange      float64 // fraction, 0.05 = 5%
	IncreaseChance float64 // fraction
	Paths          [][]float64
}

// Relevancy is a ranked ticker from the top command.
type Relevancy struct {
	Ticker string
	Score  float64
}
