package models

import "time"

// Article is a news item from a news provider.
type Article struct {
	Headline  string
	URL       string
	Source    string
	Related   []string
	Published time.Time
}

// Headline is a scraped headline row.
type Headline struct {
	Ticker string
	Date   string
	Time   string
	Text   string
}

// SentimentScores are VADER-style polarity scores.
type SentimentScores struct {
	Neg      float64
	Neu      float64
	Pos      float64
	Compound float64
}
