// Package sentiment scores headline text with VADER.
package sentiment

import (
	"errors"

	"FinBot/internal/domain/models"
	domsvc "FinBot/internal/domain/service"

	"github.com/jonreiter/govader"
	"github.com/shopspring/decimal"
)

// ErrNoText is returned by MeanCompound for an empty input.
var ErrNoText = errors.New("no text to score")

// Analyzer wraps a VADER analyzer. It is safe for concurrent use.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

func New() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// PolarityScores returns neg/neu/pos proportions and the normalised compound
// score of text.
func (a *Analyzer) PolarityScores(text string) models.SentimentScores {
	s := a.vader.PolarityScores(text)
	return models.SentimentScores{
		Neg:      s.Negative,
		Neu:      s.Neutral,
		Pos:      s.Positive,
		Compound: s.Compound,
	}
}

// MeanCompound averages compound scores, rounded to two decimals.
func (a *Analyzer) MeanCompound(texts []string) (float64, error) {
	if len(texts) == 0 {
		return 0, ErrNoText
	}
	var sum float64
	for _, t := range texts {
		sum += a.PolarityScores(t).Compound
	}
	return round(sum/float64(len(texts)), 2), nil
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

var _ domsvc.SentimentAnalyzer = (*Analyzer)(nil)
