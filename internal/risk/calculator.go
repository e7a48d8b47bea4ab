// Package risk converts finding sets into risk scores and decides when risk
// warrants human review. Both pieces are pure functions over immutable
// configuration so they can be tuned and tested independently of the engine.
package risk

import (
	"math"
	"time"

	"github.com/complyops/sentinel/internal/models"
)

// Weights is the scoring configuration: a weight per severity level plus the
// calibration divisors that decide how quickly scores saturate at 100.
type Weights struct {
	Severity         map[models.Severity]float64 `yaml:"severity"`
	OverallDivisor   float64                     `yaml:"overall_divisor"`
	FrameworkDivisor float64                     `yaml:"framework_divisor"`
}

// DefaultWeights returns the stock scoring configuration. The overall divisor
// of 20 means roughly twenty weighted-equivalent findings saturate the scale;
// per-framework scores use a smaller divisor so framework-specific risk
// saturates faster than the aggregate.
func DefaultWeights() Weights {
	return Weights{
		Severity: map[models.Severity]float64{
			models.SeverityLow:      1.0,
			models.SeverityMedium:   3.0,
			models.SeverityHigh:     7.0,
			models.SeverityCritical: 15.0,
		},
		OverallDivisor:   20.0,
		FrameworkDivisor: 10.0,
	}
}

// Calculator maps a finding set to a RiskScore. Compute is deterministic and
// has no side effects.
type Calculator struct {
	weights Weights
}

// NewCalculator creates a calculator from the given weights. Zero-valued
// fields fall back to the defaults so a partial YAML override stays sane.
func NewCalculator(w Weights) *Calculator {
	defaults := DefaultWeights()
	if len(w.Severity) == 0 {
		w.Severity = defaults.Severity
	}
	if w.OverallDivisor <= 0 {
		w.OverallDivisor = defaults.OverallDivisor
	}
	if w.FrameworkDivisor <= 0 {
		w.FrameworkDivisor = defaults.FrameworkDivisor
	}
	return &Calculator{weights: w}
}

// Compute derives the overall and per-framework risk scores from the full
// finding set. Each finding contributes severity weight times confidence.
// A finding with no applicable frameworks contributes to the overall score
// but to no per-framework score.
func (c *Calculator) Compute(findings []models.Finding, now time.Time) models.RiskScore {
	score := models.RiskScore{
		FrameworkScores: make(map[models.Framework]float64),
		LastUpdated:     now,
	}
	if len(findings) == 0 {
		return score
	}

	var total float64
	frameworkWeights := make(map[models.Framework]float64)
	for i := range findings {
		f := &findings[i]
		w := c.weights.Severity[f.Severity] * f.Confidence
		total += w
		for _, fw := range f.Frameworks {
			frameworkWeights[fw] += w
		}
		switch f.Severity {
		case models.SeverityCritical:
			score.CriticalCount++
		case models.SeverityHigh:
			score.HighCount++
		}
	}

	score.OverallScore = round1(clamp100(total / c.weights.OverallDivisor * 100.0))
	for fw, w := range frameworkWeights {
		score.FrameworkScores[fw] = clamp100(w / c.weights.FrameworkDivisor * 100.0)
	}
	score.FindingsCount = len(findings)
	return score
}

func clamp100(v float64) float64 {
	return math.Min(100.0, v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
