package risk

import "github.com/complyops/sentinel/internal/models"

// Thresholds configures when ingestion triggers human-in-the-loop review.
type Thresholds struct {
	// TriggerScore is the overall risk score at or above which any newly
	// accepted batch triggers review creation.
	TriggerScore float64 `yaml:"trigger_score"`
	// CriticalCount is the number of critical findings in a batch that
	// triggers review creation regardless of the overall score.
	CriticalCount int `yaml:"critical_count"`
}

// DefaultThresholds returns the stock trigger configuration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		TriggerScore:  50.0,
		CriticalCount: 1,
	}
}

// TriggerPolicy decides whether a freshly ingested batch must create review
// requests. It is pure: the engine evaluates it after recomputing the score.
type TriggerPolicy struct {
	thresholds Thresholds
}

// NewTriggerPolicy creates a policy from the given thresholds, falling back
// to defaults for zero values.
func NewTriggerPolicy(t Thresholds) *TriggerPolicy {
	defaults := DefaultThresholds()
	if t.TriggerScore <= 0 {
		t.TriggerScore = defaults.TriggerScore
	}
	if t.CriticalCount <= 0 {
		t.CriticalCount = defaults.CriticalCount
	}
	return &TriggerPolicy{thresholds: t}
}

// ShouldTrigger reports whether reviews must be created for a newly accepted
// batch: either the current overall score breaches the trigger threshold, or
// the batch itself carries enough critical findings.
func (p *TriggerPolicy) ShouldTrigger(current models.RiskScore, accepted []models.Finding) bool {
	if current.OverallScore >= p.thresholds.TriggerScore {
		return true
	}

	criticals := 0
	for i := range accepted {
		if accepted[i].Severity == models.SeverityCritical {
			criticals++
		}
	}
	return criticals >= p.thresholds.CriticalCount
}

// NeedsReview reports whether an individual finding gets a review when the
// policy triggers. Only critical and high severity findings do; medium and
// low findings never get an automatic review, even in a triggered batch.
func (p *TriggerPolicy) NeedsReview(f models.Finding) bool {
	return f.Severity == models.SeverityCritical || f.Severity == models.SeverityHigh
}
