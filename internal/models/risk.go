package models

import "time"

// RiskScore is the aggregated risk posture derived from the current finding
// set. It is recomputed on every ingestion and never stored independently of
// the findings it summarizes.
type RiskScore struct {
	LastUpdated     time.Time             `json:"last_updated"`
	FrameworkScores map[Framework]float64 `json:"framework_scores"`
	OverallScore    float64               `json:"overall_score"`
	FindingsCount   int                   `json:"findings_count"`
	CriticalCount   int                   `json:"critical_count"`
	HighCount       int                   `json:"high_count"`
}

// Clone returns a deep copy so callers cannot mutate shared score state.
func (r RiskScore) Clone() RiskScore {
	out := r
	out.FrameworkScores = make(map[Framework]float64, len(r.FrameworkScores))
	for fw, score := range r.FrameworkScores {
		out.FrameworkScores[fw] = score
	}
	return out
}

// DashboardSummary is a consistent snapshot of aggregated state for dashboard
// consumers.
type DashboardSummary struct {
	RiskScore        RiskScore              `json:"risk_score"`
	AgentStatuses    map[string]AgentStatus `json:"agent_statuses"`
	RecentFindings   []Finding              `json:"recent_findings"`
	PendingReviews   int                    `json:"pending_reviews"`
	TotalFindings    int                    `json:"total_findings"`
	CriticalFindings int                    `json:"critical_findings"`
	HighFindings     int                    `json:"high_findings"`
}
