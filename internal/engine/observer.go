package engine

import "github.com/complyops/sentinel/internal/models"

// Observer receives engine lifecycle events. It exists so hosting services
// can attach telemetry (prometheus counters, tracing) without the core
// importing any of it. Implementations must be safe for concurrent use and
// must not call back into the engine.
type Observer interface {
	// IngestCompleted fires after every ingestion with the accepted subset,
	// the number of duplicates dropped, and the recomputed score.
	IngestCompleted(accepted []models.Finding, duplicates int, score models.RiskScore)
	// ReviewCreated fires once per review created by the trigger policy.
	ReviewCreated(review models.HITLReview)
	// ReviewResolved fires after a successful review resolution.
	ReviewResolved(review models.HITLReview)
}

// nopObserver is the default when no observer is attached.
type nopObserver struct{}

func (nopObserver) IngestCompleted([]models.Finding, int, models.RiskScore) {}
func (nopObserver) ReviewCreated(models.HITLReview)                         {}
func (nopObserver) ReviewResolved(models.HITLReview)                        {}
