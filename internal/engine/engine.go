// Package engine implements the signal-to-risk aggregation core: finding
// ingestion with deduplication, weighted risk scoring, and the
// human-in-the-loop review lifecycle.
package engine

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/complyops/sentinel/internal/models"
	"github.com/complyops/sentinel/internal/risk"
	"github.com/complyops/sentinel/pkg/logger"
)

// ErrReviewNotFound is returned when resolving a review ID the ledger has
// never seen.
var ErrReviewNotFound = errors.New("review not found")

// recentFindingsLimit caps the dashboard's recent-findings list.
const recentFindingsLimit = 10

// Option configures an Engine.
type Option func(*Engine)

// WithClock injects the time source. Defaults to time.Now in UTC.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator injects the review ID generator. Defaults to random UUIDs.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithObserver attaches a telemetry observer.
func WithObserver(obs Observer) Option {
	return func(e *Engine) { e.obs = obs }
}

// WithLogger injects the logger.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// Engine is the stateful aggregation coordinator. It exclusively owns the
// finding set, the derived risk score, the review ledger, and the agent
// registry; detectors only reach this state through Ingest. A single lock
// serializes the whole ingest critical section (dedup check, append,
// recompute, trigger evaluation, review creation) so two concurrent
// ingestions of overlapping finding sets cannot both treat the same finding
// as unseen.
type Engine struct {
	mu       sync.RWMutex
	seen     map[string]struct{}
	findings []models.Finding
	current  *models.RiskScore

	ledger *Ledger
	agents *Registry
	calc   *risk.Calculator
	policy *risk.TriggerPolicy

	now   func() time.Time
	newID func() string
	obs   Observer
	log   logger.Logger
}

// New creates an engine around the given calculator and trigger policy.
func New(calc *risk.Calculator, policy *risk.TriggerPolicy, opts ...Option) *Engine {
	e := &Engine{
		seen:   make(map[string]struct{}),
		calc:   calc,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
		obs:    nopObserver{},
		log:    logger.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ledger = NewLedger(e.newID, e.now)
	e.agents = NewRegistry(e.now)
	return e
}

// Ingest deduplicates the batch against all previously seen finding IDs,
// appends the unseen findings, recomputes the risk score over the full
// accumulated set, and creates pending reviews for every newly accepted
// critical or high finding when the trigger policy fires. Duplicates are
// silently dropped. The updated score is returned. Findings are assumed to
// be validated by the caller.
func (e *Engine) Ingest(findings []models.Finding) models.RiskScore {
	e.mu.Lock()

	accepted := make([]models.Finding, 0, len(findings))
	for i := range findings {
		if _, dup := e.seen[findings[i].ID]; dup {
			continue
		}
		e.seen[findings[i].ID] = struct{}{}
		e.findings = append(e.findings, findings[i])
		accepted = append(accepted, findings[i])
	}
	duplicates := len(findings) - len(accepted)

	score := e.calc.Compute(e.findings, e.now())
	e.current = &score

	var created []models.HITLReview
	if len(accepted) > 0 && e.policy.ShouldTrigger(score, accepted) {
		for i := range accepted {
			if e.policy.NeedsReview(accepted[i]) {
				created = append(created, e.ledger.Create(accepted[i].ID))
			}
		}
	}

	e.mu.Unlock()

	e.log.Info("ingested findings",
		"accepted", len(accepted),
		"duplicates", duplicates,
		"reviews_created", len(created),
		"overall_score", score.OverallScore)

	e.obs.IngestCompleted(accepted, duplicates, score.Clone())
	for _, review := range created {
		e.obs.ReviewCreated(review)
	}
	return score.Clone()
}

// RiskScore returns the last computed score, computing it lazily over the
// current (possibly empty) finding set if no ingestion has happened yet.
func (e *Engine) RiskScore() models.RiskScore {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		score := e.calc.Compute(e.findings, e.now())
		e.current = &score
	}
	return e.current.Clone()
}

// FindingsBySeverity returns all findings with the given severity. Callers
// must not assume any particular order.
func (e *Engine) FindingsBySeverity(severity models.Severity) []models.Finding {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []models.Finding
	for i := range e.findings {
		if e.findings[i].Severity == severity {
			out = append(out, e.findings[i])
		}
	}
	return out
}

// FindingsByFramework returns all findings applicable to the given framework.
func (e *Engine) FindingsByFramework(fw models.Framework) []models.Finding {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []models.Finding
	for i := range e.findings {
		if e.findings[i].HasFramework(fw) {
			out = append(out, e.findings[i])
		}
	}
	return out
}

// Findings returns a copy of the full accumulated finding set.
func (e *Engine) Findings() []models.Finding {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]models.Finding, len(e.findings))
	copy(out, e.findings)
	return out
}

// Reviews returns reviews filtered by status, or all reviews when status is
// empty.
func (e *Engine) Reviews(status models.ReviewStatus) []models.HITLReview {
	if status == "" {
		return e.ledger.All()
	}
	return e.ledger.ByStatus(status)
}

// PendingReviews returns all reviews awaiting human resolution.
func (e *Engine) PendingReviews() []models.HITLReview {
	return e.ledger.ByStatus(models.ReviewPending)
}

// ResolveReview transitions a review to a terminal status. Unknown IDs yield
// ErrReviewNotFound with the ledger unchanged. Re-resolving an already
// terminal review overwrites its resolution; see the ledger for details.
func (e *Engine) ResolveReview(id string, status models.ReviewStatus, reviewer, notes string) (models.HITLReview, error) {
	review, err := e.ledger.Resolve(id, status, reviewer, notes)
	if err != nil {
		return models.HITLReview{}, err
	}

	e.log.Info("review resolved", "review_id", id, "status", status, "reviewer", reviewer)
	e.obs.ReviewResolved(review)
	return review, nil
}

// UpdateAgentStatus upserts a detector's status, adding the findings delta to
// its daily counter and refreshing its heartbeat.
func (e *Engine) UpdateAgentStatus(name string, isActive bool, findingsDelta int) {
	e.agents.Update(name, isActive, findingsDelta)
}

// RecordAgentError increments a detector's error counter.
func (e *Engine) RecordAgentError(name string) {
	e.agents.RecordError(name)
}

// AgentStatuses returns a snapshot of every registered detector's status.
func (e *Engine) AgentStatuses() map[string]models.AgentStatus {
	return e.agents.Snapshot()
}

// DashboardSummary returns a consistent snapshot of the aggregated state:
// the current score, review and finding counts, agent statuses, and the ten
// most recently detected findings (ties broken by ingestion order, most
// recent first).
func (e *Engine) DashboardSummary() models.DashboardSummary {
	e.mu.Lock()
	if e.current == nil {
		score := e.calc.Compute(e.findings, e.now())
		e.current = &score
	}
	score := e.current.Clone()

	// Reverse ingestion order first so the stable sort leaves equal
	// timestamps with the most recently ingested finding in front.
	recent := make([]models.Finding, len(e.findings))
	for i := range e.findings {
		recent[i] = e.findings[len(e.findings)-1-i]
	}
	total := len(e.findings)
	e.mu.Unlock()

	sort.SliceStable(recent, func(a, b int) bool {
		return recent[a].DetectedAt.After(recent[b].DetectedAt)
	})
	if len(recent) > recentFindingsLimit {
		recent = recent[:recentFindingsLimit]
	}

	return models.DashboardSummary{
		RiskScore:        score,
		PendingReviews:   e.ledger.PendingCount(),
		TotalFindings:    total,
		CriticalFindings: score.CriticalCount,
		HighFindings:     score.HighCount,
		AgentStatuses:    e.agents.Snapshot(),
		RecentFindings:   recent,
	}
}
