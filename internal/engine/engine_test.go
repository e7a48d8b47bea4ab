package engine

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyops/sentinel/internal/models"
	"github.com/complyops/sentinel/internal/risk"
	"github.com/complyops/sentinel/pkg/logger"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(opts ...Option) *Engine {
	seq := 0
	defaults := []Option{
		WithClock(func() time.Time { return baseTime }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("review-%d", seq)
		}),
		WithLogger(logger.NewMockLogger()),
	}
	return New(
		risk.NewCalculator(risk.DefaultWeights()),
		risk.NewTriggerPolicy(risk.DefaultThresholds()),
		append(defaults, opts...)...,
	)
}

func finding(id string, sev models.Severity, confidence float64, fws ...models.Framework) models.Finding {
	return models.Finding{
		ID:          id,
		Source:      models.SourceChatMessage,
		Title:       "finding " + id,
		Description: "test finding",
		Severity:    sev,
		Frameworks:  fws,
		Confidence:  confidence,
		DetectedAt:  baseTime,
	}
}

func TestIngestComputesScoreAndCreatesReview(t *testing.T) {
	e := newTestEngine()

	score := e.Ingest([]models.Finding{
		finding("f1", models.SeverityCritical, 1.0, models.FrameworkHIPAA),
	})

	assert.InDelta(t, 75.0, score.OverallScore, 0.001)
	assert.InDelta(t, 100.0, score.FrameworkScores[models.FrameworkHIPAA], 0.001)
	assert.Equal(t, 1, score.CriticalCount)

	pending := e.PendingReviews()
	require.Len(t, pending, 1)
	assert.Equal(t, "f1", pending[0].FindingID)
	assert.Equal(t, models.ReviewPending, pending[0].Status)
}

func TestIngestLowSeverityCreatesNoReview(t *testing.T) {
	e := newTestEngine()

	score := e.Ingest([]models.Finding{
		finding("f1", models.SeverityLow, 1.0),
	})

	assert.InDelta(t, 5.0, score.OverallScore, 0.001)
	assert.Empty(t, e.PendingReviews())
}

func TestIngestIdempotent(t *testing.T) {
	e := newTestEngine()
	batch := []models.Finding{
		finding("f1", models.SeverityCritical, 1.0, models.FrameworkHIPAA),
		finding("f2", models.SeverityMedium, 0.5),
	}

	first := e.Ingest(batch)
	second := e.Ingest(batch)

	assert.Equal(t, first, second, "re-ingesting the identical batch must not change the score")
	assert.Equal(t, 2, second.FindingsCount)
	assert.Len(t, e.PendingReviews(), 1, "no additional reviews on the second ingestion")
}

func TestIngestDropsDuplicateIDWithDifferentContent(t *testing.T) {
	e := newTestEngine()

	e.Ingest([]models.Finding{finding("f1", models.SeverityLow, 0.5)})

	// Same ID, completely different content: still a duplicate.
	impostor := finding("f1", models.SeverityCritical, 1.0, models.FrameworkPCIDSS)
	score := e.Ingest([]models.Finding{impostor})

	assert.Equal(t, 1, score.FindingsCount)
	assert.Zero(t, score.CriticalCount)
	assert.Empty(t, e.PendingReviews())
}

func TestIngestMonotonicScore(t *testing.T) {
	e := newTestEngine()

	previous := e.RiskScore().OverallScore
	severities := []models.Severity{
		models.SeverityLow, models.SeverityMedium, models.SeverityHigh,
		models.SeverityCritical, models.SeverityLow, models.SeverityHigh,
	}
	for i, sev := range severities {
		score := e.Ingest([]models.Finding{finding(fmt.Sprintf("f%d", i), sev, 0.8)})
		assert.GreaterOrEqual(t, score.OverallScore, previous,
			"adding findings must never decrease the overall score")
		previous = score.OverallScore
	}
}

func TestIngestHighScoreTriggersReviewsForHighFindings(t *testing.T) {
	e := newTestEngine()

	// Push the overall score past the trigger threshold: 2x critical at
	// 1.0 is weight 30 -> score 100.
	e.Ingest([]models.Finding{
		finding("c1", models.SeverityCritical, 1.0),
		finding("c2", models.SeverityCritical, 1.0),
	})
	require.Len(t, e.PendingReviews(), 2)

	// Above the threshold, a HIGH finding gets a review but MEDIUM/LOW
	// never do, even within a triggered batch.
	e.Ingest([]models.Finding{
		finding("h1", models.SeverityHigh, 0.9),
		finding("m1", models.SeverityMedium, 0.9),
		finding("l1", models.SeverityLow, 0.9),
	})

	pending := e.PendingReviews()
	require.Len(t, pending, 3)
	ids := []string{pending[0].FindingID, pending[1].FindingID, pending[2].FindingID}
	assert.Contains(t, ids, "h1")
	assert.NotContains(t, ids, "m1")
	assert.NotContains(t, ids, "l1")
}

func TestRiskScoreLazyOnEmptyEngine(t *testing.T) {
	e := newTestEngine()

	score := e.RiskScore()

	assert.Zero(t, score.OverallScore)
	assert.Zero(t, score.FindingsCount)
	assert.Empty(t, score.FrameworkScores)
	assert.Equal(t, baseTime, score.LastUpdated)
}

func TestFindingsFilters(t *testing.T) {
	e := newTestEngine()
	e.Ingest([]models.Finding{
		finding("f1", models.SeverityHigh, 0.5, models.FrameworkGDPR),
		finding("f2", models.SeverityHigh, 0.5, models.FrameworkSOC2),
		finding("f3", models.SeverityLow, 0.5, models.FrameworkGDPR, models.FrameworkSOC2),
	})

	high := e.FindingsBySeverity(models.SeverityHigh)
	assert.Len(t, high, 2)

	gdpr := e.FindingsByFramework(models.FrameworkGDPR)
	assert.Len(t, gdpr, 2)

	critical := e.FindingsBySeverity(models.SeverityCritical)
	assert.Empty(t, critical)
}

func TestResolveReview(t *testing.T) {
	e := newTestEngine()
	e.Ingest([]models.Finding{finding("f1", models.SeverityCritical, 1.0)})

	pending := e.PendingReviews()
	require.Len(t, pending, 1)

	resolved, err := e.ResolveReview(pending[0].ID, models.ReviewApproved, "alex", "looks contained")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewApproved, resolved.Status)
	assert.Equal(t, "alex", resolved.Reviewer)
	require.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, baseTime, *resolved.ResolvedAt)

	assert.Empty(t, e.PendingReviews())
	assert.Len(t, e.Reviews(models.ReviewApproved), 1)
}

func TestResolveReviewUnknownID(t *testing.T) {
	e := newTestEngine()
	e.Ingest([]models.Finding{finding("f1", models.SeverityCritical, 1.0)})

	_, err := e.ResolveReview("no-such-review", models.ReviewDismissed, "alex", "")
	assert.ErrorIs(t, err, ErrReviewNotFound)

	// Ledger unchanged.
	assert.Len(t, e.PendingReviews(), 1)
}

func TestResolveReviewOverwritesTerminalState(t *testing.T) {
	e := newTestEngine()
	e.Ingest([]models.Finding{finding("f1", models.SeverityCritical, 1.0)})
	id := e.PendingReviews()[0].ID

	_, err := e.ResolveReview(id, models.ReviewDismissed, "alex", "false positive")
	require.NoError(t, err)

	// Current behavior: re-resolution overwrites the earlier terminal state.
	resolved, err := e.ResolveReview(id, models.ReviewEscalated, "sam", "needs legal")
	require.NoError(t, err)
	assert.Equal(t, models.ReviewEscalated, resolved.Status)
	assert.Equal(t, "sam", resolved.Reviewer)
	assert.Equal(t, "needs legal", resolved.Notes)
}

func TestUpdateAgentStatus(t *testing.T) {
	e := newTestEngine()

	e.UpdateAgentStatus("doc_crawler", true, 3)
	e.UpdateAgentStatus("doc_crawler", true, 2)
	e.UpdateAgentStatus("chat_monitor", false, 0)
	e.RecordAgentError("chat_monitor")

	statuses := e.AgentStatuses()
	require.Len(t, statuses, 2)

	doc := statuses["doc_crawler"]
	assert.True(t, doc.IsActive)
	assert.Equal(t, 5, doc.FindingsToday, "deltas accumulate instead of overwriting")
	assert.Equal(t, baseTime, doc.LastHeartbeat)

	chat := statuses["chat_monitor"]
	assert.False(t, chat.IsActive)
	assert.Equal(t, 1, chat.ErrorCount)
}

func TestDashboardSummary(t *testing.T) {
	tick := 0
	e := newTestEngine(WithClock(func() time.Time {
		tick++
		return baseTime.Add(time.Duration(tick) * time.Second)
	}))

	// Twelve findings, one per second; recent list keeps the latest ten.
	for i := 0; i < 12; i++ {
		f := finding(fmt.Sprintf("f%d", i), models.SeverityMedium, 0.5)
		f.DetectedAt = baseTime.Add(time.Duration(i) * time.Minute)
		e.Ingest([]models.Finding{f})
	}
	e.Ingest([]models.Finding{finding("crit", models.SeverityCritical, 1.0)})
	e.UpdateAgentStatus("doc_crawler", true, 13)

	summary := e.DashboardSummary()

	assert.Equal(t, 13, summary.TotalFindings)
	assert.Equal(t, 1, summary.CriticalFindings)
	assert.Equal(t, 1, summary.PendingReviews)
	require.Len(t, summary.RecentFindings, 10)
	require.Contains(t, summary.AgentStatuses, "doc_crawler")

	// Most recent detection first.
	for i := 1; i < len(summary.RecentFindings); i++ {
		assert.False(t, summary.RecentFindings[i-1].DetectedAt.Before(summary.RecentFindings[i].DetectedAt))
	}
}

func TestDashboardSummaryTieBreaksByIngestionOrder(t *testing.T) {
	e := newTestEngine()

	// All findings share a detection timestamp; ingestion order breaks ties
	// with the most recently ingested first.
	e.Ingest([]models.Finding{finding("first", models.SeverityLow, 0.5)})
	e.Ingest([]models.Finding{finding("second", models.SeverityLow, 0.5)})
	e.Ingest([]models.Finding{finding("third", models.SeverityLow, 0.5)})

	summary := e.DashboardSummary()
	require.Len(t, summary.RecentFindings, 3)
	assert.Equal(t, "third", summary.RecentFindings[0].ID)
	assert.Equal(t, "second", summary.RecentFindings[1].ID)
	assert.Equal(t, "first", summary.RecentFindings[2].ID)
}

func TestConcurrentOverlappingIngest(t *testing.T) {
	e := newTestEngine(WithIDGenerator(newSafeIDGenerator()))

	// Every goroutine ingests the same overlapping batch; the dedup check
	// and append must never race, so each finding counts exactly once.
	batch := []models.Finding{
		finding("f1", models.SeverityCritical, 1.0),
		finding("f2", models.SeverityHigh, 0.8),
		finding("f3", models.SeverityLow, 0.2),
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Ingest(batch)
		}()
	}
	wg.Wait()

	score := e.RiskScore()
	assert.Equal(t, 3, score.FindingsCount)
	assert.Equal(t, 1, score.CriticalCount)
	assert.Len(t, e.PendingReviews(), 2, "one review each for the critical and high findings")
}

func TestConcurrentReadsDuringIngest(t *testing.T) {
	e := newTestEngine(WithIDGenerator(newSafeIDGenerator()))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				e.Ingest([]models.Finding{
					finding(fmt.Sprintf("f-%d-%d", i, j), models.SeverityMedium, 0.5),
				})
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_ = e.RiskScore()
				_ = e.DashboardSummary()
				_ = e.FindingsBySeverity(models.SeverityMedium)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 160, e.RiskScore().FindingsCount)
}

// newSafeIDGenerator returns a goroutine-safe sequential ID generator for
// concurrency tests.
func newSafeIDGenerator() func() string {
	var mu sync.Mutex
	seq := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("review-%d", seq)
	}
}
