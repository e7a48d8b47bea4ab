package engine

import (
	"sync"
	"time"

	"github.com/complyops/sentinel/internal/models"
)

// Ledger stores HITL review requests. Creation is append-only; resolution is
// a read-modify-write guarded by the ledger's own lock so concurrent
// resolutions of the same review cannot race.
type Ledger struct {
	mu      sync.RWMutex
	byID    map[string]int
	reviews []models.HITLReview
	newID   func() string
	now     func() time.Time
}

// NewLedger creates an empty ledger with the given ID generator and clock.
func NewLedger(newID func() string, now func() time.Time) *Ledger {
	return &Ledger{
		byID:  make(map[string]int),
		newID: newID,
		now:   now,
	}
}

// Create appends a pending review for the given finding and returns it.
func (l *Ledger) Create(findingID string) models.HITLReview {
	l.mu.Lock()
	defer l.mu.Unlock()

	review := models.HITLReview{
		ID:        l.newID(),
		FindingID: findingID,
		Status:    models.ReviewPending,
		CreatedAt: l.now(),
	}
	l.byID[review.ID] = len(l.reviews)
	l.reviews = append(l.reviews, review)
	return review
}

// Resolve transitions a review to a terminal status, recording reviewer and
// notes and stamping the resolution time. An unknown ID yields
// ErrReviewNotFound. Resolving an already-resolved review is permitted and
// overwrites status, reviewer, notes, and resolution timestamp.
func (l *Ledger) Resolve(id string, status models.ReviewStatus, reviewer, notes string) (models.HITLReview, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.byID[id]
	if !ok {
		return models.HITLReview{}, ErrReviewNotFound
	}

	resolvedAt := l.now()
	review := &l.reviews[idx]
	review.Status = status
	review.Reviewer = reviewer
	review.Notes = notes
	review.ResolvedAt = &resolvedAt
	return *review, nil
}

// All returns a copy of every review in creation order.
func (l *Ledger) All() []models.HITLReview {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.HITLReview, len(l.reviews))
	copy(out, l.reviews)
	return out
}

// ByStatus returns all reviews currently in the given status.
func (l *Ledger) ByStatus(status models.ReviewStatus) []models.HITLReview {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.HITLReview
	for i := range l.reviews {
		if l.reviews[i].Status == status {
			out = append(out, l.reviews[i])
		}
	}
	return out
}

// PendingCount returns the number of reviews awaiting resolution.
func (l *Ledger) PendingCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for i := range l.reviews {
		if l.reviews[i].Status == models.ReviewPending {
			count++
		}
	}
	return count
}
