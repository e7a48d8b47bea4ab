package models

import (
	"fmt"
	"time"
)

// ReviewStatus is the lifecycle state of a human-in-the-loop review.
type ReviewStatus string

// Review lifecycle states. Pending is initial; the rest are terminal.
const (
	ReviewPending   ReviewStatus = "pending"
	ReviewApproved  ReviewStatus = "approved"
	ReviewDismissed ReviewStatus = "dismissed"
	ReviewEscalated ReviewStatus = "escalated"
)

// IsValid reports whether s is a known review status.
func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewDismissed, ReviewEscalated:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s ends the review lifecycle.
func (s ReviewStatus) IsTerminal() bool {
	return s.IsValid() && s != ReviewPending
}

// ParseResolution converts a wire tag into a terminal review status.
// Pending is rejected: a review can only be resolved to a terminal state.
func ParseResolution(tag string) (ReviewStatus, error) {
	s := ReviewStatus(tag)
	if !s.IsTerminal() {
		return "", fmt.Errorf("invalid resolution status %q (want approved, dismissed, or escalated)", tag)
	}
	return s, nil
}

// HITLReview is a human-in-the-loop review request for a single finding.
type HITLReview struct {
	CreatedAt  time.Time    `json:"created_at"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
	ID         string       `json:"id"`
	FindingID  string       `json:"finding_id"`
	Status     ReviewStatus `json:"status"`
	Reviewer   string       `json:"reviewer,omitempty"`
	Notes      string       `json:"notes,omitempty"`
}
