// Package models contains the data structures for Sentinel compliance signals.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Finding is a single detected compliance-relevant signal. Findings are
// immutable once created; only the engine's derived state (score, reviews)
// evolves as findings accumulate.
type Finding struct {
	DetectedAt  time.Time      `json:"detected_at"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	ID          string         `json:"id"`
	Source      Source         `json:"source"`
	SourceURL   string         `json:"source_url,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity"`
	RawContent  string         `json:"raw_content,omitempty"`
	Frameworks  []Framework    `json:"frameworks"`
	Confidence  float64        `json:"confidence"`
}

// FindingID creates a stable, deterministic ID from the source kind, the
// matched pattern, and a locator for the scanned artifact. The same underlying
// signal always hashes to the same ID, so re-ingestion deduplicates cleanly.
func FindingID(source Source, pattern, locator string) string {
	core := fmt.Sprintf("%s:%s:%s", source, pattern, locator)
	hash := sha256.Sum256([]byte(core))
	return hex.EncodeToString(hash[:8])
}

// Validate checks that a finding is well-formed. Findings are validated at
// construction time, before they reach the engine; the engine itself assumes
// valid input and never re-validates.
func (f *Finding) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("finding missing required field: id")
	}
	if !f.Source.IsValid() {
		return fmt.Errorf("finding %s has invalid source %q", f.ID, f.Source)
	}
	if f.Title == "" {
		return fmt.Errorf("finding %s missing required field: title", f.ID)
	}
	if f.Description == "" {
		return fmt.Errorf("finding %s missing required field: description", f.ID)
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("finding %s has invalid severity %q", f.ID, f.Severity)
	}
	for _, fw := range f.Frameworks {
		if !fw.IsValid() {
			return fmt.Errorf("finding %s has invalid framework %q", f.ID, fw)
		}
	}
	if f.Confidence < 0.0 || f.Confidence > 1.0 {
		return fmt.Errorf("finding %s confidence %v outside [0, 1]", f.ID, f.Confidence)
	}
	if f.DetectedAt.IsZero() {
		return fmt.Errorf("finding %s missing detection timestamp", f.ID)
	}
	return nil
}

// HasFramework reports whether the finding applies to the given framework.
func (f *Finding) HasFramework(fw Framework) bool {
	for _, have := range f.Frameworks {
		if have == fw {
			return true
		}
	}
	return false
}
