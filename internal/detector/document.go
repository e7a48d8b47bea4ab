package detector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/complyops/sentinel/internal/models"
	"github.com/complyops/sentinel/pkg/logger"
)

const (
	outdatedConfidence  = 0.85
	stalenessConfidence = 0.95
	excerptContextChars = 200
)

// DocDetector detects outdated compliance language and stale policies in
// document text.
type DocDetector struct {
	patterns DocPatterns
	log      logger.Logger
	now      func() time.Time
}

// NewDocDetector creates a document detector with the given pattern tables.
func NewDocDetector(patterns Patterns, log logger.Logger) *DocDetector {
	return &DocDetector{
		patterns: patterns.Document,
		log:      log.With("detector", AgentDocument),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Name returns the detector's agent name.
func (d *DocDetector) Name() string { return AgentDocument }

// Analyze classifies a single document: outdated-language matches first, then
// a staleness check when the document carries a last-modified timestamp.
func (d *DocDetector) Analyze(ctx context.Context, doc Document) ([]models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contentLower := strings.ToLower(doc.Content)
	detectedAt := d.now()

	names := make([]string, 0, len(d.patterns.Outdated))
	for name := range d.patterns.Outdated {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []models.Finding
	for _, name := range names {
		pattern := d.patterns.Outdated[name]
		if !strings.Contains(contentLower, strings.ToLower(pattern.Phrase)) {
			continue
		}
		findings = append(findings, models.Finding{
			ID:        models.FindingID(models.SourceDocument, name, doc.ID),
			Source:    models.SourceDocument,
			SourceURL: doc.URL,
			Title:     fmt.Sprintf("Outdated compliance language: %q", pattern.Phrase),
			Description: fmt.Sprintf("Document %q contains outdated language: %q. %s Suggested replacement: %q.",
				doc.Title, pattern.Phrase, pattern.Reason, pattern.Replacement),
			Severity:   pattern.Severity,
			Frameworks: pattern.Frameworks,
			Confidence: outdatedConfidence,
			DetectedAt: detectedAt,
			RawContent: excerptChars(doc.Content, pattern.Phrase, excerptContextChars),
			Metadata: map[string]any{
				"doc_id":                doc.ID,
				"doc_title":             doc.Title,
				"pattern":               name,
				"suggested_replacement": pattern.Replacement,
			},
		})
	}

	if !doc.LastModified.IsZero() {
		findings = append(findings, d.checkStaleness(doc, detectedAt)...)
	}

	d.log.Info("analyzed document", "doc_id", doc.ID, "findings", len(findings))
	return findings, nil
}

// checkStaleness flags documents whose type-specific review window has
// lapsed. Documents more than twice the window overdue escalate to high.
func (d *DocDetector) checkStaleness(doc Document, detectedAt time.Time) []models.Finding {
	titleLower := strings.ToLower(doc.Title)

	docTypes := make([]string, 0, len(d.patterns.StalenessDays))
	for docType := range d.patterns.StalenessDays {
		docTypes = append(docTypes, docType)
	}
	sort.Strings(docTypes)

	var findings []models.Finding
	for _, docType := range docTypes {
		spaced := strings.ReplaceAll(docType, "_", " ")
		hyphenated := strings.ReplaceAll(docType, "_", "-")
		if !strings.Contains(titleLower, spaced) && !strings.Contains(titleLower, hyphenated) {
			continue
		}

		window := time.Duration(d.patterns.StalenessDays[docType]) * 24 * time.Hour
		age := detectedAt.Sub(doc.LastModified)
		if age <= window {
			continue
		}

		severity := models.SeverityMedium
		if age >= 2*window {
			severity = models.SeverityHigh
		}
		ageDays := int(age.Hours() / 24)

		findings = append(findings, models.Finding{
			ID:        models.FindingID(models.SourceDocument, "stale:"+docType, doc.ID),
			Source:    models.SourceDocument,
			SourceURL: doc.URL,
			Title:     fmt.Sprintf("Stale document: %q not updated in %d days", doc.Title, ageDays),
			Description: fmt.Sprintf("Document %q was last modified %d days ago. %s documents should be "+
				"reviewed at least every %d days.", doc.Title, ageDays, d.titleCase(spaced), d.patterns.StalenessDays[docType]),
			Severity:   severity,
			Frameworks: []models.Framework{models.FrameworkSOC2, models.FrameworkGDPR},
			Confidence: stalenessConfidence,
			DetectedAt: detectedAt,
			Metadata: map[string]any{
				"doc_id":            doc.ID,
				"last_modified":     doc.LastModified.Format(time.RFC3339),
				"days_since_update": ageDays,
				"threshold_days":    d.patterns.StalenessDays[docType],
			},
		})
	}
	return findings
}

func (d *DocDetector) titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// excerptChars returns the characters around the first case-insensitive match
// of phrase, as supporting context for a finding.
func excerptChars(content, phrase string, context int) string {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(phrase))
	if idx == -1 {
		return ""
	}
	start := max(0, idx-context)
	end := min(len(content), idx+len(phrase)+context)
	return "..." + content[start:end] + "..."
}
