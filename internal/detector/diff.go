package detector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/complyops/sentinel/internal/models"
	"github.com/complyops/sentinel/pkg/logger"
)

const (
	diffKeywordConfidence  = 0.7
	highRiskPathConfidence = 0.8
	excerptContextLines    = 3
)

// DiffDetector scans code-review diffs for compliance-relevant changes. Only
// added lines are matched against the keyword tables; removals cannot
// introduce new compliance surface.
type DiffDetector struct {
	patterns DiffPatterns
	log      logger.Logger
	now      func() time.Time
}

// NewDiffDetector creates a diff detector with the given pattern tables.
func NewDiffDetector(patterns Patterns, log logger.Logger) *DiffDetector {
	return &DiffDetector{
		patterns: patterns.Diff,
		log:      log.With("detector", AgentCodeReview),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Name returns the detector's agent name.
func (d *DiffDetector) Name() string { return AgentCodeReview }

// Analyze classifies a change set and returns the candidate findings. A diff
// that fails to parse is an error; transport problems are the caller's to
// swallow (hand in an empty change set instead).
func (d *DiffDetector) Analyze(ctx context.Context, change ChangeSet) ([]models.Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(change.Diff)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parsing diff for %s: %w", change.Locator(), err)
	}

	addedLines := collectAddedLines(fileDiffs)
	added := strings.ToLower(strings.Join(addedLines, "\n"))
	detectedAt := d.now()

	var findings []models.Finding
	for _, fw := range models.Frameworks() {
		for _, keyword := range d.patterns.FrameworkKeywords[fw] {
			if !strings.Contains(added, keyword) {
				continue
			}
			tag := strings.ToUpper(string(fw))
			findings = append(findings, models.Finding{
				ID:         models.FindingID(models.SourceCodeReview, string(fw)+":"+keyword, change.Locator()),
				Source:     models.SourceCodeReview,
				SourceURL:  change.URL,
				Title:      fmt.Sprintf("Potential %s relevance: %q found in change %s", tag, keyword, change.Locator()),
				Description: fmt.Sprintf("The pattern %q was detected in added lines of %s. "+
					"This may indicate changes relevant to %s compliance.", keyword, change.Locator(), tag),
				Severity:   d.patterns.SeverityFor(keyword),
				Frameworks: []models.Framework{fw},
				Confidence: diffKeywordConfidence,
				DetectedAt: detectedAt,
				RawContent: excerptLines(addedLines, keyword, excerptContextLines),
			})
		}
	}

	files := change.Files
	if len(files) == 0 {
		files = changedFiles(fileDiffs)
	}
	for _, file := range files {
		for _, riskPath := range d.patterns.HighRiskPaths {
			if !strings.Contains(file, riskPath) {
				continue
			}
			findings = append(findings, models.Finding{
				ID:        models.FindingID(models.SourceCodeReview, "high_risk_path:"+file, change.Locator()),
				Source:    models.SourceCodeReview,
				SourceURL: change.URL,
				Title:     fmt.Sprintf("High-risk file modified: %s", file),
				Description: fmt.Sprintf("File %q in a security/compliance-sensitive path was modified in %s.",
					file, change.Locator()),
				Severity:   models.SeverityHigh,
				Frameworks: []models.Framework{},
				Confidence: highRiskPathConfidence,
				DetectedAt: detectedAt,
			})
			break
		}
	}

	d.log.Info("analyzed change set", "change", change.Locator(), "findings", len(findings))
	return findings, nil
}

// collectAddedLines extracts the added lines from every hunk, stripped of the
// leading '+'.
func collectAddedLines(fileDiffs []*diff.FileDiff) []string {
	var lines []string
	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if strings.HasPrefix(line, "+") {
					lines = append(lines, strings.TrimPrefix(line, "+"))
				}
			}
		}
	}
	return lines
}

// changedFiles lists the new-side file names, stripped of the "b/" prefix.
func changedFiles(fileDiffs []*diff.FileDiff) []string {
	files := make([]string, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		files = append(files, strings.TrimPrefix(fd.NewName, "b/"))
	}
	return files
}

// excerptLines returns the lines around the first case-insensitive match of
// keyword, as supporting context for a finding.
func excerptLines(lines []string, keyword string, context int) string {
	for i, line := range lines {
		if !strings.Contains(strings.ToLower(line), keyword) {
			continue
		}
		start := max(0, i-context)
		end := min(len(lines), i+context+1)
		return strings.Join(lines[start:end], "\n")
	}
	return ""
}
