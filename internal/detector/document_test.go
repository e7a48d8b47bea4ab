package detector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyops/sentinel/internal/models"
	"github.com/complyops/sentinel/pkg/logger"
)

func newTestDocDetector() *DocDetector {
	d := NewDocDetector(DefaultPatterns(), logger.NewMockLogger())
	d.now = func() time.Time { return detectorNow }
	return d
}

func TestDocDetectorOutdatedLanguage(t *testing.T) {
	d := newTestDocDetector()

	doc := Document{
		ID:      "doc-42",
		Title:   "Data Transfer Addendum",
		URL:     "https://wiki.example.com/doc-42",
		Content: "Cross-border transfers are covered by our Privacy Shield certification.",
	}
	findings, err := d.Analyze(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, models.SourceDocument, f.Source)
	assert.Equal(t, `Outdated compliance language: "privacy shield"`, f.Title)
	assert.Equal(t, models.SeverityHigh, f.Severity)
	assert.Equal(t, []models.Framework{models.FrameworkGDPR}, f.Frameworks)
	assert.InDelta(t, 0.85, f.Confidence, 0.001)
	assert.Contains(t, f.Description, "EU-US Data Privacy Framework")
	assert.Contains(t, f.RawContent, "Privacy Shield")
	assert.Equal(t, "doc-42", f.Metadata["doc_id"])
	assert.Equal(t, "privacy_shield", f.Metadata["pattern"])
	assert.Equal(t, "EU-US Data Privacy Framework", f.Metadata["suggested_replacement"])
	assert.Equal(t, models.FindingID(models.SourceDocument, "privacy_shield", "doc-42"), f.ID)
	require.NoError(t, f.Validate())
}

func TestDocDetectorMultipleOutdatedPhrases(t *testing.T) {
	d := newTestDocDetector()

	doc := Document{
		ID:      "doc-7",
		Title:   "Legacy Privacy Notes",
		Content: "We rely on safe harbor and collect data under implied consent.",
	}
	findings, err := d.Analyze(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, findings, 2)

	// Pattern names are evaluated in sorted order.
	assert.Equal(t, "implied_consent", findings[0].Metadata["pattern"])
	assert.Equal(t, "safe_harbor", findings[1].Metadata["pattern"])
}

func TestDocDetectorStaleness(t *testing.T) {
	tests := []struct {
		name         string
		title        string
		lastModified time.Time
		wantSeverity models.Severity
		wantFindings int
	}{
		{
			name:         "fresh document",
			title:        "Privacy Policy",
			lastModified: detectorNow.AddDate(0, -6, 0),
			wantFindings: 0,
		},
		{
			name:         "overdue is medium",
			title:        "Privacy Policy",
			lastModified: detectorNow.AddDate(0, 0, -400),
			wantSeverity: models.SeverityMedium,
			wantFindings: 1,
		},
		{
			name:         "twice the window is high",
			title:        "Privacy Policy",
			lastModified: detectorNow.AddDate(0, 0, -800),
			wantSeverity: models.SeverityHigh,
			wantFindings: 1,
		},
		{
			name:         "hyphenated title matches",
			title:        "Incident-Response-Plan v2",
			lastModified: detectorNow.AddDate(0, 0, -400),
			wantSeverity: models.SeverityMedium,
			wantFindings: 1,
		},
		{
			name:         "shorter window for compliance reports",
			title:        "Q1 Compliance Report",
			lastModified: detectorNow.AddDate(0, 0, -120),
			wantSeverity: models.SeverityMedium,
			wantFindings: 1,
		},
		{
			name:         "title without a known type",
			title:        "Lunch Menu",
			lastModified: detectorNow.AddDate(0, 0, -800),
			wantFindings: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDocDetector()
			findings, err := d.Analyze(context.Background(), Document{
				ID:           "doc-1",
				Title:        tt.title,
				Content:      "nothing objectionable here",
				LastModified: tt.lastModified,
			})
			require.NoError(t, err)
			require.Len(t, findings, tt.wantFindings)
			if tt.wantFindings > 0 {
				f := findings[0]
				assert.Equal(t, tt.wantSeverity, f.Severity)
				assert.InDelta(t, 0.95, f.Confidence, 0.001)
				assert.ElementsMatch(t, []models.Framework{models.FrameworkSOC2, models.FrameworkGDPR}, f.Frameworks)
				assert.NotNil(t, f.Metadata["days_since_update"])
				require.NoError(t, f.Validate())
			}
		})
	}
}

func TestDocDetectorZeroLastModifiedSkipsStaleness(t *testing.T) {
	d := newTestDocDetector()

	findings, err := d.Analyze(context.Background(), Document{
		ID:      "doc-9",
		Title:   "Security Policy",
		Content: "rotate keys quarterly",
	})
	require.NoError(t, err)
	assert.Empty(t, findings, "documents without a timestamp are never stale")
}
